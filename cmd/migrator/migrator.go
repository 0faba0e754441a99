package main

import (
	"log"
	"os"

	pg "github.com/NordCoder/ordotrack/internal/repository/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		log.Fatal("DB_DSN is empty")
	}

	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := pg.Migrate(db); err != nil {
		log.Fatal(err)
	}
	log.Println("migrations: up OK")
}
