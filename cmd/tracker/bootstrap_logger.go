package main

import (
	config "github.com/NordCoder/ordotrack/internal/config/tracker"
	"github.com/NordCoder/ordotrack/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.LoggerConfig(false))
}
