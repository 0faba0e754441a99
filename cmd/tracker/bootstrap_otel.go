package main

import (
	"context"

	config "github.com/NordCoder/ordotrack/internal/config/tracker"
	"github.com/NordCoder/ordotrack/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.OTELConfig())
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}
