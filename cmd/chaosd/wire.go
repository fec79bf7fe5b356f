//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/greggjuri/chaos-dungeon/internal/config"
)

func initApp(ctx context.Context, cfg config.Config) (*App, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}
