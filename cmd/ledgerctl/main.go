package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	rootCmd := newRootCmd(openService, os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errOperationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// openService builds the ledger service from the environment. Events are
// published when AMQP is configured, same as the server.
func openService(ctx context.Context) (*ledger.Service, func() error, error) {
	cfg, logger, err := cli.LoadConfig((*config.Config).Validate)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.WithComponent(log.ComponentCLI)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}

	svc := ledger.NewService(res.Store, append(res.Options(), ledger.WithLogger(logger))...)
	return svc, res.Cleanup, nil
}
