// Command sercha-rag answers questions about uploaded documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/app"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	application, err := app.New(ctx, app.Options{ConfigDir: os.Getenv("SERCHA_RAG_HOME")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("closing: %v", err)
		}
	}()

	for _, w := range application.Warnings {
		logger.Debug("startup: %s", w)
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Sessions:  application.Sessions,
		Documents: application.Documents,
		Query:     application.Query,
		Search:    application.Index,
		Match:     application.Match,
		Settings:  application.Config,
		Health:    application.Health,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
