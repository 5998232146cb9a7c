package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/mcp"
	"github.com/standardbeagle/quickreply/internal/version"
)

func mcpCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Corpus.Watch {
		stop, err := a.watchCorpus()
		if err != nil {
			return err
		}
		defer stop()
	}

	server, err := mcp.NewServer(a.engine, a.guard, mcp.Options{
		Version: version.Version,
		Reload:  a.reloadCorpus,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		a.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		shutdownTimer := time.NewTimer(2 * time.Second)
		defer shutdownTimer.Stop()

		select {
		case err := <-errChan:
			return err
		case <-shutdownTimer.C:
			// The stdio transport may be blocked reading; closing stdin unblocks it
			os.Stdin.Close()
			return nil
		}
	}
}
