package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"donna/internal/logging"
	"donna/internal/server"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the assistant over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := buildContainer(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(context.Background()) }()

			if addr == "" {
				addr = c.Config.ServerAddr
			}
			logging.EchoToStdout(true)
			return runServer(c, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured server_addr)")
	return cmd
}

func runServer(c *container, addr string) error {
	srv := server.New(c.Engine, c.Store, logging.NewComponentLogger("Server"))
	router := srv.Router(server.Config{AllowedOrigins: c.Config.AllowedOrigins})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // turns can wait on human approval
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("Listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-quit:
	}

	c.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
