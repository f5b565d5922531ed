package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"setquiz/internal/auth"
	"setquiz/internal/config"
	"setquiz/internal/transport/api"
)

// NewAPICmd serves the question bank that quiz servers call.
func NewAPICmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Start the question bank API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAPI(cmd.Context(), *configPath, *port)
		},
	}
}

func runAPI(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.API.Port
	}
	if finalPort == "" {
		finalPort = "8081"
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bank, cleanup, err := buildBank(ctx, cfg, newRedisClient(cfg))
	defer cleanup()
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		log.Printf("auth secret not configured; question uploads disabled")
	}

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.NewRouter(bank, auth.NewService(cfg.Auth.Secret), cfg.API.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting question bank api on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down api...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
