package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"

	"setquiz/internal/app"
	"setquiz/internal/config"
	"setquiz/internal/infra/memory"
	infraredis "setquiz/internal/infra/redis"
	"setquiz/internal/infra/remote"
	transport "setquiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the quiz session server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	redisClient := newRedisClient(cfg)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	cacheTTL := config.TTLDuration(cfg.Cache.TTL, time.Hour)

	var services app.Services
	if cfg.Services.URL != "" {
		client, err := remote.New(cfg.Services.URL,
			remote.WithToken(cfg.Services.Token),
			remote.WithTimeout(config.TTLDuration(cfg.Services.Timeout, 15*time.Second)),
		)
		if err != nil {
			return err
		}
		services = app.Services{
			Questions:    memory.NewQuestionCache(client, cacheTTL),
			Verifier:     client,
			Hints:        client,
			Explanations: client,
		}
		log.Printf("using question services at %s", cfg.Services.URL)
	} else {
		bank, cleanup, err := buildBank(ctx, cfg, redisClient)
		defer cleanup()
		if err != nil {
			return err
		}
		services = app.Services{Questions: bank, Verifier: bank, Hints: bank, Explanations: bank}
	}

	format, err := parseAnswerFormat(cfg.Quiz.AnswerFormat)
	if err != nil {
		return err
	}

	var flows app.FlowRepository
	if redisClient != nil {
		flows = infraredis.NewFlowStore(redisClient, redisTTL)
	} else {
		flows = memory.NewFlowStore()
	}
	service := app.NewQuizService(flows, services,
		app.WithAdvanceDelay(config.TTLDuration(cfg.Quiz.AdvanceDelay, app.DefaultAdvanceDelay)),
		app.WithAnswerFormat(format),
	)

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		log.Printf("session secret not configured; client cookies will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	cookies := sessions.NewCookieStore(secret)
	cookies.Options.HttpOnly = true
	cookies.Options.SameSite = http.SameSiteLaxMode
	wsHandler := transport.NewWSHandler(service, cookies)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func parseAnswerFormat(raw string) (app.AnswerFormat, error) {
	switch raw {
	case "", "choice":
		return app.FormatChoice, nil
	case "set":
		return app.FormatSetLiteral, nil
	case "numeric":
		return app.FormatNumeric, nil
	}
	return app.FormatChoice, fmt.Errorf("unknown answer format %q", raw)
}
