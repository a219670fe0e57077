// File: serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"textCaptchaAuth/captcha"
)

var (
	serveConfigPath string
	serveAddr       string
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the challenge HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config.yaml", "Path to YAML config")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides config")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Log every pipeline stage")
	rootCmd.AddCommand(serveCmd)
}

// loadServeConfig tolerates a missing default config file but not a missing
// file the user asked for.
func loadServeConfig(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(serveConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, err
		}
		log.Printf("No config at %s, using defaults", serveConfigPath)
	}
	cfg.ApplyEnv()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}
	if serveVerbose {
		captcha.SetLogger(slog.Default())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := cfg.Captcha.EngineOptions()
	if err != nil {
		return err
	}
	engine, err := captcha.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("init captcha engine: %w", err)
	}

	store, err := newStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	secret := []byte(cfg.Token.Secret)
	if len(secret) == 0 {
		log.Println("No token secret configured, generating an ephemeral one")
		if secret, err = randomSecret(); err != nil {
			return err
		}
	}
	tokens := NewTokenIssuer(secret, time.Duration(cfg.Token.TTLSeconds)*time.Second)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newApp(cfg, engine, store, tokens).routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s (store: %s)", server.Addr, cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
