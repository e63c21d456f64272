package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/bondval/internal/app"
	"github.com/ternarybob/bondval/internal/common"
	"github.com/ternarybob/bondval/internal/server"
)

// configPaths collects repeated -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	var configs configPaths
	flag.Var(&configs, "config", "Path to TOML config file (can be repeated, later files override earlier)")
	flag.Var(&configs, "c", "Path to TOML config file (shorthand)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.IntVar(port, "p", 0, "HTTP server port (shorthand)")
	host := flag.String("host", "", "HTTP server host (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.BoolVar(showVersion, "v", false, "Print version and exit (shorthand)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bondval %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if len(configs) == 0 {
		for _, candidate := range []string{"bondval.toml", "deployments/local/bondval.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				configs = append(configs, candidate)
				break
			}
		}
	}

	config, err := common.LoadFromFiles(configs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *port, *host)

	logger := common.InitLogger(config)
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("environment", config.Environment).
		Msg("Starting bondval")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	srv := server.New(application)

	serverErr := make(chan error, 1)
	common.SafeGo(logger, "http-server", func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}

	logger.Info().Msg("Shutdown complete")
}
