// Command edaserver serves dataset uploads, profiling reports and classifier
// runs over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/edaml/internal/server"
	"github.com/YuminosukeSato/edaml/internal/store"
	"github.com/YuminosukeSato/edaml/pkg/config"
	"github.com/YuminosukeSato/edaml/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: nearest .edaml.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "edaserver: %+v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	provider := log.NewZerologProvider(log.ToLogLevel(cfg.Logging.Level))
	provider.InstallWarningSink()
	log.SetGlobalProvider(provider)
	logger := log.GetLoggerWithName("edaserver")
	logger.Info("configuration loaded",
		"addr", cfg.Server.Addr,
		"max_uploads", cfg.Server.MaxUploads,
		log.RandomSeedKey, cfg.ML.Seed,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, store.New(cfg.Server.MaxUploads), log.GetLoggerWithName("server"))
	return srv.ListenAndServe(ctx)
}
