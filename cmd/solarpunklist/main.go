package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"SolarpunkList/internal/app"
	"SolarpunkList/internal/config"
	"SolarpunkList/internal/logging"
)

func main() {
	var (
		runOnce   = flag.String("run", "", "run one pipeline and exit: discovery, refresh, backfill or audit")
		submitURL = flag.String("submit", "", "research one submitted website URL and exit")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if *submitURL != "" {
		if err := application.SubmitURL(ctx, *submitURL); err != nil {
			logger.Error("submission failed", "url", *submitURL, "error", err)
			os.Exit(1)
		}
		return
	}

	switch *runOnce {
	case "":
		if err := application.Serve(ctx); err != nil {
			logger.Error("application stopped", "error", err)
			os.Exit(1)
		}
	case "discovery":
		application.RunDiscovery(ctx)
	case "refresh":
		application.RunRefresh(ctx)
	case "backfill":
		application.RunImageBackfill(ctx)
	case "audit":
		application.RunHeroAudit(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown pipeline %q\n", *runOnce)
		os.Exit(2)
	}
}
