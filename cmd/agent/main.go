package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/cli"
	"github.com/david/grant-agent/internal/config"
	"github.com/david/grant-agent/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	opts, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if opts == nil {
		return // help was shown
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, opts)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	switch {
	case opts.Auto:
		report, err := a.RunConfiguredBatch(ctx)
		if err != nil {
			log.Fatalf("Batch failed: %v", err)
		}
		log.Printf("✅ Auto run %s complete: %d added, %d updated, %d alerts", report.RunID, report.Added, report.Updated, report.Alerts.Total())

	case opts.Schedule != "":
		s := scheduler.New(opts.Timezone)
		err := s.Schedule(ctx, opts.Schedule, func(ctx context.Context) error {
			_, err := a.RunConfiguredBatch(ctx)
			return err
		})
		if err != nil {
			log.Fatalf("Invalid schedule %q: %v", opts.Schedule, err)
		}
		s.Run(ctx)

	default:
		if err := cli.NewMenu(a, os.Stdin, os.Stdout).Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("Menu error: %v", err)
		}
	}
}
