package main

import (
	"context"
	"log"

	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/config"
)

func main() {
	opts, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if opts == nil {
		return
	}

	ctx := context.Background()
	a, err := app.Build(ctx, opts)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	changed, err := a.Pipeline.Rescore(ctx)
	if err != nil {
		log.Fatalf("Rescore failed: %v", err)
	}
	log.Printf("Rescore complete: %d of %d grants changed", changed, a.Store.Len())
}
