// Package main implements the entry point for the OmniPrompt API server,
// which drives batch LLM generation over flashcard records: prompt
// templating, provider calls with retry and pacing, and review/commit of
// the generated text.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		app.logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
