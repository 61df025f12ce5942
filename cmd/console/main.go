package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"todo-app/internal/client"
	"todo-app/internal/console"
)

func main() {
	apiURL := flag.String("api", envOr("TODO_API_URL", client.DefaultBaseURL), "todo API base URL")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() { console.PrintHelp(os.Stderr) }
	flag.Parse()

	level := log.WarnLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "todo",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(*apiURL, client.WithLogger(logger))
	logger.Debug("using API", "url", *apiURL)

	args := flag.Args()
	if len(args) == 0 {
		if err := console.RunMenu(ctx, api); err != nil {
			logger.Error("menu failed", "err", err)
			os.Exit(1)
		}
		return
	}
	os.Exit(console.Run(ctx, api, args, os.Stdout, os.Stderr))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
