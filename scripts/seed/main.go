// Seed adds sample todos through the configured storage. Run from project root: go run ./scripts/seed -n 20
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"todo-app/internal/app"
	"todo-app/internal/config"
	"todo-app/pkg/logger"
)

func main() {
	total := flag.Int("n", 20, "number of todos to add")
	flag.Parse()

	config.LoadEnvFile(".env")

	ctx := context.Background()
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Config failed:", err)
		os.Exit(1)
	}
	logger.SetDefault(logger.New(os.Stderr, "warn"))

	todos, closeStorage, err := app.NewStore(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Storage not available:", err)
		os.Exit(1)
	}
	defer closeStorage()

	start := time.Now()
	for n := 1; n <= *total; n++ {
		todo, err := todos.Create(ctx, fmt.Sprintf("Todo %d", n), fmt.Sprintf("Description for todo %d", n))
		if err != nil {
			fmt.Fprintln(os.Stderr, "\nCreate failed:", err)
			closeStorage()
			os.Exit(1)
		}
		if n%3 == 0 {
			if _, err := todos.Update(ctx, todo.ID, true); err != nil {
				fmt.Fprintln(os.Stderr, "\nUpdate failed:", err)
				closeStorage()
				os.Exit(1)
			}
		}
		fmt.Printf("\rInserted %d / %d", n, *total)
	}

	fmt.Printf("\nDone: %d todos in %v (driver %s)\n", *total, time.Since(start), cfg.StorageDriver)
}
