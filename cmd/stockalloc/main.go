package main

import (
	"context"
	"fmt"
	"os"

	"stockalloc/cmd"
	"stockalloc/internal/logger"
)

func main() {
	log := logger.New()
	ctx := logger.WithLogger(context.Background(), log)

	err := cmd.Execute(ctx)
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
