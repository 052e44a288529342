package main

import (
	"context"
	"os"

	"github.com/desertthunder/tanin/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.command().Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
