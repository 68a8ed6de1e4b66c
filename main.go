package main

import (
	"log/slog"
	"os"

	"github.com/usched/usched-api/app"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
