package main

import (
	"go.uber.org/fx"

	"github.com/ilindan-dev/fact-scheduler/internal/app"
)

// main is the entry point for the background worker application.
func main() {
	fx.New(app.WorkerModule).Run()
}
