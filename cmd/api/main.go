package main

import (
	"go.uber.org/fx"

	"github.com/ilindan-dev/fact-scheduler/internal/app"
)

// main is the entry point for the API server application.
func main() {
	// We create and run the Fx application specifically for the API.
	fx.New(app.APIModule).Run()
}
