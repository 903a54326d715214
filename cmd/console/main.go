// Command console serves the browser console for the users API.
package main

import (
	"context"
	"log"

	"users-console/cmd/console/app"
	"users-console/pkg/httpserver"
)

func main() {
	ctx, stop := httpserver.WithSignal(context.Background())
	defer stop()

	a, err := app.New()
	if err != nil {
		log.Fatalf("failed to start console: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("console exited with error: %v", err)
	}
}
