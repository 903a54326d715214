// Command usersapi serves the users REST API.
package main

import (
	"context"
	"log"

	"users-console/cmd/usersapi/app"
	"users-console/pkg/httpserver"
)

func main() {
	ctx, stop := httpserver.WithSignal(context.Background())
	defer stop()

	a, err := app.New()
	if err != nil {
		log.Fatalf("failed to start users API: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}
