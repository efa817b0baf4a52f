package main

import (
	"context"
	"log"

	"github.com/aussiebroadwan/taskflow/internal/auth/app"
)

//go:generate swag init -g internal/auth/http/router.go -d ../../ -o ../../api/auth --packageName auth --outputTypes go

func main() {
	ctx := context.Background()
	cfg := app.LoadConfig()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
