package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/hoaboard/internal/server"
	"github.com/dmitrijs2005/hoaboard/internal/server/config"
)

func main() {

	// Missing .env is fine; env vars may come from the environment itself.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
