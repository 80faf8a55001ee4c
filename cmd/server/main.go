package main

import (
	"context"
	"log"

	"github.com/akozlovs/gamersnet/internal/server"
	"github.com/akozlovs/gamersnet/internal/server/config"
)

func main() {

	ctx := context.Background()

	server.LoadEnvFile()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
