package main

import (
	"log"

	"github.com/lucasnhandang/TheMillionaireGame/internal/app"
	"github.com/lucasnhandang/TheMillionaireGame/internal/config"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
