package main

import (
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/repository"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/storage"
	"MonikaNotify/storage/database"
)

const outPath = "./internal/repository/query"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg)
	defer logger.Sync()

	// database.Init 会先跑迁移，保证表存在
	if err := storage.Init(cfg, storage.Options{Database: true}); err != nil {
		logger.Logger.Fatal("Failed to initialize database for code generation", zap.Error(err))
	}
	defer storage.Close()

	if err := repository.Generate(database.DB(), outPath); err != nil {
		logger.Logger.Fatal("Failed to generate query code", zap.Error(err))
	}

	logger.Logger.Info("Query code generated", zap.String("path", outPath))
}
