package main

import (
	"os"

	"github.com/yigit/practicelog/internal/bootstrap"
	"github.com/yigit/practicelog/internal/config"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/server"
)

// @title PracticeLog API
// @version 1.0
// @description Members, practice submissions and media over a Notion workspace
// @BasePath /api/v1

func main() {
	srv, err := server.NewServer(config.GetEnv("CONFIG_PATH", bootstrap.DefaultConfigPath))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
