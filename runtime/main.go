package main

import (
	"github.com/zevi-app/zevi_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment variables")
	}

	ctx, err := context.NewCtx(
		&services.RedisService{},
		&services.PostgresService{},
		&services.LocalStoreService{},
		&services.MinioService{},

		&services.JWTService{},
		&services.IdentityService{},
		&services.AuthService{},

		&services.PracticeService{},
		&services.MigrationService{},
		&services.EvaluationService{},
		&services.TranscriptionService{},
		&services.RateLimitService{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
