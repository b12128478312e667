package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/ZacBytes/caloric/config"
	"github.com/ZacBytes/caloric/controllers"
	"github.com/ZacBytes/caloric/database"
	"github.com/ZacBytes/caloric/llm"
	_ "github.com/ZacBytes/caloric/llm/providers"
	"github.com/ZacBytes/caloric/routes"
	"github.com/ZacBytes/caloric/services"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// Photo storage is optional; without a bucket the endpoint reports 503.
	var putter services.ObjectPutter
	if cfg.S3.Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			log.Fatalf("load AWS config: %v", err)
		}
		putter = s3.NewFromConfig(awsCfg)
	}

	client, err := llm.NewClient(llm.Endpoint{
		Provider: cfg.Estimator.Provider,
		BaseURL:  cfg.Estimator.BaseURL,
		Model:    cfg.Estimator.Model,
		APIKey:   cfg.Estimator.APIKey,
	},
		llm.WithHTTPClient(&http.Client{Timeout: cfg.Estimator.Timeout}),
		llm.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("build estimator client: %v", err)
	}

	profiles := services.NewProfileService(db)
	deps := routes.Deps{
		JWTSecret: cfg.JWT.Secret,
		Health:    controllers.NewHealthController(db),
		Auth:      controllers.NewAuthController(services.NewAuthService(db, cfg.JWT)),
		Estimate:  controllers.NewEstimateController(services.NewEstimationService(client, cfg.Estimator, logger)),
		Profile:   controllers.NewProfileController(profiles),
		Entries:   controllers.NewEntryController(services.NewEntryService(db)),
		Progress:  controllers.NewProgressController(services.NewProgressService(db, profiles)),
		Photos:    controllers.NewPhotoController(services.NewPhotoService(putter, cfg.S3)),
	}

	r := routes.SetupRouter(deps)
	logger.Info("caloric api listening", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
