package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/common/config"
	"github.com/diseaseforecast/platform/pkg/common/database"
	"github.com/diseaseforecast/platform/pkg/common/kafka"
	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/diseaseforecast/platform/pkg/dashboard"
	"github.com/diseaseforecast/platform/pkg/gateway/middleware"
	"github.com/diseaseforecast/platform/pkg/gateway/routes"
	"github.com/diseaseforecast/platform/pkg/observability/metrics"
	"github.com/diseaseforecast/platform/pkg/serving"
	"github.com/diseaseforecast/platform/pkg/serving/predictor"
	"github.com/diseaseforecast/platform/pkg/training"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "forecast",
		Short: "Disease progression forecast API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(trainCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.App.LogLevel)
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the patients, clinical_records and predictions tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.OpenPostgres(cfg.Postgres)
			if err != nil {
				return err
			}
			defer database.ClosePostgres(db)

			if err := clinical.NewRepository(db).AutoMigrate(); err != nil {
				return fmt.Errorf("migrating schema: %w", err)
			}
			logger.Log.Info("Schema migrated")
			return nil
		},
	}
}

func trainCmd() *cobra.Command {
	var opts training.Options
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the progression model from a CSV dataset and write its artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			report, err := training.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "R2 Score: %.4f\nMAE: %.4f\nModel saved as %s\n",
				report.Metrics["r2"], report.Metrics["mae"], report.ArtifactPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.DataPath, "data", "data/diabetes.csv", "CSV dataset; last column is the target")
	cmd.Flags().StringVar(&opts.OutputPath, "out", "models/progression.json", "Artifact output path")
	cmd.Flags().StringVar(&opts.ParamsPath, "params", "", "Optional YAML hyperparameter file")
	cmd.Flags().StringVar(&opts.ModelName, "name", "progression-gbr", "Model name recorded in the artifact")
	cmd.Flags().Float64Var(&opts.TestSize, "test-size", training.DefaultTestSize, "Held-out fraction")
	cmd.Flags().Int64Var(&opts.Seed, "seed", training.DefaultSeed, "Shuffle seed")
	return cmd
}

func runServer(cfg *config.Config) error {
	// The model loads before anything else; no artifact, no server.
	model, err := predictor.Load(cfg.Model)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.Model.Path).Error("Failed to load model")
		return err
	}
	defer model.Close()
	logger.Log.WithField("model", model.Info().Name).Info("Model loaded")

	db, err := database.OpenPostgres(cfg.Postgres)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to connect to database")
		return err
	}
	defer database.ClosePostgres(db)

	repo := clinical.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Error("Failed to migrate clinical tables")
		return err
	}

	var events clinical.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	}

	redisClient := database.OpenRedis(cfg.Redis)
	defer database.CloseRedis(redisClient)

	metrics.Init()

	clinicalService := clinical.NewService(repo, events)
	servingService := serving.NewService(repo, model, events)
	dashboardService := dashboard.NewService(repo, dashboard.NewRedisCache(redisClient), cfg.Dashboard.RecentLimit, cfg.Dashboard.CacheTTL)

	router := mux.NewRouter()
	router.Use(middleware.Metrics)
	routes.RegisterHealthRoutes(router, func(ctx context.Context) error {
		return database.PingPostgres(ctx, db)
	})
	routes.RegisterClinicalRoutes(router, clinicalService)
	routes.RegisterPredictionRoutes(router, servingService)
	routes.NewMetricsHandler(dashboardService).Register(router)

	var handler http.Handler = router
	handler = middleware.BodyLimit(cfg.Server.MaxRequestBody)(handler)
	handler = middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)(handler)
	handler = middleware.CORS(cfg.Server.CORSOrigin)(handler)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"addr": cfg.Server.Addr(),
			"env":  cfg.App.Env,
		}).Info("Forecast API started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Log.WithError(err).Error("Failed to start server")
		return err
	}

	logger.Log.Info("Shutting down Forecast API...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Forecast API stopped")
	return nil
}
