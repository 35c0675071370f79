package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/legatera/legatera/internal/auth"
	"github.com/legatera/legatera/internal/config"
	"github.com/legatera/legatera/internal/handlers"
	"github.com/legatera/legatera/internal/middleware"
	"github.com/legatera/legatera/internal/ratelimit"
	"github.com/legatera/legatera/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	recordStore, err := initStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize record store")
	}

	provider, err := initProvider(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize identity provider")
	}

	limiter := initLimiter(cfg, logger)

	creds := auth.NewClient(provider, limiter, cfg.Cognito.ClientID, cfg.Cognito.ClientSecret, logger)

	authHandlers := handlers.NewAuthHandlers(creds, recordStore, logger)
	recordHandlers := handlers.NewRecordHandlers(recordStore, logger)
	authMiddleware := middleware.NewAuthMiddleware(creds, recordStore, logger)

	router := setupRouter(authHandlers, recordHandlers, authMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initStore(cfg *config.Config, logger *logrus.Logger) (store.Store, error) {
	if !cfg.UseDynamoDB() {
		logger.WithField("dir", cfg.Storage.Dir).Info("Using local JSON record store")
		return store.NewLocalStore(cfg.Storage.Dir, logger)
	}

	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.WithField("table", cfg.DynamoDB.TableName).Info("Using DynamoDB record store")
	return store.NewDynamoStore(client, cfg.DynamoDB.TableName, logger), nil
}

func initProvider(cfg *config.Config, logger *logrus.Logger) (auth.IdentityProvider, error) {
	if !cfg.UseCognito() {
		logger.Info("Using local identity provider")
		return auth.NewLocalProvider([]byte(cfg.LocalAuth.TokenSecret), cfg.LocalAuth.TokenExpiry, logger), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Cognito.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := cognitoidentityprovider.NewFromConfig(awsCfg)
	logger.WithField("user_pool", cfg.Cognito.UserPoolID).Info("Using Cognito identity provider")
	return auth.NewCognitoProvider(client, cfg.Cognito.ClientID, logger), nil
}

func initLimiter(cfg *config.Config, logger *logrus.Logger) ratelimit.Limiter {
	fallback := ratelimit.Limit{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}

	if cfg.UseRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.WithField("endpoint", cfg.Redis.Endpoint).Info("Using Redis rate limiter")
		return ratelimit.NewRedisLimiter(client, nil, fallback, logger)
	}

	logger.Info("Using in-memory rate limiter")
	return ratelimit.NewMemoryLimiter(nil, fallback)
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	recordHandlers *handlers.RecordHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api/v1").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", authHandlers.Register).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/confirm", authHandlers.ConfirmSignUp).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/resend-code", authHandlers.ResendCode).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/forgot-password", authHandlers.ForgotPassword).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/reset-password", authHandlers.ResetPassword).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/auth/logout", authHandlers.Logout).Methods("POST")
	protected.HandleFunc("/me", authHandlers.Me).Methods("GET")

	protected.HandleFunc("/trustees", recordHandlers.CreateTrustee).Methods("POST")
	protected.HandleFunc("/trustees", recordHandlers.ListTrustees).Methods("GET")
	protected.HandleFunc("/trustees/{id}/trigger", recordHandlers.TriggerTrustee).Methods("POST")

	protected.HandleFunc("/messages", recordHandlers.CreateMessage).Methods("POST")
	protected.HandleFunc("/messages", recordHandlers.ListMessages).Methods("GET")

	protected.HandleFunc("/assets", recordHandlers.CreateAsset).Methods("POST")
	protected.HandleFunc("/assets", recordHandlers.ListAssets).Methods("GET")

	protected.HandleFunc("/last-wishes", recordHandlers.PutLastWishes).Methods("PUT")
	protected.HandleFunc("/last-wishes", recordHandlers.GetLastWishes).Methods("GET")

	return router
}
