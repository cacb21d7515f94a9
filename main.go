package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easypro/config"
	"easypro/database"
	orderRepoPkg "easypro/database/repository/order"
	resourceRepoPkg "easypro/database/repository/resource"
	reviewRepoPkg "easypro/database/repository/review"
	userRepoPkg "easypro/database/repository/user"
	writerRepoPkg "easypro/database/repository/writer"
	"easypro/handlers"
	"easypro/routes"
	orderSvc "easypro/services/order"
	resourceSvc "easypro/services/resource"
	reviewSvc "easypro/services/review"
	userSvc "easypro/services/user"
	writerSvc "easypro/services/writer"
	"easypro/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitAuthCache()
	utils.StartHealthMonitor(utils.GetAuthCacheClient(), database.MongoClient)

	storageService, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	// Indexes back the uniqueness and lookup guarantees; fail fast if they
	// cannot be created.
	for _, ensure := range []func() error{
		writerRepoPkg.EnsureWriterIndexes,
		orderRepoPkg.EnsureOrderIndexes,
		reviewRepoPkg.EnsureReviewIndexes,
		userRepoPkg.EnsureUserIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure indexes: %v", err)
		}
	}

	// Repositories.
	writerRepo := writerRepoPkg.NewMongoWriterRepo()
	orderRepo := orderRepoPkg.NewMongoOrderRepo()
	reviewRepo := reviewRepoPkg.NewMongoReviewRepo()
	resourceRepo := resourceRepoPkg.NewMongoResourceRepo()
	userRepo := userRepoPkg.NewMongoUserRepo()

	// Services.
	orderService := orderSvc.NewOrderService(orderRepo, reviewRepo, storageService)
	writerService := writerSvc.NewWriterService(writerRepo, reviewRepo)
	reviewService := reviewSvc.NewReviewService(reviewRepo, orderRepo, writerRepo)
	resourceService := resourceSvc.NewResourceService(resourceRepo, storageService)
	userService := userSvc.NewUserService(userRepo)

	// Handlers.
	handlerBundle := &handlers.HandlerBundle{
		User:     handlers.NewUserHandler(userService),
		Writer:   handlers.NewWriterHandler(writerService),
		Order:    handlers.NewOrderHandler(orderService, storageService),
		Review:   handlers.NewReviewHandler(reviewService),
		Resource: handlers.NewResourceHandler(resourceService),
		Storage:  handlers.NewStorageHandler(storageService),
	}

	router := routes.SetupRouter(handlerBundle, config.AppConfig.MaxRequestsPerMin)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
