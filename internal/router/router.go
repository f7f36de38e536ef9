package router

import (
	"context"
	"math/rand"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/wordmate-app/backend/internal/handlers"
	"github.com/wordmate-app/backend/internal/middleware"
	"github.com/wordmate-app/backend/internal/repositories"
	"github.com/wordmate-app/backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, mongoDB *mongo.Database, redisClient *redis.Client, firebaseAuthClient *auth.Client, sessionTTL time.Duration, logger *zap.Logger) {
	if err := ensureIndexes(mongoDB); err != nil {
		logger.Fatal("failed to ensure MongoDB indexes", zap.Error(err))
	}
	logger.Info("MongoDB indexes ensured")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(mongoDB)
	friendshipRepo := repositories.NewMongoFriendshipRepository(mongoDB)
	inviteRepo := repositories.NewMongoInviteRepository(mongoDB)
	gameRepo := repositories.NewMongoGameRepository(mongoDB)
	tweetRepo := repositories.NewMongoTweetRepository(mongoDB)
	presenceRepo := repositories.NewRedisPresenceRepository(redisClient, sessionTTL, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- Initialize Services ---
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	friendService := services.NewFriendService(userRepo, friendshipRepo, logger)
	recommendService := services.NewRecommendService(userRepo, cacheRepo, rng, logger)
	coordinator := services.NewCoordinator(inviteRepo, gameRepo, presenceRepo, logger)
	gameService := services.NewGameService(gameRepo, userRepo, rng, logger)
	timelineService := services.NewTimelineService(tweetRepo, userRepo, cacheRepo, logger)

	// --- Protected routes (require Firebase authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient))

	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(api)

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)

	friendshipHandler := handlers.NewFriendshipHandler(friendService, userRepo, presenceRepo)
	friendshipHandler.RegisterFriendshipRoutes(api)

	recommendationHandler := handlers.NewRecommendationHandler(recommendService)
	recommendationHandler.RegisterRecommendationRoutes(api)

	presenceHandler := handlers.NewPresenceHandler(presenceRepo)
	presenceHandler.RegisterPresenceRoutes(api)

	inviteHandler := handlers.NewInviteHandler(coordinator)
	inviteHandler.RegisterInviteRoutes(api)

	gameHandler := handlers.NewGameHandler(gameService, inviteRepo)
	gameHandler.RegisterGameRoutes(api)

	feedHandler := handlers.NewFeedHandler(timelineService)
	feedHandler.RegisterFeedRoutes(api)

	logger.Info("All routes configured.")
}

// ensureIndexes creates the indexes the queries rely on. Replaces the
// relational migration step: document shape is enforced by code, only the
// lookups need index support.
func ensureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("friendRequests").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("gameInvites").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "game_id", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("tweetActivity").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}
