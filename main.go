package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/BitBlock9310/BachelorBuddy/config"
	"github.com/BitBlock9310/BachelorBuddy/database"
	"github.com/BitBlock9310/BachelorBuddy/handlers"
	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage/postgres"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zlog, err := logger.New(config.AppConfig.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		zlog.Fatal("database connection failed", "error", err)
	}
	defer db.Close()

	if err := db.InitializeTables(); err != nil {
		zlog.Fatal("table initialization failed", "error", err)
	}

	store := postgres.New(db.DB)

	// When redis is configured, dedup tokens and message fan-out are
	// shared across replicas. Without it both stay in-process.
	var (
		dedup services.DedupStore = services.NewMemoryDedupStore()
		bus   services.MessageBus = services.NewMemoryBus()
	)
	if addr := config.AppConfig.RedisAddr; addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		dedup = services.NewRedisDedupStore(rdb)
		bus = services.NewRedisBus(rdb, zlog)
		zlog.Info("redis enabled", "addr", addr)
	}

	agg := services.NewAggregationService(store, zlog)
	matching := services.NewMatchingService(store, services.DefaultMatchWeights())
	sequencer := services.NewSequencer(store, dedup, bus, zlog)

	var uploads *services.CloudinaryService
	if url := config.AppConfig.CloudinaryURL; url != "" {
		uploads, err = services.NewCloudinaryService(url)
		if err != nil {
			zlog.Warn("cloudinary initialization failed, uploads disabled", "error", err)
		}
	}

	h := handlers.New(store, agg, matching, sequencer, bus, uploads, zlog)

	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Idempotency-Key"},
		AllowCredentials: true,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		api.GET("/listings", h.ListListings)
		api.GET("/listings/:id", h.GetListing)
		api.GET("/vendors", h.ListVendors)
		api.GET("/vendors/:id", h.GetVendor)
		api.GET("/reviews", h.ListReviews)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.GET("/posts/:id/comments", h.ListComments)
		api.GET("/profiles/:id", h.GetProfile)

		auth := api.Group("")
		auth.Use(handlers.AuthMiddleware())
		{
			auth.GET("/me", h.GetMe)
			auth.PUT("/me", h.UpdateMe)
			auth.PUT("/me/push-token", h.UpdatePushToken)
			auth.POST("/me/avatar", h.UploadAvatar)

			auth.POST("/listings", h.CreateListing)
			auth.PUT("/listings/:id", h.UpdateListing)
			auth.POST("/listings/images", h.UploadListingImage)

			auth.POST("/vendors", h.CreateVendor)
			auth.PUT("/vendors/:id", h.UpdateVendor)
			auth.POST("/vendors/images", h.UploadVendorImage)

			auth.POST("/reviews", h.CreateReview)
			auth.PUT("/reviews/:id", h.UpdateReview)
			auth.DELETE("/reviews/:id", h.DeleteReview)
			auth.POST("/reviews/images", h.UploadReviewImage)

			auth.PUT("/roommate-profile", h.UpsertRoommateProfile)
			auth.GET("/roommate-profile", h.GetRoommateProfile)
			auth.PATCH("/roommate-profile/active", h.SetRoommateActive)
			auth.GET("/roommate-matches", h.GetMatches)

			auth.POST("/rooms", h.CreateRoom)
			auth.GET("/rooms/:id", h.GetRoom)
			auth.POST("/rooms/:id/archive", h.ArchiveRoom)
			auth.POST("/rooms/:id/messages", h.SendMessage)
			auth.GET("/rooms/:id/messages", h.GetMessages)
			auth.GET("/rooms/:id/stream", h.StreamMessages)

			auth.POST("/posts", h.CreatePost)
			auth.POST("/posts/:id/vote", h.VotePost)
			auth.POST("/posts/:id/comments", h.CreateComment)
			auth.POST("/comments/:comment_id/vote", h.VoteComment)
		}
	}

	zlog.Info("server starting", "port", config.AppConfig.ServerPort)
	if err := http.ListenAndServe(":"+config.AppConfig.ServerPort, corsHandler.Handler(router)); err != nil {
		zlog.Fatal("server exited", "error", err)
	}
}
