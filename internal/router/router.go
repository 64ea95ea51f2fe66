// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/config"
	"github.com/lendigo/lendigo-backend/internal/handlers"
	"github.com/lendigo/lendigo-backend/internal/middleware"
	"github.com/lendigo/lendigo-backend/internal/services"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize core dependencies
	engine := authz.NewEngine()
	notificationService := services.NewNotificationService(cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage service")
	}

	// Initialize services
	authService := services.NewAuthService(db, cfg)
	loanService := services.NewLoanService(db, engine, notificationService)
	protocolService := services.NewProtocolService(db, engine, notificationService)
	itemService := services.NewItemService(db, engine, storageService)
	categoryService := services.NewCategoryService(db, engine)
	reviewService := services.NewReviewService(db, engine)
	userService := services.NewUserService(db, engine)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, notificationService)
	loanHandler := handlers.NewLoanHandler(loanService, protocolService)
	itemHandler := handlers.NewItemHandler(itemService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	userHandler := handlers.NewUserHandler(userService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Category routes
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories)
			categories.GET("/:id", categoryHandler.GetCategory)

			admin := categories.Group("")
			admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				admin.POST("", categoryHandler.CreateCategory)
				admin.PUT("/:id", categoryHandler.UpdateCategory)
				admin.DELETE("/:id", categoryHandler.DeleteCategory)
			}
		}

		// Item routes
		items := v1.Group("/items")
		{
			items.GET("", middleware.OptionalAuth(), itemHandler.SearchItems)
			items.GET("/:id", middleware.OptionalAuth(), itemHandler.GetItem)

			protected := items.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", itemHandler.CreateItem)
				protected.PATCH("/:id", itemHandler.UpdateItem)
				protected.DELETE("/:id", itemHandler.DeleteItem)
				protected.POST("/:id/images", middleware.UploadRateLimit(), itemHandler.UploadItemImage)
			}

			admin := items.Group("")
			admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				admin.POST("/:id/approve", itemHandler.ApproveItem)
				admin.POST("/:id/deny", itemHandler.DenyItem)
			}
		}

		// Loan routes. Transition endpoints do their own party checks; the
		// middleware only establishes the identity.
		loans := v1.Group("/loans")
		loans.Use(middleware.AuthRequired())
		{
			loans.POST("", loanHandler.CreateLoan)
			loans.GET("", loanHandler.SearchLoans)
			loans.GET("/:id", loanHandler.GetLoan)

			loans.POST("/:id/accept", loanHandler.AcceptLoan)
			loans.POST("/:id/deny", loanHandler.DenyLoan)
			loans.POST("/:id/cancel", loanHandler.CancelLoan)
			loans.POST("/:id/prepare-pickup", loanHandler.PrepareForPickup)
			loans.POST("/:id/prepare-return", loanHandler.PrepareForReturn)

			loans.POST("/:id/pickup-protocol", loanHandler.RequestPickupProtocol)
			loans.POST("/:id/pickup-protocol/confirm", loanHandler.ConfirmPickupProtocol)
			loans.POST("/:id/pickup-protocol/deny", loanHandler.DenyPickupProtocol)

			loans.POST("/:id/return-protocol", loanHandler.RequestReturnProtocol)
			loans.POST("/:id/return-protocol/confirm", loanHandler.ConfirmReturnProtocol)
			loans.POST("/:id/return-protocol/deny", loanHandler.DenyReturnProtocol)
		}

		// Review routes
		reviews := v1.Group("/reviews")
		{
			reviews.GET("/:id", reviewHandler.GetReview)

			protected := reviews.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", reviewHandler.CreateReview)
				protected.PATCH("/:id", reviewHandler.UpdateReview)
				protected.DELETE("/:id", reviewHandler.DeleteReview)
			}
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id/profile", userHandler.GetProfile)
			users.GET("/:id/reviews", reviewHandler.ListReviewsForUser)
			users.GET("/:id", middleware.AuthRequired(), userHandler.GetUser)
			users.PATCH("/:id/profile", middleware.AuthRequired(), userHandler.UpdateProfile)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.PUT("/users/:id/status", userHandler.SetUserStatus)
		}
	}

	return r
}
