package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zainiii163/tearence-backend-sub004/internal/api/handlers"
	"github.com/zainiii163/tearence-backend-sub004/internal/api/middleware"
	"github.com/zainiii163/tearence-backend-sub004/internal/auth"
	"github.com/zainiii163/tearence-backend-sub004/internal/config"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
	"github.com/zainiii163/tearence-backend-sub004/internal/storage"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

// IAsynqClient is the subset of asynq.Client used by the service API.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SetupRouter configures and returns the main Gin engine. reportStore may be nil.
func SetupRouter(ctx context.Context, cfg *config.Config, db *mongo.Database, configSvc services.IConfigService, jobs handlers.IJobRunner, reportStore storage.IReportStore) *gin.Engine {
	listingRepo := repositories.NewListingRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)

	customerService := services.NewCustomerService(customerRepo)
	referralService := services.NewReferralService(referralRepo, customerRepo, configSvc, cfg.ReferralCodeLength)
	listingService := services.NewListingService(listingRepo, customerRepo, invoiceRepo, referralService)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg.RateLimitBucketSize, cfg.RateLimitRefillRate)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	configHandler := handlers.NewConfigHandler(configSvc)
	customerHandler := handlers.NewCustomerHandler(customerService)
	listingHandler := handlers.NewListingHandler(listingService)
	referralHandler := handlers.NewReferralHandler(referralService)
	adminHandler := handlers.NewAdminHandler(jobs, listingService, reportStore)

	v1 := r.Group("/v1")
	{
		v1.GET("/config", configHandler.GetPublicConfig)
		v1.GET("/listings/:id", listingHandler.GetListingByID)
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/customers/me", customerHandler.GetMe)
			authRequired.PUT("/customers/me", customerHandler.UpdateMe)

			authRequired.POST("/listings", listingHandler.CreateListing)
			authRequired.POST("/listings/:id/checkout", listingHandler.Checkout)
			authRequired.GET("/invoices", listingHandler.GetInvoices)

			authRequired.POST("/referrals/register", referralHandler.Register)
			authRequired.GET("/referrals/code", referralHandler.GetCode)
			authRequired.GET("/referrals/discounts", referralHandler.GetDiscounts)
			authRequired.GET("/referrals/stats", referralHandler.GetStats)
		}

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/moderation/scan", adminHandler.ScanHarmful)
			adminRequired.POST("/moderation/enforce", adminHandler.EnforceHarmful)
			adminRequired.POST("/cleanup", adminHandler.DeleteOldListings)
			adminRequired.POST("/listings/:id/approval", adminHandler.SetApprovalStatus)
			adminRequired.PUT("/config/:key", configHandler.SetConfigValue)
		}
	}

	return r
}

type enqueueArgs struct {
	Type    string `json:"type"`
	Enforce bool   `json:"enforce"`
	Days    int    `json:"days"`
}

type issueTokenArgs struct {
	CustomerID string `json:"customer_id"`
	IsAdmin    bool   `json:"is_admin"`
}

// SetupServiceRouter configures the internal service engine. It is meant to
// listen on a private port only. issueToken is how the identity provider in
// front of this service mints customer tokens; an empty customer_id allocates
// a new customer id.
func SetupServiceRouter(cfg *config.Config, taskClient IAsynqClient, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			logger.Info("Received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logger.Warn("Shutdown channel already signaled")
			}

		case "issueToken":
			var args issueTokenArgs
			if len(req.Arguments) > 0 {
				if err := json.Unmarshal(req.Arguments, &args); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected {customer_id, is_admin}"})
					return
				}
			}
			customerID := primitive.NewObjectID()
			if args.CustomerID != "" {
				var err error
				if customerID, err = primitive.ObjectIDFromHex(args.CustomerID); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid customer_id"})
					return
				}
			}
			token, err := auth.GenerateJWT(customerID, args.IsAdmin, cfg.JwtSecret, cfg.JwtTTL)
			if err != nil {
				logger.Error("Service API: failed to issue token", "customer_id", customerID.Hex(), "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
				return
			}
			logger.Info("Service API: issued token", "customer_id", customerID.Hex(), "is_admin", args.IsAdmin)
			c.JSON(http.StatusOK, gin.H{"success": true, "result": gin.H{"token": token, "customer_id": customerID.Hex(), "expires_in": int(cfg.JwtTTL.Seconds())}})

		case "enqueue":
			var args enqueueArgs
			if err := json.Unmarshal(req.Arguments, &args); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected {type, enforce, days}"})
				return
			}
			var task *asynq.Task
			var err error
			switch args.Type {
			case tasks.TypeModerateHarmful:
				task, err = tasks.NewModerationTask(args.Enforce)
			case tasks.TypeDeleteOldAds:
				if args.Days < 0 {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "days must not be negative"})
					return
				}
				task, err = tasks.NewCleanupTask(args.Days)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Unknown task type: %s", args.Type)})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
				return
			}
			info, err := taskClient.EnqueueContext(c.Request.Context(), task)
			if err != nil {
				logger.Error("Service API: failed to enqueue task", "type", args.Type, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to enqueue task"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": gin.H{"id": info.ID, "queue": info.Queue}})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
