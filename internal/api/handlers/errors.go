package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/api/middleware"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

// respondError maps service errors to HTTP statuses. Unknown errors are
// attached to the context and reported as 500 with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidListing),
		errors.Is(err, services.ErrInvalidApprovalStatus),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidThreshold),
		errors.Is(err, services.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotListingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, tasks.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// requireCustomer returns the authenticated customer or aborts with 401.
func requireCustomer(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.CustomerIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return id, ok
}

func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return primitive.NilObjectID, false
	}
	return id, true
}
