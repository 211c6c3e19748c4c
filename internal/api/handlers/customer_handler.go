package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zainiii163/tearence-backend-sub004/internal/services"
)

// CustomerHandler handles REST requests for the authenticated customer's profile.
type CustomerHandler struct {
	customerService services.ICustomerService
}

func NewCustomerHandler(customerService services.ICustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

type updateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}

// GetMe handles GET /v1/customers/me
func (h *CustomerHandler) GetMe(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	customer, err := h.customerService.GetProfile(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateMe creates or updates the profile keyed by the token's customer id.
// Handles PUT /v1/customers/me
func (h *CustomerHandler) UpdateMe(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	customer, err := h.customerService.UpdateProfile(c.Request.Context(), customerID, req.Name, req.Email)
	if err != nil {
		respondError(c, err, "Failed to save profile")
		return
	}
	c.JSON(http.StatusOK, customer)
}
