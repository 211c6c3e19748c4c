package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zainiii163/tearence-backend-sub004/internal/services"
)

// ReferralHandler handles the customer-facing referral endpoints.
type ReferralHandler struct {
	referralService services.IReferralService
}

func NewReferralHandler(referralService services.IReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

type registerReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// Register redeems a referral code for the authenticated customer. An
// ineligible code is not an error; the response reports registered=false.
// Handles POST /v1/referrals/register
func (h *ReferralHandler) Register(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	var req registerReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	userReferral, err := h.referralService.Register(c.Request.Context(), customerID, req.Code)
	if err != nil {
		respondError(c, err, "Failed to register referral")
		return
	}
	if userReferral == nil {
		c.JSON(http.StatusOK, gin.H{"registered": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"registered": true, "data": userReferral})
}

// GetCode returns the customer's referral code, creating one on first use.
// Handles GET /v1/referrals/code
func (h *ReferralHandler) GetCode(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	referral, err := h.referralService.GetOrCreateReferral(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to get referral code")
		return
	}
	c.JSON(http.StatusOK, referral)
}

// GetDiscounts handles GET /v1/referrals/discounts
func (h *ReferralHandler) GetDiscounts(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	discounts, err := h.referralService.GetAvailableDiscounts(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to list discounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": discounts})
}

// GetStats handles GET /v1/referrals/stats
func (h *ReferralHandler) GetStats(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	stats, err := h.referralService.GetReferralStats(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to get referral stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
