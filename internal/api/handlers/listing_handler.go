package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
)

// ListingHandler handles REST requests for listings.
type ListingHandler struct {
	listingService services.IListingService
}

func NewListingHandler(listingService services.IListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

type createListingRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Type        models.ListingType `json:"listing_type"`
	Price       float64            `json:"price"`
}

// CreateListing handles POST /v1/listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), customerID, req.Title, req.Description, req.Type, req.Price)
	if err != nil {
		respondError(c, err, "Failed to create listing")
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// GetListingByID handles GET /v1/listings/:id
func (h *ListingHandler) GetListingByID(c *gin.Context) {
	listingID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err, "Failed to retrieve listing")
		return
	}
	c.JSON(http.StatusOK, listing)
}

type checkoutRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

// Checkout prices a purchase, consuming a referral discount when one applies,
// and responds with the issued invoice.
// Handles POST /v1/listings/:id/checkout
func (h *ListingHandler) Checkout(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	listingID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	invoice, err := h.listingService.Checkout(c.Request.Context(), customerID, listingID, *req.Price)
	if err != nil {
		respondError(c, err, "Checkout failed")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// GetInvoices handles GET /v1/invoices
func (h *ListingHandler) GetInvoices(c *gin.Context) {
	customerID, ok := requireCustomer(c)
	if !ok {
		return
	}
	invoices, err := h.listingService.FindInvoices(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to retrieve invoices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}
