package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
	"github.com/zainiii163/tearence-backend-sub004/internal/storage"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

// IJobRunner runs the batch jobs synchronously.
type IJobRunner interface {
	RunModeration(ctx context.Context, enforce bool) (*tasks.ModerationRun, error)
	RunCleanup(ctx context.Context, days int) (*tasks.CleanupRun, error)
}

// AdminHandler exposes moderation, cleanup and approval to administrators.
type AdminHandler struct {
	jobs           IJobRunner
	listingService services.IListingService
	reportStore    storage.IReportStore
}

// NewAdminHandler creates an AdminHandler. reportStore may be nil.
func NewAdminHandler(jobs IJobRunner, listingService services.IListingService, reportStore storage.IReportStore) *AdminHandler {
	return &AdminHandler{jobs: jobs, listingService: listingService, reportStore: reportStore}
}

// ScanHarmful reports flaggable listings without changing them.
// Handles POST /v1/admin/moderation/scan
func (h *AdminHandler) ScanHarmful(c *gin.Context) {
	h.runModeration(c, false)
}

// EnforceHarmful flags and deactivates harmful listings.
// Handles POST /v1/admin/moderation/enforce
func (h *AdminHandler) EnforceHarmful(c *gin.Context) {
	h.runModeration(c, true)
}

func (h *AdminHandler) runModeration(c *gin.Context, enforce bool) {
	run, err := h.jobs.RunModeration(c.Request.Context(), enforce)
	if err != nil {
		respondError(c, err, "Moderation run failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": run, "report_url": h.reportURL(c.Request.Context(), run.ReportKey)})
}

// DeleteOldListings removes listings older than ?days (default from config).
// Handles POST /v1/admin/cleanup
func (h *AdminHandler) DeleteOldListings(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = n
	}

	run, err := h.jobs.RunCleanup(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, "Cleanup run failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": run, "report_url": h.reportURL(c.Request.Context(), run.ReportKey)})
}

type approvalRequest struct {
	Status models.ApprovalStatus `json:"status" binding:"required"`
}

// SetApprovalStatus approves or rejects a listing.
// Handles POST /v1/admin/listings/:id/approval
func (h *AdminHandler) SetApprovalStatus(c *gin.Context) {
	listingID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.SetApprovalStatus(c.Request.Context(), listingID, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update approval status")
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *AdminHandler) reportURL(ctx context.Context, key string) string {
	if h.reportStore == nil || key == "" {
		return ""
	}
	url, err := h.reportStore.PresignReportURL(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to presign report url", "key", key, "error", err)
		return ""
	}
	return url
}
