package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
)

// DefaultAdMaxAgeDays is the cleanup threshold when none is configured.
const DefaultAdMaxAgeDays = 21

var ErrInvalidThreshold = errors.New("age threshold must be a positive number of days")

// CleanupSummary reports one cleanup run.
type CleanupSummary struct {
	Days           int       `json:"days"`
	Cutoff         time.Time `json:"cutoff"`
	Matched        int       `json:"matched"`
	Deleted        int       `json:"deleted"`
	HarmfulDeleted int       `json:"harmful_deleted"`
	Failed         int       `json:"failed"`
}

type ICleanupService interface {
	// DeleteOldListings hard-deletes listings created more than days ago.
	DeleteOldListings(ctx context.Context, days int) (*CleanupSummary, error)
	// DefaultDays is the configured threshold used by scheduled runs.
	DefaultDays(ctx context.Context) int
}

type cleanupService struct {
	listings      repositories.IListingRepository
	configService IConfigService
	now           func() time.Time
}

func NewCleanupService(listings repositories.IListingRepository, configService IConfigService) ICleanupService {
	return &cleanupService{listings: listings, configService: configService, now: time.Now}
}

func (s *cleanupService) DefaultDays(ctx context.Context) int {
	days := s.configService.GetInt(ctx, ConfigKeyAdMaxAgeDays, DefaultAdMaxAgeDays)
	if days <= 0 {
		return DefaultAdMaxAgeDays
	}
	return days
}

func (s *cleanupService) DeleteOldListings(ctx context.Context, days int) (*CleanupSummary, error) {
	if days <= 0 {
		return nil, ErrInvalidThreshold
	}

	log := logger.FromContext(ctx).With("days", days)
	summary := &CleanupSummary{
		Days:   days,
		Cutoff: s.now().UTC().AddDate(0, 0, -days),
	}

	listings, err := s.listings.FindOlderThan(ctx, summary.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings older than %d days: %w", days, err)
	}
	summary.Matched = len(listings)

	for _, listing := range listings {
		if listing.IsHarmful {
			log.Warn("deleting harmful listing",
				"listing_id", listing.ID.Hex(), "title", listing.Title, "reason", listing.HarmfulReason)
		} else {
			log.Info("deleting old listing",
				"listing_id", listing.ID.Hex(), "title", listing.Title, "created_at", listing.CreatedAt)
		}

		err := s.listings.Delete(ctx, listing.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// Removed by someone else since the query.
				continue
			}
			summary.Failed++
			log.Error("failed to delete listing", "listing_id", listing.ID.Hex(), "error", err)
			continue
		}

		summary.Deleted++
		if listing.IsHarmful {
			summary.HarmfulDeleted++
		}
	}

	log.Info("cleanup run finished",
		"matched", summary.Matched, "deleted", summary.Deleted,
		"harmful_deleted", summary.HarmfulDeleted, "failed", summary.Failed)
	return summary, nil
}
