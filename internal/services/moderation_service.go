package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/moderation"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
)

// ModerationFinding is one listing the scanner considers potentially harmful.
type ModerationFinding struct {
	ListingID primitive.ObjectID `json:"listing_id"`
	Title     string             `json:"title"`
	Score     int                `json:"score"`
	Reason    string             `json:"reason"`
	Enforced  bool               `json:"enforced"`
}

// ModerationSummary reports one moderation run.
type ModerationSummary struct {
	Enforce    bool                `json:"enforce"`
	Scanned    int                 `json:"scanned"`
	Flagged    int                 `json:"flagged"`
	Enforced   int                 `json:"enforced"`
	Failed     int                 `json:"failed"`
	Findings   []ModerationFinding `json:"findings"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// IModerationService scans listings that are not yet flagged.
type IModerationService interface {
	// Scan reports potentially harmful listings without changing them.
	Scan(ctx context.Context) (*ModerationSummary, error)
	// Enforce flags and deactivates every potentially harmful listing.
	Enforce(ctx context.Context) (*ModerationSummary, error)
}

type moderationService struct {
	listings      repositories.IListingRepository
	configService IConfigService
}

func NewModerationService(listings repositories.IListingRepository, configService IConfigService) IModerationService {
	return &moderationService{listings: listings, configService: configService}
}

func (s *moderationService) Scan(ctx context.Context) (*ModerationSummary, error) {
	return s.run(ctx, false)
}

func (s *moderationService) Enforce(ctx context.Context) (*ModerationSummary, error) {
	return s.run(ctx, true)
}

// scanner is rebuilt per run so keyword changes apply without a restart.
func (s *moderationService) scanner(ctx context.Context) *moderation.Scanner {
	keywords := s.configService.GetStringSlice(ctx, ConfigKeyModerationKeywords, moderation.DefaultKeywords)
	return moderation.NewScanner(keywords)
}

func (s *moderationService) run(ctx context.Context, enforce bool) (*ModerationSummary, error) {
	log := logger.FromContext(ctx).With("enforce", enforce)
	summary := &ModerationSummary{
		Enforce:   enforce,
		Findings:  []ModerationFinding{},
		StartedAt: time.Now().UTC(),
	}

	listings, err := s.listings.FindByHarmfulFlag(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings for moderation: %w", err)
	}

	scanner := s.scanner(ctx)
	for _, listing := range listings {
		summary.Scanned++

		assessment := scanner.Assess(listing.Title, listing.Description)
		if !assessment.Harmful() {
			continue
		}
		summary.Flagged++

		finding := ModerationFinding{
			ListingID: listing.ID,
			Title:     listing.Title,
			Score:     assessment.Score,
			Reason:    assessment.Reason(),
		}
		log.Info("potentially harmful listing",
			"listing_id", listing.ID.Hex(), "title", listing.Title,
			"score", finding.Score, "reason", finding.Reason)

		if enforce {
			err := s.listings.MarkAsHarmful(ctx, listing.ID, finding.Reason)
			switch {
			case err == nil:
				finding.Enforced = true
				summary.Enforced++
			case errors.Is(err, repositories.ErrAlreadyFlagged), errors.Is(err, repositories.ErrNotFound):
				log.Info("listing changed during scan, skipping", "listing_id", listing.ID.Hex(), "error", err)
			default:
				summary.Failed++
				log.Error("failed to mark listing as harmful", "listing_id", listing.ID.Hex(), "error", err)
			}
		}
		summary.Findings = append(summary.Findings, finding)
	}

	summary.FinishedAt = time.Now().UTC()
	log.Info("moderation run finished",
		"scanned", summary.Scanned, "flagged", summary.Flagged,
		"enforced", summary.Enforced, "failed", summary.Failed)
	return summary, nil
}
