package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/zainiii163/tearence-backend-sub004/internal/cache"
	"github.com/zainiii163/tearence-backend-sub004/internal/config"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
	"github.com/zainiii163/tearence-backend-sub004/internal/storage"
)

// Task types double as CLI command names.
const (
	TypeModerateHarmful = "ads:moderate-harmful"
	TypeDeleteOldAds    = "ads:delete-old"
)

const defaultJobLockTTL = time.Hour

// ErrJobRunning is returned when another run of the same job holds the lock.
var ErrJobRunning = errors.New("job is already running")

// ModerationTaskPayload parameterises TypeModerateHarmful.
type ModerationTaskPayload struct {
	Enforce bool `json:"enforce"`
}

// CleanupTaskPayload parameterises TypeDeleteOldAds. Zero days means the configured default.
type CleanupTaskPayload struct {
	Days int `json:"days,omitempty"`
}

func NewModerationTask(enforce bool) (*asynq.Task, error) {
	payload, err := json.Marshal(ModerationTaskPayload{Enforce: enforce})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeModerateHarmful, payload), nil
}

func NewCleanupTask(days int) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupTaskPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeleteOldAds, payload), nil
}

// --- Task Client (Enqueuing tasks) ---

func redisClientOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisClientOpt(rdb))
}

// --- Task Server (Processing tasks) ---

// ModerationRun is the outcome of one moderation job run.
type ModerationRun struct {
	RunID     string `json:"run_id"`
	ReportKey string `json:"report_key,omitempty"`
	*services.ModerationSummary
}

// CleanupRun is the outcome of one cleanup job run.
type CleanupRun struct {
	RunID     string `json:"run_id"`
	ReportKey string `json:"report_key,omitempty"`
	*services.CleanupSummary
}

// TaskProcessor runs the batch jobs for the worker, the CLI and the admin API.
// Runs of the same job never overlap while a locker is configured.
type TaskProcessor struct {
	cfg               *config.Config
	moderationService services.IModerationService
	cleanupService    services.ICleanupService
	locker            cache.JobLocker
	reportStore       storage.IReportStore
}

// NewTaskProcessor wires the job dependencies. locker and reportStore are optional.
func NewTaskProcessor(
	cfg *config.Config,
	moderationService services.IModerationService,
	cleanupService services.ICleanupService,
	locker cache.JobLocker,
	reportStore storage.IReportStore,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:               cfg,
		moderationService: moderationService,
		cleanupService:    cleanupService,
		locker:            locker,
		reportStore:       reportStore,
	}
}

// SetupServer configures an Asynq server and its handler mux. The caller starts it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisClientOpt(rdb),
		asynq.Config{
			// Batch jobs are serialised by the job lock anyway.
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeModerateHarmful, processor.HandleModerateHarmfulTask)
	mux.HandleFunc(TypeDeleteOldAds, processor.HandleDeleteOldAdsTask)
	logger.Info("registered background task handlers", "types", []string{TypeModerateHarmful, TypeDeleteOldAds})

	return srv, mux
}

// NewScheduler registers the periodic jobs: enforcing moderation and age cleanup.
func NewScheduler(rdb *redis.Client, cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisClientOpt(rdb), &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	uniqueFor := cfg.JobLockTTL
	if uniqueFor <= 0 {
		uniqueFor = defaultJobLockTTL
	}

	moderationTask, err := NewModerationTask(true)
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.ModerationCron, moderationTask, asynq.Unique(uniqueFor)); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", TypeModerateHarmful, err)
	}

	cleanupTask, err := NewCleanupTask(0)
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.CleanupCron, cleanupTask, asynq.Unique(uniqueFor)); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", TypeDeleteOldAds, err)
	}

	logger.Info("scheduled periodic jobs",
		TypeModerateHarmful, cfg.ModerationCron, TypeDeleteOldAds, cfg.CleanupCron)
	return scheduler, nil
}

// --- Job runs ---

// withJobLock runs fn under the named job lock, tagging ctx with a fresh run id.
func (p *TaskProcessor) withJobLock(ctx context.Context, name string, fn func(ctx context.Context, runID string) error) error {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	if p.locker != nil {
		ttl := defaultJobLockTTL
		if p.cfg != nil && p.cfg.JobLockTTL > 0 {
			ttl = p.cfg.JobLockTTL
		}
		release, err := p.locker.Acquire(ctx, "job:"+name, ttl)
		if err != nil {
			if errors.Is(err, cache.ErrLockHeld) {
				return ErrJobRunning
			}
			return err
		}
		defer release()
	}

	return fn(ctx, runID)
}

// archive uploads a run report when a report store is configured. Failures are logged only.
func (p *TaskProcessor) archive(ctx context.Context, kind, runID string, report any) string {
	if p.reportStore == nil {
		return ""
	}
	key, err := p.reportStore.UploadReport(ctx, kind, runID, report)
	if err != nil {
		logger.FromContext(ctx).Error("failed to archive report", "kind", kind, "error", err)
		return ""
	}
	return key
}

// RunModeration scans (or enforces) listings under the moderation job lock.
func (p *TaskProcessor) RunModeration(ctx context.Context, enforce bool) (*ModerationRun, error) {
	var run *ModerationRun
	err := p.withJobLock(ctx, TypeModerateHarmful, func(ctx context.Context, runID string) error {
		var summary *services.ModerationSummary
		var err error
		if enforce {
			summary, err = p.moderationService.Enforce(ctx)
		} else {
			summary, err = p.moderationService.Scan(ctx)
		}
		if err != nil {
			return err
		}
		run = &ModerationRun{RunID: runID, ModerationSummary: summary}
		run.ReportKey = p.archive(ctx, TypeModerateHarmful, runID, run)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// RunCleanup deletes old listings under the cleanup job lock. days <= 0 uses the configured default.
func (p *TaskProcessor) RunCleanup(ctx context.Context, days int) (*CleanupRun, error) {
	var run *CleanupRun
	err := p.withJobLock(ctx, TypeDeleteOldAds, func(ctx context.Context, runID string) error {
		if days <= 0 {
			days = p.cleanupService.DefaultDays(ctx)
		}
		summary, err := p.cleanupService.DeleteOldListings(ctx, days)
		if err != nil {
			return err
		}
		run = &CleanupRun{RunID: runID, CleanupSummary: summary}
		run.ReportKey = p.archive(ctx, TypeDeleteOldAds, runID, run)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// --- Task Handlers ---

func (p *TaskProcessor) HandleModerateHarmfulTask(ctx context.Context, t *asynq.Task) error {
	var payload ModerationTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal moderation task payload: %v: %w", err, asynq.SkipRetry)
	}

	_, err := p.RunModeration(ctx, payload.Enforce)
	if errors.Is(err, ErrJobRunning) {
		logger.Info("moderation already running, skipping", "type", t.Type())
		return nil
	}
	return err
}

func (p *TaskProcessor) HandleDeleteOldAdsTask(ctx context.Context, t *asynq.Task) error {
	var payload CleanupTaskPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal cleanup task payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Days < 0 {
		return fmt.Errorf("invalid cleanup threshold %d: %w", payload.Days, asynq.SkipRetry)
	}

	_, err := p.RunCleanup(ctx, payload.Days)
	if errors.Is(err, ErrJobRunning) {
		logger.Info("cleanup already running, skipping", "type", t.Type())
		return nil
	}
	return err
}
