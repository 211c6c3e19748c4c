package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zainiii163/tearence-backend-sub004/internal/cache"
	"github.com/zainiii163/tearence-backend-sub004/internal/config"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

// --- Mocks ---

type MockModerationService struct {
	mock.Mock
}

func (m *MockModerationService) Scan(ctx context.Context) (*services.ModerationSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ModerationSummary), args.Error(1)
}

func (m *MockModerationService) Enforce(ctx context.Context) (*services.ModerationSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ModerationSummary), args.Error(1)
}

type MockCleanupService struct {
	mock.Mock
}

func (m *MockCleanupService) DeleteOldListings(ctx context.Context, days int) (*services.CleanupSummary, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CleanupSummary), args.Error(1)
}

func (m *MockCleanupService) DefaultDays(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

// fakeLocker hands out each lock once until released.
type fakeLocker struct {
	held     map[string]bool
	acquired []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if l.held[name] {
		return nil, cache.ErrLockHeld
	}
	l.held[name] = true
	l.acquired = append(l.acquired, name)
	return func() { delete(l.held, name) }, nil
}

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) UploadReport(ctx context.Context, kind, runID string, report any) (string, error) {
	args := m.Called(ctx, kind, runID, report)
	return args.String(0), args.Error(1)
}

func (m *MockReportStore) PresignReportURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// --- Tests ---

func testConfig() *config.Config {
	return &config.Config{JobLockTTL: time.Minute, ModerationCron: "0 */6 * * *", CleanupCron: "0 0 * * *"}
}

func TestHandleModerateHarmfulTask_Enforce(t *testing.T) {
	moderation := new(MockModerationService)
	locker := newFakeLocker()
	p := tasks.NewTaskProcessor(testConfig(), moderation, nil, locker, nil)

	moderation.On("Enforce", mock.MatchedBy(func(ctx context.Context) bool {
		return logger.GetRunID(ctx) != ""
	})).Return(&services.ModerationSummary{Enforce: true, Scanned: 4, Flagged: 1, Enforced: 1}, nil)

	task, err := tasks.NewModerationTask(true)
	require.NoError(t, err)

	err = p.HandleModerateHarmfulTask(context.Background(), task)
	assert.NoError(t, err)
	moderation.AssertExpectations(t)
	moderation.AssertNotCalled(t, "Scan", mock.Anything)
	assert.Equal(t, []string{"job:" + tasks.TypeModerateHarmful}, locker.acquired)
	assert.Empty(t, locker.held, "lock must be released after the run")
}

func TestHandleModerateHarmfulTask_SkipsWhenLocked(t *testing.T) {
	moderation := new(MockModerationService)
	locker := newFakeLocker()
	locker.held["job:"+tasks.TypeModerateHarmful] = true
	p := tasks.NewTaskProcessor(testConfig(), moderation, nil, locker, nil)

	task, _ := tasks.NewModerationTask(true)
	err := p.HandleModerateHarmfulTask(context.Background(), task)
	assert.NoError(t, err)
	moderation.AssertNotCalled(t, "Enforce", mock.Anything)

	_, err = p.RunModeration(context.Background(), false)
	assert.ErrorIs(t, err, tasks.ErrJobRunning)
}

func TestHandleModerateHarmfulTask_BadPayload(t *testing.T) {
	p := tasks.NewTaskProcessor(testConfig(), new(MockModerationService), nil, nil, nil)

	err := p.HandleModerateHarmfulTask(context.Background(), asynq.NewTask(tasks.TypeModerateHarmful, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleModerateHarmfulTask_ServiceErrorIsRetried(t *testing.T) {
	moderation := new(MockModerationService)
	locker := newFakeLocker()
	p := tasks.NewTaskProcessor(testConfig(), moderation, nil, locker, nil)
	moderation.On("Scan", mock.Anything).Return(nil, errors.New("mongo down"))

	task, _ := tasks.NewModerationTask(false)
	err := p.HandleModerateHarmfulTask(context.Background(), task)
	assert.ErrorContains(t, err, "mongo down")
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, locker.held)
}

func TestHandleDeleteOldAdsTask_DefaultDays(t *testing.T) {
	cleanup := new(MockCleanupService)
	reports := new(MockReportStore)
	p := tasks.NewTaskProcessor(testConfig(), nil, cleanup, newFakeLocker(), reports)

	summary := &services.CleanupSummary{Days: 21, Matched: 2, Deleted: 2, HarmfulDeleted: 1}
	cleanup.On("DefaultDays", mock.Anything).Return(21)
	cleanup.On("DeleteOldListings", mock.Anything, 21).Return(summary, nil)
	reports.On("UploadReport", mock.Anything, tasks.TypeDeleteOldAds, mock.AnythingOfType("string"), mock.Anything).
		Return("reports/ads:delete-old/x.json", nil)

	task, err := tasks.NewCleanupTask(0)
	require.NoError(t, err)
	assert.NoError(t, p.HandleDeleteOldAdsTask(context.Background(), task))
	cleanup.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestRunCleanup_ExplicitDaysAndReport(t *testing.T) {
	cleanup := new(MockCleanupService)
	reports := new(MockReportStore)
	p := tasks.NewTaskProcessor(testConfig(), nil, cleanup, nil, reports)

	cleanup.On("DeleteOldListings", mock.Anything, 7).Return(&services.CleanupSummary{Days: 7, Deleted: 3}, nil)
	reports.On("UploadReport", mock.Anything, tasks.TypeDeleteOldAds, mock.Anything, mock.Anything).Return("", errors.New("access denied"))

	run, err := p.RunCleanup(context.Background(), 7)
	require.NoError(t, err)
	assert.NotEmpty(t, run.RunID)
	assert.Empty(t, run.ReportKey, "archive failures do not fail the run")
	assert.Equal(t, 3, run.Deleted)
	cleanup.AssertNotCalled(t, "DefaultDays", mock.Anything)

	encoded, err := json.Marshal(run)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"deleted":3`)
	assert.Contains(t, string(encoded), `"run_id"`)
}

func TestHandleDeleteOldAdsTask_InvalidPayloads(t *testing.T) {
	p := tasks.NewTaskProcessor(testConfig(), nil, new(MockCleanupService), nil, nil)

	err := p.HandleDeleteOldAdsTask(context.Background(), asynq.NewTask(tasks.TypeDeleteOldAds, []byte(`{"days":"x"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = p.HandleDeleteOldAdsTask(context.Background(), asynq.NewTask(tasks.TypeDeleteOldAds, []byte(`{"days":-1}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNewModerationTask_Payload(t *testing.T) {
	task, err := tasks.NewModerationTask(true)
	require.NoError(t, err)
	assert.Equal(t, tasks.TypeModerateHarmful, task.Type())
	assert.JSONEq(t, `{"enforce":true}`, string(task.Payload()))

	task, err = tasks.NewCleanupTask(0)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(task.Payload()))
}
