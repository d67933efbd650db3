package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/derive"
	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/store"
	"github.com/linguahub/institute-api/pkg/config"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

// DashboardSummary is the tenant overview served to the landing screen. The
// financial block is omitted from responses to non-admin principals.
type DashboardSummary struct {
	StudentCount      int                       `json:"student_count"`
	CourseCount       int                       `json:"course_count"`
	ActiveEnrollments int                       `json:"active_enrollments"`
	ExpiringSoon      []models.EnrollmentDetail `json:"expiring_soon"`
	Payments          *models.PaymentSummary    `json:"payments,omitempty"`
	GeneratedAt       time.Time                 `json:"generated_at"`
}

// DashboardService computes the tenant overview from store snapshots, with a
// short Redis cache in front. A nil Redis client disables caching. The first
// summary for a tenant starts a watcher that drops the cached overview
// whenever one of the tenant's collections refreshes; Close stops every
// watcher on shutdown.
type DashboardService struct {
	stores    *store.Set
	redis     *redis.Client
	cfg       config.DashboardConfig
	logger    *zap.Logger
	now       func() time.Time
	onRefresh func(collection string)

	watchCtx  context.Context
	stopWatch context.CancelFunc
	watchers  sync.WaitGroup

	mu      sync.Mutex
	watched map[string]bool
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(stores *store.Set, redisClient *redis.Client, cfg config.DashboardConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ExpiringInDays <= 0 {
		cfg.ExpiringInDays = derive.DefaultExpiringThresholdDays
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	return &DashboardService{
		stores:    stores,
		redis:     redisClient,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		watchCtx:  watchCtx,
		stopWatch: stopWatch,
		watched:   make(map[string]bool),
	}
}

// SetRefreshObserver is called with the collection name on every watched store
// refresh, on top of the cache drop. Used for metrics.
func (s *DashboardService) SetRefreshObserver(fn func(collection string)) {
	s.onRefresh = fn
}

// Summary returns the tenant overview, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context, institutionID string) (*DashboardSummary, error) {
	key := fmt.Sprintf("dashboard:%s", institutionID)
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var cached DashboardSummary
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard data")
	}
	s.ensureWatcher(institutionID, reg)

	now := s.now()
	enrollments := reg.Enrollments.Snapshot()
	students := reg.Students.Snapshot()
	courses := reg.Courses.Snapshot()

	active := 0
	for _, e := range enrollments {
		if derive.EffectiveStatus(e, now) == models.EnrollmentStatusActive {
			active++
		}
	}

	totals := derive.PaymentTotals(reg.Payments.Snapshot(), now)
	summary := &DashboardSummary{
		StudentCount:      len(students),
		CourseCount:       len(courses),
		ActiveEnrollments: active,
		ExpiringSoon:      derive.ExpiringEnrollments(enrollments, students, courses, now, s.cfg.ExpiringInDays),
		Payments:          &totals,
		GeneratedAt:       now.UTC(),
	}

	if s.redis != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, key, raw, s.cfg.CacheTTL).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

func (s *DashboardService) ensureWatcher(institutionID string, reg *store.Registry) {
	s.mu.Lock()
	if s.watched[institutionID] {
		s.mu.Unlock()
		return
	}
	s.watched[institutionID] = true
	s.mu.Unlock()

	s.watchers.Add(1)
	go func() {
		defer s.watchers.Done()
		reg.Watch(s.watchCtx, func(collection string) {
			s.InvalidateCache(context.Background(), institutionID)
			if s.onRefresh != nil {
				s.onRefresh(collection)
			}
		})
	}()
}

// Close stops every tenant watcher and waits for them to exit.
func (s *DashboardService) Close() {
	s.stopWatch()
	s.watchers.Wait()
}

// InvalidateCache drops the cached overview for a tenant.
func (s *DashboardService) InvalidateCache(ctx context.Context, institutionID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, fmt.Sprintf("dashboard:%s", institutionID)).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}
