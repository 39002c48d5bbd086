package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/employee"
	employeeerrors "github.com/himanshukumarraut/Leave-It/internal/employee/errors"
	"github.com/himanshukumarraut/Leave-It/internal/events"
	leaveerrors "github.com/himanshukumarraut/Leave-It/internal/leave/errors"
	"github.com/himanshukumarraut/Leave-It/internal/messaging/kafka"
	"github.com/himanshukumarraut/Leave-It/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	EmployeeLeavesKeyPrefix = "leaves:employee:"
	PendingLeavesKey        = "leaves:pending"

	defaultCacheTTL    = 5 * time.Minute
	defaultLoadTimeout = 10 * time.Second
)

// setIfGenerationScript writes KEYS[1] only while the generation in KEYS[2]
// still equals ARGV[1], the value read before loading from the store.
const setIfGenerationScript = `
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`

func GetEmployeeLeavesKey(employeeID string) string {
	return EmployeeLeavesKeyPrefix + employeeID
}

// GetCacheGenerationKey holds the counter bumped on every invalidation of key.
func GetCacheGenerationKey(key string) string {
	return key + ":gen"
}

type Service interface {
	Create(ctx context.Context, req CreateLeaveRequest) (LeaveResponse, error)
	GetEmployeeLeaves(ctx context.Context, employeeID string) (EmployeeLeavesResponse, error)
	GetPending(ctx context.Context) ([]LeaveResponse, error)
	Decide(ctx context.Context, id, action string) (LeaveResponse, error)
}

type Options struct {
	Outbox          kafka.OutboxRepository
	Redis           *redis.Client
	CacheTTL        time.Duration
	StrictDateRange bool
	// LoadTimeout bounds a coalesced store read, independent of any caller's deadline.
	LoadTimeout time.Duration
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	outbox    kafka.OutboxRepository
	rdb       *redis.Client
	cacheTTL  time.Duration
	loadTTL   time.Duration
	strict    bool
	sf        *singleflight.Group
	logger    *zap.Logger
}

func NewService(db *sql.DB, repo Repository, employees employee.Repository, logger ...*zap.Logger) Service {
	return NewServiceWithOptions(db, repo, employees, Options{}, logger...)
}

func NewServiceWithOptions(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		outbox:    opts.Outbox,
		rdb:       opts.Redis,
		cacheTTL:  ttl,
		loadTTL:   loadTimeout,
		strict:    opts.StrictDateRange,
		sf:        &singleflight.Group{},
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, req CreateLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave requested",
		zap.String("request_id", rid),
		zap.String("employee_id", req.EmployeeID),
		zap.String("from_date", req.FromDate),
		zap.String("to_date", req.ToDate),
	)

	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" {
		return LeaveResponse{}, leaveerrors.ErrEmployeeIDRequired
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return LeaveResponse{}, leaveerrors.ErrReasonRequired
	}
	fromDate, err := ParseDate(req.FromDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	toDate, err := ParseDate(req.ToDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if fromDate.After(toDate) {
		if s.strict {
			s.logger.Warn("create leave inverted range rejected",
				zap.String("request_id", rid),
				zap.String("employee_id", employeeID),
			)
			return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
		}
		s.logger.Warn("create leave inverted range accepted",
			zap.String("request_id", rid),
			zap.String("employee_id", employeeID),
			zap.Time("from_date", fromDate),
			zap.Time("to_date", toDate),
		)
	}

	emp, err := s.employees.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		mapped := employee.MapRepositoryError(err)
		if !errors.Is(mapped, employeeerrors.ErrEmployeeNotFound) {
			s.logger.Error("create leave employee lookup failed", zap.String("request_id", rid), zap.Error(err))
		}
		return LeaveResponse{}, mapped
	}

	days := CountDays(fromDate, toDate)
	remaining := emp.RemainingLeaves()
	if days > remaining {
		s.logger.Warn("create leave insufficient balance",
			zap.String("request_id", rid),
			zap.String("employee_id", employeeID),
			zap.Int("days", days),
			zap.Int("remaining", remaining),
		)
		return LeaveResponse{}, leaveerrors.ErrInsufficientBalance
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	l := &LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		FromDate:   fromDate,
		ToDate:     toDate,
		Reason:     reason,
		Status:     StatusPending,
	}
	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.queueEvent(ctx, tx, events.LeaveCreatedEventType, *l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.invalidate(ctx, employeeID)
	s.logger.Info("create leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Int("days", days),
	)

	return mapToResponse(*l), nil
}

func (s *service) GetEmployeeLeaves(ctx context.Context, employeeID string) (EmployeeLeavesResponse, error) {
	cacheKey := GetEmployeeLeavesKey(employeeID)

	var cached EmployeeLeavesResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	v, err := s.load(ctx, cacheKey, func(ctx context.Context) (any, error) {
		gen, genOK := s.cacheGeneration(ctx, cacheKey)

		emp, err := s.employees.FindByEmployeeID(ctx, employeeID)
		if err != nil {
			return nil, employee.MapRepositoryError(err)
		}

		leaves, err := s.repo.FindAllByEmployee(ctx, employeeID)
		if err != nil {
			s.logger.Error("get employee leaves failed", zap.String("employee_id", employeeID), zap.Error(err))
			return nil, err
		}

		resp := EmployeeLeavesResponse{
			Employee: mapToSummary(*emp),
			Leaves:   mapToListResponse(leaves),
		}
		if genOK {
			s.writeCache(ctx, cacheKey, gen, resp)
		}
		return resp, nil
	})
	if err != nil {
		return EmployeeLeavesResponse{}, err
	}

	return v.(EmployeeLeavesResponse), nil
}

func (s *service) GetPending(ctx context.Context) ([]LeaveResponse, error) {
	var cached []LeaveResponse
	if s.readCache(ctx, PendingLeavesKey, &cached) {
		return cached, nil
	}

	v, err := s.load(ctx, PendingLeavesKey, func(ctx context.Context) (any, error) {
		gen, genOK := s.cacheGeneration(ctx, PendingLeavesKey)

		leaves, err := s.repo.FindAllByStatus(ctx, StatusPending)
		if err != nil {
			s.logger.Error("get pending leaves failed", zap.Error(err))
			return nil, err
		}

		resp := mapToListResponse(leaves)
		if genOK {
			s.writeCache(ctx, PendingLeavesKey, gen, resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]LeaveResponse), nil
}

// load coalesces concurrent reads of key. The shared read runs detached from
// the first caller's cancellation; each caller still stops waiting at its own deadline.
func (s *service) load(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := s.sf.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTTL)
		defer cancel()
		return fn(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *service) Decide(ctx context.Context, id, action string) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("decide leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("action", action),
	)

	var target string
	switch action {
	case ActionApprove:
		target = StatusApproved
	case ActionReject:
		target = StatusRejected
	default:
		return LeaveResponse{}, leaveerrors.ErrInvalidAction
	}

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		s.logger.Error("decide leave fetch failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		s.logger.Warn("decide leave already processed",
			zap.String("request_id", rid),
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	if target == StatusApproved {
		if err := s.debitBalance(ctx, tx, *l); err != nil {
			return LeaveResponse{}, err
		}
	}

	now := time.Now().UTC()
	ok, err := qtx.TransitionStatus(ctx, id, StatusPending, target, now)
	if err != nil {
		s.logger.Error("decide leave transition failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	if !ok {
		s.logger.Warn("decide leave lost status race", zap.String("request_id", rid), zap.String("leave_id", id))
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	l.Status = target
	l.UpdatedAt = now
	l.DecidedAt = &now

	eventType := events.LeaveRejectedEventType
	if target == StatusApproved {
		eventType = events.LeaveApprovedEventType
	}
	if err := s.queueEvent(ctx, tx, eventType, *l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.invalidate(ctx, l.EmployeeID)
	s.logger.Info("decide leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("employee_id", l.EmployeeID),
		zap.String("status", target),
	)

	return mapToResponse(*l), nil
}

// debitBalance re-checks the balance and adds the request's days to leavesTaken.
func (s *service) debitBalance(ctx context.Context, tx *sql.Tx, l LeaveRequest) error {
	etx := s.employees.WithTx(tx)

	emp, err := etx.FindByEmployeeID(ctx, l.EmployeeID)
	if err != nil {
		return employee.MapRepositoryError(err)
	}

	days := l.Days()
	if days > emp.RemainingLeaves() {
		s.logger.Warn("approve leave insufficient balance",
			zap.String("leave_id", l.ID.String()),
			zap.String("employee_id", l.EmployeeID),
			zap.Int("days", days),
			zap.Int("remaining", emp.RemainingLeaves()),
		)
		return leaveerrors.ErrInsufficientBalance
	}

	ok, err := etx.AddLeavesTaken(ctx, emp.EmployeeID, max(days, 0), emp.Version)
	if err != nil {
		s.logger.Error("approve leave debit failed", zap.String("employee_id", l.EmployeeID), zap.Error(err))
		return err
	}
	if !ok {
		s.logger.Warn("approve leave balance version mismatch",
			zap.String("employee_id", l.EmployeeID),
			zap.Int("version", emp.Version),
		)
		return employeeerrors.ErrBalanceChanged
	}
	return nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, l LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	payload, err := json.Marshal(events.LeaveEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID,
		FromDate:   l.FromDate.Format(DateLayout),
		ToDate:     l.ToDate.Format(DateLayout),
		Days:       l.Days(),
		Status:     l.Status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("marshal leave event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("request_id", rid),
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) readCache(ctx context.Context, key string, dst any) bool {
	if s.rdb == nil {
		return false
	}
	cached, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leave cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

// cacheGeneration reports the invalidation counter for key; false means the
// counter is unreadable and the loaded value must not be cached.
func (s *service) cacheGeneration(ctx context.Context, key string) (string, bool) {
	if s.rdb == nil {
		return "", false
	}
	gen, err := s.rdb.Get(ctx, GetCacheGenerationKey(key)).Result()
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, redis.Nil):
		return "0", true
	default:
		s.logger.Warn("leave cache generation read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
}

func (s *service) writeCache(ctx context.Context, key, gen string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	keys := []string{key, GetCacheGenerationKey(key)}
	stored, err := s.rdb.Eval(ctx, setIfGenerationScript, keys, gen, string(data), s.cacheTTL.Milliseconds()).Int()
	if err != nil {
		s.logger.Warn("leave cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		s.logger.Debug("leave cache write skipped, invalidated during load", zap.String("key", key))
	}
}

// invalidate bumps each key's generation before deleting it, so a load that
// started earlier can no longer write its snapshot back.
func (s *service) invalidate(ctx context.Context, employeeID string) {
	if s.rdb == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	keys := []string{GetEmployeeLeavesKey(employeeID), PendingLeavesKey}
	for _, key := range keys {
		if err := s.rdb.Incr(ctx, GetCacheGenerationKey(key)).Err(); err != nil {
			s.logger.Error("failed to bump leave cache generation", zap.String("key", key), zap.Error(err))
		}
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Error("failed to invalidate leave cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID,
		FromDate:   l.FromDate.Format(DateLayout),
		ToDate:     l.ToDate.Format(DateLayout),
		Days:       l.Days(),
		Reason:     l.Reason,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  l.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.UTC().Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func mapToSummary(emp employee.Employee) EmployeeSummary {
	return EmployeeSummary{
		EmployeeID:         emp.EmployeeID,
		Name:               emp.Name,
		TotalLeavesPerYear: emp.TotalLeavesPerYear,
		LeavesTaken:        emp.LeavesTaken,
		LeavesRemaining:    emp.RemainingLeaves(),
	}
}
