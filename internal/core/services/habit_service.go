package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
)

var (
	ErrFutureDate = errors.New("date is in the future")
)

// Saver schedules a deferred save of a user's document.
type Saver interface {
	Enqueue(userID string)
}

type LocationResolver func(ctx context.Context, userID string) (*time.Location, error)

type session struct {
	engine *domain.Engine
	loc    *time.Location

	// use is held shared by every request working on the engine and
	// exclusively while the session is being retired.
	use      sync.RWMutex
	detached bool
	lastUsed atomic.Int64

	mu         sync.Mutex
	rolledOver domain.DateKey

	saveMu  sync.Mutex
	version int
}

// HabitService keeps one tracking engine per active user. The document is
// loaded on first use and written back after every mutation, either right
// away or through the attached Saver. Sessions leave memory on logout or
// once they have been idle long enough, always after a final save.
type HabitService struct {
	repo   domain.SnapshotRepository
	logger *zap.Logger

	saver      Saver
	now        func() time.Time
	defaultLoc *time.Location
	locate     LocationResolver

	mu       sync.RWMutex
	sessions map[string]*session
	closing  map[string]chan struct{}
}

type HabitServiceOption func(*HabitService)

func WithClock(now func() time.Time) HabitServiceOption {
	return func(s *HabitService) { s.now = now }
}

func WithDefaultLocation(loc *time.Location) HabitServiceOption {
	return func(s *HabitService) {
		if loc != nil {
			s.defaultLoc = loc
		}
	}
}

func WithLocationResolver(fn LocationResolver) HabitServiceOption {
	return func(s *HabitService) { s.locate = fn }
}

func NewHabitService(repo domain.SnapshotRepository, logger *zap.Logger, opts ...HabitServiceOption) *HabitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HabitService{
		repo:       repo,
		logger:     logger,
		now:        time.Now,
		defaultLoc: time.UTC,
		sessions:   make(map[string]*session),
		closing:    make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachSaver switches the service to deferred saves. Without a saver every
// mutation is saved synchronously and storage errors reach the caller.
func (s *HabitService) AttachSaver(saver Saver) {
	s.saver = saver
}

type AddHabitInput struct {
	UserID   string
	ID       string
	Kind     string
	Metadata map[string]string
	Date     string
}

// StartSession loads the user's document if it is not in memory yet.
func (s *HabitService) StartSession(ctx context.Context, userID string) error {
	_, release, err := s.acquire(ctx, userID)
	if err != nil {
		return err
	}
	release()
	return nil
}

func (s *HabitService) AddHabit(ctx context.Context, input AddHabitInput) (*domain.Habit, error) {
	id := strings.TrimSpace(input.ID)
	if err := domain.ValidateHabitID(id); err != nil {
		return nil, err
	}

	metadata := input.Metadata
	kindStr := input.Kind
	if entry, ok := domain.LookupCatalog(id); ok {
		metadata = entry.Metadata(input.Metadata)
		if kindStr == "" {
			kindStr = string(entry.Kind)
		}
	}
	kind, err := domain.ParseHabitKind(kindStr)
	if err != nil {
		return nil, err
	}

	sess, release, err := s.acquire(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	today, err := s.resolveDate(sess, input.Date)
	if err != nil {
		return nil, err
	}

	habit, err := sess.engine.AddHabit(id, kind, metadata, today)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, input.UserID, sess); err != nil {
		return nil, err
	}
	return &habit, nil
}

// GetHabit returns one habit with its completion state for today.
func (s *HabitService) GetHabit(ctx context.Context, userID, habitID string) (*domain.HabitStatus, error) {
	if err := domain.ValidateHabitID(habitID); err != nil {
		return nil, err
	}

	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	h, ok := sess.engine.Habit(habitID)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	done, err := sess.engine.IsCompletedOn(habitID, s.today(sess))
	if err != nil {
		return nil, err
	}
	return &domain.HabitStatus{Habit: h, CompletedToday: done}, nil
}

func (s *HabitService) RemoveHabit(ctx context.Context, userID, habitID string) (bool, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return false, err
	}
	defer release()

	removed, err := sess.engine.RemoveHabit(habitID)
	if err != nil || !removed {
		return false, err
	}
	return true, s.persist(ctx, userID, sess)
}

func (s *HabitService) CompleteHabit(ctx context.Context, userID, habitID, date string) (domain.CompletionResult, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	defer release()

	day, err := s.resolveDate(sess, date)
	if err != nil {
		return domain.CompletionResult{}, err
	}

	res, err := sess.engine.CompleteHabitAsOf(habitID, day, s.today(sess))
	if err != nil {
		return domain.CompletionResult{}, err
	}
	if res.AlreadyCompleted {
		return res, nil
	}

	s.logger.Debug("habit completed",
		zap.String("user_id", userID),
		zap.String("habit_id", habitID),
		zap.String("date", day.String()),
		zap.Int("streak", res.Habit.Streak),
	)
	return res, s.persist(ctx, userID, sess)
}

func (s *HabitService) UncompleteHabit(ctx context.Context, userID, habitID, date string) (bool, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return false, err
	}
	defer release()

	day, err := s.resolveDate(sess, date)
	if err != nil {
		return false, err
	}

	undone, err := sess.engine.UncompleteHabitAsOf(habitID, day, s.today(sess))
	if err != nil || !undone {
		return false, err
	}
	return true, s.persist(ctx, userID, sess)
}

func (s *HabitService) IsCompletedOn(ctx context.Context, userID, habitID, date string) (bool, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return false, err
	}
	defer release()

	return sess.engine.IsCompletedOn(habitID, domain.DateKey(date))
}

func (s *HabitService) ListHabits(ctx context.Context, userID, date string) ([]domain.HabitStatus, domain.DateKey, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	defer release()

	day, err := s.resolveDate(sess, date)
	if err != nil {
		return nil, "", err
	}
	statuses, err := sess.engine.Status(day)
	if err != nil {
		return nil, "", err
	}
	return statuses, day, nil
}

func (s *HabitService) GetStats(ctx context.Context, userID, date string) (*domain.Stats, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	day, err := s.resolveDate(sess, date)
	if err != nil {
		return nil, err
	}

	stats, err := sess.engine.Stats(day)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *HabitService) ExportSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap := sess.engine.ExportSnapshot()
	sess.saveMu.Lock()
	snap.Version = sess.version
	sess.saveMu.Unlock()
	return snap, nil
}

// ImportSnapshot replaces the user's state with a client-provided document
// and saves it synchronously.
func (s *HabitService) ImportSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	if err := sess.engine.LoadSnapshot(snap); err != nil {
		return err
	}

	sess.mu.Lock()
	sess.rolledOver = ""
	sess.mu.Unlock()
	s.rollover(userID, sess)

	return s.saveSession(ctx, userID, sess)
}

// Sync forces a synchronous save of the user's document.
func (s *HabitService) Sync(ctx context.Context, userID string) error {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	return s.saveSession(ctx, userID, sess)
}

// EndSession saves and forgets the user's state. The session is detached
// before the final save, so requests arriving meanwhile wait and then load
// the saved document. It stays in memory when that save fails.
func (s *HabitService) EndSession(ctx context.Context, userID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	done := s.detachLocked(userID)
	s.mu.Unlock()

	return s.retire(ctx, userID, sess, done)
}

// EvictIdle saves and drops every session unused for at least maxIdle. A
// session whose save fails stays in memory for the next pass. It returns
// how many sessions were dropped.
func (s *HabitService) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle).UnixNano()

	type idle struct {
		userID string
		sess   *session
		done   chan struct{}
	}
	var victims []idle

	s.mu.Lock()
	for userID, sess := range s.sessions {
		if sess.lastUsed.Load() <= cutoff {
			victims = append(victims, idle{userID: userID, sess: sess, done: s.detachLocked(userID)})
		}
	}
	s.mu.Unlock()

	evicted := 0
	for _, v := range victims {
		if s.retire(ctx, v.userID, v.sess, v.done) == nil {
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.Info("idle sessions evicted",
			zap.Int("sessions", evicted),
			zap.Duration("max_idle", maxIdle),
		)
	}
	return evicted
}

// ResetData wipes the user's habits, ledger and activity log everywhere.
func (s *HabitService) ResetData(ctx context.Context, userID string) error {
	sess, release, err := s.acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	sess.engine.Reset()
	sess.version = 0
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("habit service: reset data for %s: %w", userID, err)
	}

	s.logger.Info("habit data reset", zap.String("user_id", userID))
	return nil
}

// SaveSnapshot writes the user's current state. Saves for the same user are
// serialized and each one exports the state at the moment it runs, so an
// older document never overwrites a newer one. Users without an active
// session are skipped.
func (s *HabitService) SaveSnapshot(ctx context.Context, userID string) error {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.use.RLock()
	defer sess.use.RUnlock()
	if sess.detached {
		return nil
	}
	return s.saveSession(ctx, userID, sess)
}

func (s *HabitService) saveSession(ctx context.Context, userID string, sess *session) error {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	snap := sess.engine.ExportSnapshot()
	snap.Version = sess.version + 1
	snap.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, userID, snap); err != nil {
		s.logger.Error("failed to save habit document",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("habit service: save document for %s: %w", userID, err)
	}
	sess.version = snap.Version
	return nil
}

func (s *HabitService) ActiveSessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (s *HabitService) persist(ctx context.Context, userID string, sess *session) error {
	if s.saver != nil {
		s.saver.Enqueue(userID)
		return nil
	}
	return s.saveSession(ctx, userID, sess)
}

// acquire returns the user's session, loading the document on first use,
// and holds it until release is called. Requests for a user whose session
// is being retired wait for the final save to finish.
func (s *HabitService) acquire(ctx context.Context, userID string) (*session, func(), error) {
	if userID == "" {
		return nil, nil, domain.ErrUnauthorized
	}

	for {
		sess, closing := s.lookup(userID)
		if sess == nil && closing != nil {
			select {
			case <-closing:
				continue
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		if sess == nil {
			loaded, err := s.load(ctx, userID)
			if err != nil {
				return nil, nil, err
			}

			s.mu.Lock()
			if _, busy := s.closing[userID]; busy {
				s.mu.Unlock()
				continue
			}
			if existing, ok := s.sessions[userID]; ok {
				sess = existing
			} else {
				s.sessions[userID] = loaded
				sess = loaded
			}
			sess.lastUsed.Store(s.now().UnixNano())
			s.mu.Unlock()
		}

		sess.use.RLock()
		if sess.detached {
			sess.use.RUnlock()
			continue
		}
		s.rollover(userID, sess)
		return sess, sess.use.RUnlock, nil
	}
}

func (s *HabitService) lookup(userID string) (*session, <-chan struct{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[userID]; ok {
		sess.lastUsed.Store(s.now().UnixNano())
		return sess, nil
	}
	if done, ok := s.closing[userID]; ok {
		return nil, done
	}
	return nil, nil
}

// detachLocked takes the session out of the active set. Callers hold s.mu.
func (s *HabitService) detachLocked(userID string) chan struct{} {
	delete(s.sessions, userID)
	done := make(chan struct{})
	s.closing[userID] = done
	return done
}

// retire waits for in-flight requests on a detached session, saves it and
// then releases the user to new requests. On a failed save the session is
// put back.
func (s *HabitService) retire(ctx context.Context, userID string, sess *session, done chan struct{}) error {
	sess.use.Lock()
	defer sess.use.Unlock()

	err := s.saveSession(ctx, userID, sess)

	s.mu.Lock()
	if err != nil {
		s.sessions[userID] = sess
	} else {
		sess.detached = true
		sess.engine.Reset()
	}
	delete(s.closing, userID)
	s.mu.Unlock()
	close(done)

	return err
}

func (s *HabitService) load(ctx context.Context, userID string) (*session, error) {
	sess := &session{
		engine: domain.NewEngine(domain.WithClock(s.now)),
		loc:    s.defaultLoc,
	}

	if s.locate != nil {
		loc, err := s.locate(ctx, userID)
		if err != nil {
			s.logger.Warn("falling back to default timezone",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else if loc != nil {
			sess.loc = loc
		}
	}

	snap, err := s.repo.Load(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		s.logger.Debug("starting empty habit document", zap.String("user_id", userID))
		return sess, nil
	case err != nil:
		return nil, fmt.Errorf("habit service: load document for %s: %w", userID, err)
	}

	if err := sess.engine.LoadSnapshot(snap); err != nil {
		return nil, fmt.Errorf("habit service: corrupt document for %s: %w", userID, err)
	}
	sess.version = snap.Version

	s.logger.Info("habit document loaded",
		zap.String("user_id", userID),
		zap.Int("habits", len(snap.Habits)),
		zap.Int("version", snap.Version),
	)
	return sess, nil
}

// rollover runs the daily streak evaluation once per calendar day.
func (s *HabitService) rollover(userID string, sess *session) {
	today := s.today(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.rolledOver == today {
		return
	}
	reset, err := sess.engine.Rollover(today)
	if err != nil {
		s.logger.Error("rollover failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	sess.rolledOver = today

	if reset > 0 {
		s.logger.Debug("streaks reset after gap",
			zap.String("user_id", userID),
			zap.Int("habits", reset),
		)
		if s.saver != nil {
			s.saver.Enqueue(userID)
		}
	}
}

func (s *HabitService) today(sess *session) domain.DateKey {
	return domain.DateKeyOf(s.now().In(sess.loc))
}

// resolveDate defaults to the user's today and refuses dates more than one
// day ahead of it.
func (s *HabitService) resolveDate(sess *session, date string) (domain.DateKey, error) {
	today := s.today(sess)
	if date == "" {
		return today, nil
	}

	day, err := domain.ParseDateKey(date)
	if err != nil {
		return "", err
	}
	if day.After(today.AddDays(1)) {
		return "", fmt.Errorf("%w: %s", ErrFutureDate, day)
	}
	return day, nil
}
