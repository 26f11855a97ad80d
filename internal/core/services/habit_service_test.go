package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSnapshotRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Snapshot
	saves         int
	simulateError error
	loadError     error
}

func NewMockSnapshotRepo() *MockSnapshotRepo {
	return &MockSnapshotRepo{store: make(map[string]*domain.Snapshot)}
}

func (m *MockSnapshotRepo) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadError != nil {
		return nil, m.loadError
	}
	s, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return s, nil
}

func (m *MockSnapshotRepo) Save(ctx context.Context, userID string, s *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	m.store[userID] = s
	m.saves++
	return nil
}

func (m *MockSnapshotRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	delete(m.store, userID)
	return nil
}

func (m *MockSnapshotRepo) get(userID string) *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[userID]
}

type recordingSaver struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingSaver) Enqueue(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// gatedRepo holds every save until release is closed.
type gatedRepo struct {
	*MockSnapshotRepo
	entered chan struct{}
	release chan struct{}
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{
		MockSnapshotRepo: NewMockSnapshotRepo(),
		entered:          make(chan struct{}, 1),
		release:          make(chan struct{}),
	}
}

func (g *gatedRepo) Save(ctx context.Context, userID string, s *domain.Snapshot) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.MockSnapshotRepo.Save(ctx, userID, s)
}

func newTestService(repo domain.SnapshotRepository, opts ...services.HabitServiceOption) (*services.HabitService, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]services.HabitServiceOption{services.WithClock(clock.Now)}, opts...)
	return services.NewHabitService(repo, nil, opts...), clock
}

func TestHabitService_AddHabit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Catalog habit gets default kind and metadata", func(t *testing.T) {
		repo := NewMockSnapshotRepo()
		svc, _ := newTestService(repo)

		h, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "no-smoking"})

		require.NoError(t, err)
		assert.Equal(t, domain.HabitKindBreak, h.Kind)
		assert.Equal(t, "Quit smoking", h.Metadata["name"])

		stored := repo.get("u1")
		require.NotNil(t, stored, "saved synchronously without a saver")
		assert.Contains(t, stored.Habits, "no-smoking")
		assert.True(t, stored.ActivityLog["2024-01-01"])
		assert.Equal(t, 1, stored.Version)
	})

	t.Run("Fail: Custom habit needs a kind", func(t *testing.T) {
		svc, _ := newTestService(NewMockSnapshotRepo())

		_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "pottery"})
		assert.ErrorIs(t, err, domain.ErrInvalidHabitKind)
	})

	t.Run("Fail: Invalid id never reaches storage", func(t *testing.T) {
		repo := NewMockSnapshotRepo()
		svc, _ := newTestService(repo)

		_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "Bad Id", Kind: "build"})
		assert.ErrorIs(t, err, domain.ErrInvalidHabitID)
		assert.Nil(t, repo.get("u1"))
	})

	t.Run("Fail: Missing user", func(t *testing.T) {
		svc, _ := newTestService(NewMockSnapshotRepo())

		_, err := svc.AddHabit(ctx, services.AddHabitInput{ID: "reading"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Fail: Storage error surfaces to the caller", func(t *testing.T) {
		repo := NewMockSnapshotRepo()
		repo.simulateError = errors.New("disk on fire")
		svc, _ := newTestService(repo)

		_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
		assert.ErrorIs(t, err, repo.simulateError)
	})
}

func TestHabitService_CompleteFlow(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, clock := newTestService(repo)

	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "meditation"})
	require.NoError(t, err)

	res, err := svc.CompleteHabit(ctx, "u1", "meditation", "")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, 1, res.Habit.Streak)

	savesBefore := repo.saves
	res, err = svc.CompleteHabit(ctx, "u1", "meditation", "")
	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, savesBefore, repo.saves, "no-op completions are not saved")

	clock.Advance(24 * time.Hour)
	res, err = svc.CompleteHabit(ctx, "u1", "meditation", "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Habit.Streak)

	done, err := svc.IsCompletedOn(ctx, "u1", "meditation", "2024-01-02")
	require.NoError(t, err)
	assert.True(t, done)

	undone, err := svc.UncompleteHabit(ctx, "u1", "meditation", "2024-01-02")
	require.NoError(t, err)
	assert.True(t, undone)

	list, today, err := svc.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2024-01-02"), today)
	require.Len(t, list, 1)
	assert.False(t, list[0].CompletedToday)
	assert.Equal(t, 1, list[0].Streak)
	assert.Equal(t, 2, list[0].BestStreak)

	stored := repo.get("u1")
	assert.Equal(t, 2, stored.Habits["meditation"].BestStreak)
}

func TestHabitService_Dates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(NewMockSnapshotRepo())
	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)

	_, err = svc.CompleteHabit(ctx, "u1", "reading", "01/01/2024")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.CompleteHabit(ctx, "u1", "reading", "2024-01-09")
	assert.ErrorIs(t, err, services.ErrFutureDate)

	res, err := svc.CompleteHabit(ctx, "u1", "reading", "2023-12-31")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted, "past days can be backfilled")

	_, err = svc.IsCompletedOn(ctx, "u1", "reading", "yesterday")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestHabitService_MalformedHabitID(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, _ := newTestService(repo)
	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)
	saves := repo.saves

	_, err = svc.CompleteHabit(ctx, "u1", "NOT VALID", "")
	assert.ErrorIs(t, err, domain.ErrInvalidHabitID)

	_, err = svc.UncompleteHabit(ctx, "u1", "NOT VALID", "")
	assert.ErrorIs(t, err, domain.ErrInvalidHabitID)

	_, err = svc.RemoveHabit(ctx, "u1", "NOT VALID")
	assert.ErrorIs(t, err, domain.ErrInvalidHabitID)

	_, err = svc.IsCompletedOn(ctx, "u1", "NOT VALID", "2024-01-01")
	assert.ErrorIs(t, err, domain.ErrInvalidHabitID)

	_, err = svc.GetHabit(ctx, "u1", "NOT VALID")
	assert.ErrorIs(t, err, domain.ErrInvalidHabitID)

	assert.Equal(t, saves, repo.saves, "rejected requests are not saved")
}

func TestHabitService_GetHabit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(NewMockSnapshotRepo())
	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	_, _ = svc.CompleteHabit(ctx, "u1", "reading", "")

	got, err := svc.GetHabit(ctx, "u1", "reading")
	require.NoError(t, err)
	assert.Equal(t, "reading", got.ID)
	assert.True(t, got.CompletedToday)
	assert.Equal(t, 1, got.Streak)

	_, err = svc.GetHabit(ctx, "u1", "exercise")
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)

	_, err = svc.GetHabit(ctx, "", "reading")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHabitService_BackfillStreak(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, clock := newTestService(repo)
	clock.Advance(9 * 24 * time.Hour)

	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)

	t.Run("Completing a week ago does not start a streak", func(t *testing.T) {
		res, err := svc.CompleteHabit(ctx, "u1", "reading", "2024-01-03")
		require.NoError(t, err)
		assert.False(t, res.AlreadyCompleted)
		assert.Equal(t, 0, res.Habit.Streak)
		assert.Equal(t, 1, res.Habit.BestStreak)

		list, today, err := svc.ListHabits(ctx, "u1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.DateKey("2024-01-10"), today)
		assert.Equal(t, 0, list[0].Streak)

		stored := repo.get("u1").Habits["reading"]
		assert.Equal(t, 0, stored.Streak)
		assert.Equal(t, domain.DateKey("2024-01-03"), *stored.LastCompletedDate)
	})

	t.Run("Yesterday then today keeps counting", func(t *testing.T) {
		res, err := svc.CompleteHabit(ctx, "u1", "reading", "2024-01-09")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Habit.Streak)

		res, err = svc.CompleteHabit(ctx, "u1", "reading", "")
		require.NoError(t, err)
		assert.Equal(t, 2, res.Habit.Streak)
		assert.Equal(t, 2, res.Habit.BestStreak)
	})
}

func TestHabitService_UserTimezone(t *testing.T) {
	ctx := context.Background()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	svc, _ := newTestService(NewMockSnapshotRepo(), services.WithLocationResolver(
		func(ctx context.Context, userID string) (*time.Location, error) {
			return tokyo, nil
		},
	))

	clockTime := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	svc2 := services.NewHabitService(NewMockSnapshotRepo(), nil,
		services.WithClock(func() time.Time { return clockTime }),
		services.WithLocationResolver(func(ctx context.Context, userID string) (*time.Location, error) {
			return tokyo, nil
		}),
	)

	_, today, err := svc2.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2024-01-02"), today, "20:00 UTC is already tomorrow in Tokyo")

	_, today, err = svc.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2024-01-01"), today)
}

func TestHabitService_LocationFallback(t *testing.T) {
	svc, _ := newTestService(NewMockSnapshotRepo(), services.WithLocationResolver(
		func(ctx context.Context, userID string) (*time.Location, error) {
			return nil, domain.ErrUserNotFound
		},
	))

	_, today, err := svc.ListHabits(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2024-01-01"), today)
}

func TestHabitService_LoadAndRollover(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	last := domain.DateKey("2023-12-28")
	repo.store["u1"] = &domain.Snapshot{
		Habits: map[string]domain.Habit{
			"reading": {ID: "reading", Kind: domain.HabitKindBuild, Streak: 4, BestStreak: 6, LastCompletedDate: &last},
		},
		HabitCompletion: map[string][]string{"2023-12-28": {"reading"}},
		ActivityLog:     map[string]bool{"2023-12-28": true},
		Version:         7,
	}
	svc, _ := newTestService(repo)

	list, _, err := svc.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].Streak, "gap since the last completion breaks the streak")
	assert.Equal(t, 6, list[0].BestStreak)

	snap, err := svc.ExportSnapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Version)

	require.NoError(t, svc.Sync(ctx, "u1"))
	assert.Equal(t, 8, repo.get("u1").Version)
}

func TestHabitService_LoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Storage failure", func(t *testing.T) {
		repo := NewMockSnapshotRepo()
		repo.loadError = errors.New("timeout")
		svc, _ := newTestService(repo)

		_, err := svc.GetStats(ctx, "u1", "")
		assert.ErrorIs(t, err, repo.loadError)
		assert.Empty(t, svc.ActiveSessions())
	})

	t.Run("Corrupt document", func(t *testing.T) {
		repo := NewMockSnapshotRepo()
		repo.store["u1"] = &domain.Snapshot{ActivityLog: map[string]bool{"not-a-date": true}}
		svc, _ := newTestService(repo)

		err := svc.StartSession(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})
}

func TestHabitService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(NewMockSnapshotRepo())
	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "exercise"})
	_, _ = svc.CompleteHabit(ctx, "u1", "reading", "2023-12-31")
	_, _ = svc.CompleteHabit(ctx, "u1", "reading", "")

	stats, err := svc.GetStats(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalHabits)
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 50.0, stats.CompletionRate)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.BestStreak)
	assert.Equal(t, domain.DateKey("2024-01-01"), stats.WeeklyProgress[6].Date)
}

func TestHabitService_RemoveHabit(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, _ := newTestService(repo)
	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	_, _ = svc.CompleteHabit(ctx, "u1", "reading", "")

	removed, err := svc.RemoveHabit(ctx, "u1", "reading")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, repo.get("u1").HabitCompletion)

	removed, err = svc.RemoveHabit(ctx, "u1", "reading")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestHabitService_DeferredSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, _ := newTestService(repo)
	saver := &recordingSaver{}
	svc.AttachSaver(saver)

	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)
	_, err = svc.CompleteHabit(ctx, "u1", "reading", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u1"}, saver.users)
	assert.Nil(t, repo.get("u1"), "nothing written until the saver runs")

	require.NoError(t, svc.SaveSnapshot(ctx, "u1"))
	assert.NotNil(t, repo.get("u1"))
}

func TestHabitService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, _ := newTestService(repo)
	svc.AttachSaver(&recordingSaver{})

	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	assert.Equal(t, []string{"u1"}, svc.ActiveSessions())

	require.NoError(t, svc.EndSession(ctx, "u1"))
	assert.Empty(t, svc.ActiveSessions())
	assert.Contains(t, repo.get("u1").Habits, "reading", "logout flushes pending changes")

	assert.NoError(t, svc.SaveSnapshot(ctx, "u1"), "late saves for ended sessions are skipped")

	list, _, err := svc.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, list, 1, "next login reloads the document")

	t.Run("Failed final save keeps the session", func(t *testing.T) {
		repo.simulateError = errors.New("offline")
		defer func() { repo.simulateError = nil }()

		err := svc.EndSession(ctx, "u1")
		assert.Error(t, err)
		assert.Equal(t, []string{"u1"}, svc.ActiveSessions())
	})
}

func TestHabitService_EndSessionDetachesBeforeSaving(t *testing.T) {
	ctx := context.Background()
	repo := newGatedRepo()
	svc, _ := newTestService(repo)
	svc.AttachSaver(&recordingSaver{})

	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)

	ended := make(chan error, 1)
	go func() { ended <- svc.EndSession(ctx, "u1") }()
	<-repo.entered

	completed := make(chan domain.CompletionResult, 1)
	go func() {
		res, err := svc.CompleteHabit(ctx, "u1", "reading", "")
		assert.NoError(t, err)
		completed <- res
	}()

	select {
	case <-completed:
		t.Fatal("completion ran against a session that was being saved")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.release)
	require.NoError(t, <-ended)

	res := <-completed
	assert.True(t, res.Found, "the request sees the document saved at logout")
	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, []string{"u1"}, svc.ActiveSessions())

	require.NoError(t, svc.Sync(ctx, "u1"))
	assert.Equal(t, []string{"reading"}, repo.get("u1").HabitCompletion["2024-01-01"], "nothing is lost")
}

func TestHabitService_EndSessionWaitRespectsContext(t *testing.T) {
	repo := newGatedRepo()
	svc, _ := newTestService(repo)
	svc.AttachSaver(&recordingSaver{})
	_, err := svc.AddHabit(context.Background(), services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)

	ended := make(chan error, 1)
	go func() { ended <- svc.EndSession(context.Background(), "u1") }()
	<-repo.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.GetStats(ctx, "u1", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(repo.release)
	require.NoError(t, <-ended)
}

func TestHabitService_EvictIdle(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, clock := newTestService(repo)
	svc.AttachSaver(&recordingSaver{})

	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "idle", ID: "reading"})
	_, _ = svc.AddHabit(ctx, services.AddHabitInput{UserID: "busy", ID: "exercise"})

	clock.Advance(10 * time.Minute)
	_, _ = svc.CompleteHabit(ctx, "busy", "exercise", "")
	clock.Advance(25 * time.Minute)

	t.Run("Idle session is saved and dropped", func(t *testing.T) {
		evicted := svc.EvictIdle(ctx, 30*time.Minute)

		assert.Equal(t, 1, evicted)
		assert.Equal(t, []string{"busy"}, svc.ActiveSessions())
		require.NotNil(t, repo.get("idle"))
		assert.Contains(t, repo.get("idle").Habits, "reading")
		assert.Nil(t, repo.get("busy"), "active sessions are not touched")
	})

	t.Run("Evicted user reloads on the next request", func(t *testing.T) {
		list, _, err := svc.ListHabits(ctx, "idle", "")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.ElementsMatch(t, []string{"busy", "idle"}, svc.ActiveSessions())
	})

	t.Run("Failed save keeps the session", func(t *testing.T) {
		repo.simulateError = errors.New("offline")
		clock.Advance(time.Hour)

		assert.Zero(t, svc.EvictIdle(ctx, 30*time.Minute))
		assert.ElementsMatch(t, []string{"busy", "idle"}, svc.ActiveSessions())

		repo.simulateError = nil
		assert.Equal(t, 2, svc.EvictIdle(ctx, 30*time.Minute))
		assert.Empty(t, svc.ActiveSessions())
		assert.Contains(t, repo.get("busy").HabitCompletion["2024-01-01"], "exercise")
	})
}

func TestHabitService_ImportAndReset(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, _ := newTestService(repo)

	last := domain.DateKey("2024-01-01")
	err := svc.ImportSnapshot(ctx, "u1", &domain.Snapshot{
		Habits: map[string]domain.Habit{
			"reading": {Kind: domain.HabitKindBuild, Streak: 1, BestStreak: 1, LastCompletedDate: &last},
		},
		HabitCompletion: map[string][]string{"2024-01-01": {"reading"}},
		ActivityLog:     map[string]bool{"2024-01-01": true},
	})
	require.NoError(t, err)
	assert.Contains(t, repo.get("u1").Habits, "reading")

	err = svc.ImportSnapshot(ctx, "u1", &domain.Snapshot{HabitCompletion: map[string][]string{"bad": {"x"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	require.NoError(t, svc.ResetData(ctx, "u1"))
	assert.Nil(t, repo.get("u1"))

	list, _, err := svc.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHabitService_ConcurrentCompletion(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSnapshotRepo()
	svc, _ := newTestService(repo)
	_, err := svc.AddHabit(ctx, services.AddHabitInput{UserID: "u1", ID: "reading"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CompleteHabit(ctx, "u1", "reading", "")
		}()
	}
	wg.Wait()

	stored := repo.get("u1")
	assert.Equal(t, 1, stored.Habits["reading"].Streak, "rapid taps count once")
	assert.Equal(t, []string{"reading"}, stored.HabitCompletion["2024-01-01"])
}
