package domain

import (
	"sort"
	"sync"
	"time"
)

// Engine owns one user's habits, completion ledger and activity log.
//
// Every exported method runs under the engine lock for its whole body, so a
// snapshot exported between two calls never observes a half-applied
// mutation. Ordinary misuse (completing twice, removing an unknown habit,
// undoing a day that was not completed) is absorbed and reported through the
// return value; only malformed input produces an error.
type Engine struct {
	mu sync.RWMutex

	habits   map[string]*Habit
	ledger   map[DateKey]map[string]struct{}
	activity map[DateKey]bool

	now func() time.Time
}

type EngineOption func(*Engine)

// WithClock overrides the clock used for CreatedAt timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		habits:   make(map[string]*Habit),
		ledger:   make(map[DateKey]map[string]struct{}),
		activity: make(map[DateKey]bool),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddHabit inserts a fresh habit and marks today active. An existing habit
// with the same id is replaced and its streak counters start over.
func (e *Engine) AddHabit(id string, kind HabitKind, metadata map[string]string, today DateKey) (Habit, error) {
	if err := today.Validate(); err != nil {
		return Habit{}, err
	}

	h, err := NewHabit(id, kind, metadata, e.now())
	if err != nil {
		return Habit{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.habits[id] = h
	e.markDayActive(today)

	return h.clone(), nil
}

// RemoveHabit deletes the habit and purges it from the ledger. The activity
// log is left alone since other habits may have contributed to those days.
func (e *Engine) RemoveHabit(id string) (bool, error) {
	if err := ValidateHabitID(id); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.habits[id]; !ok {
		return false, nil
	}
	delete(e.habits, id)

	for day, set := range e.ledger {
		if _, ok := set[id]; !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(e.ledger, day)
		}
	}
	return true, nil
}

// CompleteHabit records a completion of id on day, treating day as today.
// The streak grows at most once per habit per calendar day.
func (e *Engine) CompleteHabit(id string, day DateKey) (CompletionResult, error) {
	return e.CompleteHabitAsOf(id, day, day)
}

// CompleteHabitAsOf records a completion of id on day as seen from today.
// Completing today or later extends the streak counter. A backfilled day
// only counts when it joins the run of ledger days that ends at the latest
// completion, and the streak stays zero unless that run is still alive on
// today.
func (e *Engine) CompleteHabitAsOf(id string, day, today DateKey) (CompletionResult, error) {
	if err := validateRef(id, day); err != nil {
		return CompletionResult{}, err
	}
	if err := today.Validate(); err != nil {
		return CompletionResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.habits[id]
	if !ok {
		return CompletionResult{AlreadyCompleted: true}, nil
	}

	if e.isCompletedLocked(id, day) {
		c := h.clone()
		return CompletionResult{AlreadyCompleted: true, Found: true, Habit: &c}, nil
	}

	set, ok := e.ledger[day]
	if !ok {
		set = make(map[string]struct{})
		e.ledger[day] = set
	}
	set[id] = struct{}{}
	e.markDayActive(day)

	if !day.Before(today) {
		streak := h.Streak
		if !h.streakAlive(day) {
			streak = 0
		}
		h.recordStreak(streak + 1)
		h.advanceLast(day)

		c := h.clone()
		return CompletionResult{Found: true, Habit: &c}, nil
	}

	h.advanceLast(day)
	run := e.runEndingLocked(id, *h.LastCompletedDate)
	if run > h.BestStreak {
		h.BestStreak = run
	}
	switch {
	case !h.streakAlive(today):
		h.Streak = 0
	case run > h.Streak:
		h.Streak = run
	}

	c := h.clone()
	return CompletionResult{Found: true, Habit: &c}, nil
}

// UncompleteHabit undoes a completion of id on day, treating day as today.
// BestStreak is kept.
func (e *Engine) UncompleteHabit(id string, day DateKey) (bool, error) {
	return e.UncompleteHabitAsOf(id, day, day)
}

// UncompleteHabitAsOf undoes a completion of id on day as seen from today.
// Undoing today or later takes one off the streak. Undoing a past day cuts
// the streak back to the days that follow it, or to zero when the latest
// remaining completion is no longer alive.
func (e *Engine) UncompleteHabitAsOf(id string, day, today DateKey) (bool, error) {
	if err := validateRef(id, day); err != nil {
		return false, err
	}
	if err := today.Validate(); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.habits[id]
	if !ok || !e.isCompletedLocked(id, day) {
		return false, nil
	}

	// Whether day sits inside the run ending at the latest completion,
	// checked before the ledger changes.
	inRun := false
	if last := h.LastCompletedDate; last != nil {
		inRun = day.After(last.AddDays(-e.runEndingLocked(id, *last)))
	}

	set := e.ledger[day]
	delete(set, id)
	if len(set) == 0 {
		delete(e.ledger, day)
		delete(e.activity, day)
	}
	h.LastCompletedDate = e.latestCompletionLocked(id)

	switch {
	case !day.Before(today):
		if h.Streak > 0 {
			h.Streak--
		}
	case !h.streakAlive(today):
		h.Streak = 0
	case inRun:
		if after := e.runEndingLocked(id, *h.LastCompletedDate); after < h.Streak {
			h.Streak = after
		}
	}

	return true, nil
}

// Rollover zeroes the streak of every habit whose last completion is older
// than yesterday. It returns how many streaks were reset.
func (e *Engine) Rollover(today DateKey) (int, error) {
	if err := today.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	reset := 0
	for _, h := range e.habits {
		if h.Streak > 0 && !h.streakAlive(today) {
			h.Streak = 0
			reset++
		}
	}
	return reset, nil
}

func (e *Engine) IsCompletedOn(id string, day DateKey) (bool, error) {
	if err := validateRef(id, day); err != nil {
		return false, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.isCompletedLocked(id, day), nil
}

// CurrentStreak counts consecutive active days ending at today. It is zero
// when today itself has no activity.
func (e *Engine) CurrentStreak(today DateKey) (int, error) {
	if err := today.Validate(); err != nil {
		return 0, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.currentStreakLocked(today), nil
}

// WeeklyProgress returns the seven days ending at today, oldest first. The
// denominator is the current habit count, not the count on that day.
func (e *Engine) WeeklyProgress(today DateKey) ([WeekLength]DayStat, error) {
	if err := today.Validate(); err != nil {
		return [WeekLength]DayStat{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.weeklyProgressLocked(today), nil
}

func (e *Engine) CompletionRate(today DateKey) (float64, error) {
	if err := today.Validate(); err != nil {
		return 0, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return percentage(len(e.ledger[today]), len(e.habits)), nil
}

func (e *Engine) Stats(today DateKey) (Stats, error) {
	if err := today.Validate(); err != nil {
		return Stats{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	best := 0
	for _, h := range e.habits {
		if h.BestStreak > best {
			best = h.BestStreak
		}
	}

	completed := len(e.ledger[today])
	return Stats{
		Date:           today,
		TotalHabits:    len(e.habits),
		CompletedToday: completed,
		CurrentStreak:  e.currentStreakLocked(today),
		BestStreak:     best,
		CompletionRate: percentage(completed, len(e.habits)),
		WeeklyProgress: e.weeklyProgressLocked(today),
	}, nil
}

func (e *Engine) Habit(id string) (Habit, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h, ok := e.habits[id]
	if !ok {
		return Habit{}, false
	}
	return h.clone(), true
}

// Habits lists habits by creation time, then id.
func (e *Engine) Habits() []Habit {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.habitsLocked()
}

// Status lists habits with their completion state for today derived from
// the ledger, so nothing has to be reset when the day changes.
func (e *Engine) Status(today DateKey) ([]HabitStatus, error) {
	if err := today.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	habits := e.habitsLocked()
	out := make([]HabitStatus, 0, len(habits))
	for _, h := range habits {
		out = append(out, HabitStatus{
			Habit:          h,
			CompletedToday: e.isCompletedLocked(h.ID, today),
		})
	}
	return out, nil
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.habits)
}

// LoadSnapshot replaces the whole engine state. Missing sections are treated
// as empty. The snapshot is validated first and the engine is left untouched
// when it is rejected.
func (e *Engine) LoadSnapshot(s *Snapshot) error {
	if s == nil {
		e.Reset()
		return nil
	}
	if err := s.Validate(); err != nil {
		return err
	}

	habits := make(map[string]*Habit, len(s.Habits))
	for id, h := range s.Habits {
		c := h.clone()
		c.ID = id
		if c.Kind == "" {
			c.Kind = HabitKindBuild
		}
		if c.Streak < 0 {
			c.Streak = 0
		}
		if c.BestStreak < c.Streak {
			c.BestStreak = c.Streak
		}
		habits[id] = &c
	}

	ledger := make(map[DateKey]map[string]struct{}, len(s.HabitCompletion))
	for date, ids := range s.HabitCompletion {
		if len(ids) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		ledger[DateKey(date)] = set
	}

	activity := make(map[DateKey]bool, len(s.ActivityLog))
	for date, active := range s.ActivityLog {
		if active {
			activity[DateKey(date)] = true
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.habits = habits
	e.ledger = ledger
	e.activity = activity
	return nil
}

// ExportSnapshot returns a deep copy of the current state.
func (e *Engine) ExportSnapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := NewSnapshot()
	for id, h := range e.habits {
		s.Habits[id] = h.clone()
	}
	for day, set := range e.ledger {
		s.HabitCompletion[string(day)] = sortedIDs(set)
	}
	for day, active := range e.activity {
		if active {
			s.ActivityLog[string(day)] = true
		}
	}
	return s
}

func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.habits = make(map[string]*Habit)
	e.ledger = make(map[DateKey]map[string]struct{})
	e.activity = make(map[DateKey]bool)
}

func validateRef(id string, day DateKey) error {
	if err := ValidateHabitID(id); err != nil {
		return err
	}
	return day.Validate()
}

func (e *Engine) markDayActive(day DateKey) {
	e.activity[day] = true
}

func (e *Engine) isCompletedLocked(id string, day DateKey) bool {
	_, ok := e.ledger[day][id]
	return ok
}

func (e *Engine) latestCompletionLocked(id string) *DateKey {
	var latest *DateKey
	for day, set := range e.ledger {
		if _, ok := set[id]; !ok {
			continue
		}
		if latest == nil || day.After(*latest) {
			d := day
			latest = &d
		}
	}
	return latest
}

// runEndingLocked counts consecutive ledger days for id ending at end.
func (e *Engine) runEndingLocked(id string, end DateKey) int {
	run := 0
	for day := end; e.isCompletedLocked(id, day); day = day.AddDays(-1) {
		run++
	}
	return run
}

func (e *Engine) currentStreakLocked(today DateKey) int {
	streak := 0
	for day := today; e.activity[day]; day = day.AddDays(-1) {
		streak++
	}
	return streak
}

func (e *Engine) weeklyProgressLocked(today DateKey) [WeekLength]DayStat {
	var week [WeekLength]DayStat
	total := len(e.habits)
	for i := 0; i < WeekLength; i++ {
		day := today.AddDays(i - (WeekLength - 1))
		completed := len(e.ledger[day])
		week[i] = DayStat{
			Date:           day,
			CompletedCount: completed,
			TotalCount:     total,
			Percentage:     percentage(completed, total),
		}
	}
	return week
}

func (e *Engine) habitsLocked() []Habit {
	out := make([]Habit, 0, len(e.habits))
	for _, h := range e.habits {
		out = append(out, h.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
