package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidHabitID   = errors.New("invalid habit id (lowercase letters, digits, '-' or '_', max 64 chars)")
	ErrInvalidHabitKind = errors.New("invalid habit kind (must be build or break)")
	ErrMetadataTooLarge = errors.New("habit metadata is too large (max 32 keys, 500 chars per value)")
	ErrHabitNotFound    = errors.New("habit not found")
)

var habitIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

type HabitKind string

const (
	HabitKindBuild HabitKind = "build"
	HabitKindBreak HabitKind = "break"

	MaxMetadataKeys  = 32
	MaxMetadataValue = 500
)

func ParseHabitKind(s string) (HabitKind, error) {
	switch k := HabitKind(strings.ToLower(strings.TrimSpace(s))); k {
	case HabitKindBuild, HabitKindBreak:
		return k, nil
	default:
		return "", ErrInvalidHabitKind
	}
}

// Habit is a behavior the user builds or breaks. Kind is a label only:
// completion mechanics are the same for both.
type Habit struct {
	ID                string            `json:"id" bson:"id"`
	Kind              HabitKind         `json:"kind" bson:"kind"`
	Metadata          map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"createdAt" bson:"createdAt"`
	Streak            int               `json:"streak" bson:"streak"`
	BestStreak        int               `json:"bestStreak" bson:"bestStreak"`
	LastCompletedDate *DateKey          `json:"lastCompletedDate,omitempty" bson:"lastCompletedDate,omitempty"`
}

func ValidateHabitID(id string) error {
	if !habitIDRegex.MatchString(id) {
		return ErrInvalidHabitID
	}
	return nil
}

func validateMetadata(metadata map[string]string) error {
	if len(metadata) > MaxMetadataKeys {
		return ErrMetadataTooLarge
	}
	for _, v := range metadata {
		if len(v) > MaxMetadataValue {
			return ErrMetadataTooLarge
		}
	}
	return nil
}

func NewHabit(id string, kind HabitKind, metadata map[string]string, now time.Time) (*Habit, error) {
	if err := ValidateHabitID(id); err != nil {
		return nil, err
	}
	if _, err := ParseHabitKind(string(kind)); err != nil {
		return nil, err
	}
	if err := validateMetadata(metadata); err != nil {
		return nil, err
	}

	return &Habit{
		ID:        id,
		Kind:      kind,
		Metadata:  copyMetadata(metadata),
		CreatedAt: now.UTC(),
	}, nil
}

func (h *Habit) clone() Habit {
	c := *h
	c.Metadata = copyMetadata(h.Metadata)
	if h.LastCompletedDate != nil {
		d := *h.LastCompletedDate
		c.LastCompletedDate = &d
	}
	return c
}

// streakAlive reports whether the habit's streak can still be extended on today.
func (h *Habit) streakAlive(today DateKey) bool {
	if h.LastCompletedDate == nil {
		return false
	}
	last := *h.LastCompletedDate
	return last == today || last == today.AddDays(-1) || last.After(today)
}

func (h *Habit) recordStreak(streak int) {
	h.Streak = streak
	if h.Streak > h.BestStreak {
		h.BestStreak = h.Streak
	}
}

func (h *Habit) advanceLast(day DateKey) {
	if h.LastCompletedDate == nil || day.After(*h.LastCompletedDate) {
		d := day
		h.LastCompletedDate = &d
	}
}

func copyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
