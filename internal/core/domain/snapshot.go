package domain

import (
	"fmt"
	"sort"
	"time"
)

// Snapshot is the persisted form of a user's tracking state. Field names
// follow the document layout used by the mobile clients.
type Snapshot struct {
	Habits          map[string]Habit    `json:"habits" bson:"habits"`
	HabitCompletion map[string][]string `json:"habitCompletion" bson:"habitCompletion"`
	ActivityLog     map[string]bool     `json:"activityLog" bson:"activityLog"`

	Version   int       `json:"version,omitempty" bson:"version"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Habits:          make(map[string]Habit),
		HabitCompletion: make(map[string][]string),
		ActivityLog:     make(map[string]bool),
	}
}

// Validate checks every key and identifier in the document.
func (s *Snapshot) Validate() error {
	for id, h := range s.Habits {
		if err := ValidateHabitID(id); err != nil {
			return fmt.Errorf("habits[%q]: %w", id, err)
		}
		if h.ID != "" && h.ID != id {
			return fmt.Errorf("habits[%q]: id mismatch %q: %w", id, h.ID, ErrInvalidHabitID)
		}
		if h.Kind != "" {
			if _, err := ParseHabitKind(string(h.Kind)); err != nil {
				return fmt.Errorf("habits[%q]: %w", id, err)
			}
		}
		if h.LastCompletedDate != nil {
			if err := h.LastCompletedDate.Validate(); err != nil {
				return fmt.Errorf("habits[%q].lastCompletedDate: %w", id, err)
			}
		}
	}
	for date, ids := range s.HabitCompletion {
		if _, err := ParseDateKey(date); err != nil {
			return fmt.Errorf("habitCompletion: %w", err)
		}
		for _, id := range ids {
			if err := ValidateHabitID(id); err != nil {
				return fmt.Errorf("habitCompletion[%q]: %w", date, err)
			}
		}
	}
	for date := range s.ActivityLog {
		if _, err := ParseDateKey(date); err != nil {
			return fmt.Errorf("activityLog: %w", err)
		}
	}
	return nil
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
