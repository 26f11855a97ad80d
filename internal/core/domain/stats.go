package domain

const WeekLength = 7

type DayStat struct {
	Date           DateKey `json:"date"`
	CompletedCount int     `json:"completed_count"`
	TotalCount     int     `json:"total_count"`
	Percentage     float64 `json:"percentage"`
}

type Stats struct {
	Date           DateKey             `json:"date"`
	TotalHabits    int                 `json:"total_habits"`
	CompletedToday int                 `json:"completed_today"`
	CurrentStreak  int                 `json:"current_streak"`
	BestStreak     int                 `json:"best_streak"`
	CompletionRate float64             `json:"completion_rate"`
	WeeklyProgress [WeekLength]DayStat `json:"weekly_progress"`
}

type HabitStatus struct {
	Habit
	CompletedToday bool `json:"completedToday"`
}

type CompletionResult struct {
	AlreadyCompleted bool   `json:"already_completed"`
	Found            bool   `json:"found"`
	Habit            *Habit `json:"habit,omitempty"`
}

func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(part) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
