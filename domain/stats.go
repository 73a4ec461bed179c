package domain

import "time"

// UserStats is the cached per-user aggregate of the task collection.
// It is always rebuilt from the tasks, never edited field by field.
type UserStats struct {
	UserID            string    `json:"user_id"`
	TotalTasks        int       `json:"total_tasks"`
	CompletedTasks    int       `json:"completed_tasks"`
	CompletionRate    float64   `json:"completion_rate"`
	AvgCompletionTime float64   `json:"avg_completion_time"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SameAggregate compares the derived figures and ignores bookkeeping timestamps.
func (s UserStats) SameAggregate(other UserStats) bool {
	return s.UserID == other.UserID &&
		s.TotalTasks == other.TotalTasks &&
		s.CompletedTasks == other.CompletedTasks &&
		s.CompletionRate == other.CompletionRate &&
		s.AvgCompletionTime == other.AvgCompletionTime
}

// PriorityCount is the completion tally of one priority.
type PriorityCount struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// PriorityBreakdown maps every priority to its tally. It is computed on demand and never stored.
type PriorityBreakdown map[Priority]PriorityCount
