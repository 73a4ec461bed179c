// Package insights derives completion statistics from a task collection.
//
// The duration prediction is a plain historical mean over similar completed
// tasks. It is not a trained model.
package insights

import "github.com/fastygo/taskflow/domain"

// Recompute derives the user's stats from the full task collection.
// The result depends only on tasks; UpdatedAt is left for the store to set.
func Recompute(userID string, tasks []domain.Task) domain.UserStats {
	stats := domain.UserStats{
		UserID:     userID,
		TotalTasks: len(tasks),
	}

	var (
		timed int
		hours float64
	)
	for _, task := range tasks {
		if !task.IsCompleted() {
			continue
		}
		stats.CompletedTasks++
		// Completed tasks without tracked time stay out of the average.
		if task.ActualTime != nil {
			timed++
			hours += *task.ActualTime
		}
	}

	stats.CompletionRate = rate(stats.CompletedTasks, stats.TotalTasks)
	if timed > 0 {
		stats.AvgCompletionTime = hours / float64(timed)
	}
	return stats
}

// Breakdown tallies tasks per priority. All three priorities are always present.
func Breakdown(tasks []domain.Task) domain.PriorityBreakdown {
	counts := make(map[domain.Priority]*domain.PriorityCount, len(domain.Priorities))
	for _, p := range domain.Priorities {
		counts[p] = &domain.PriorityCount{}
	}
	for _, task := range tasks {
		c, ok := counts[task.Priority]
		if !ok {
			continue
		}
		c.Total++
		if task.IsCompleted() {
			c.Completed++
		}
	}

	out := make(domain.PriorityBreakdown, len(counts))
	for p, c := range counts {
		c.Rate = rate(c.Completed, c.Total)
		out[p] = *c
	}
	return out
}

// Predict estimates hours for candidate from completed tasks sharing its priority and category.
// A similar task without tracked time counts as zero hours. With no similar tasks the
// candidate's own estimate is returned, or 0 when it has none.
func Predict(tasks []domain.Task, candidate domain.Task) float64 {
	var (
		similar int
		hours   float64
	)
	for _, task := range tasks {
		if !task.IsCompleted() || task.Priority != candidate.Priority || task.Category != candidate.Category {
			continue
		}
		similar++
		if task.ActualTime != nil {
			hours += *task.ActualTime
		}
	}
	if similar > 0 {
		return hours / float64(similar)
	}
	if candidate.EstimatedTime != nil {
		return *candidate.EstimatedTime
	}
	return 0
}

// Report is the insights view: stats, per-priority tallies and an optional prediction.
type Report struct {
	Stats          domain.UserStats         `json:"stats"`
	Priorities     domain.PriorityBreakdown `json:"priorities"`
	Candidate      *domain.Task             `json:"candidate,omitempty"`
	PredictedHours *float64                 `json:"predicted_hours,omitempty"`
}

// BuildReport assembles a Report. candidate may be nil.
func BuildReport(userID string, tasks []domain.Task, candidate *domain.Task) Report {
	report := Report{
		Stats:      Recompute(userID, tasks),
		Priorities: Breakdown(tasks),
	}
	if candidate != nil {
		predicted := Predict(tasks, *candidate)
		report.Candidate = candidate
		report.PredictedHours = &predicted
	}
	return report
}

func rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
