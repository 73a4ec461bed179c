package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority is the ordinal severity tag of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least severe.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities so that high sorts first. Unknown values rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

const (
	CategoryPersonal = "Personal"
	CategoryWork     = "Work"
)

// DefaultCategories is offered when a user has no tasks yet.
var DefaultCategories = []string{CategoryPersonal, CategoryWork}

// Comment is an append-only note attached to a task.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Collaboration holds the sparse collaboration metadata of a task.
// Member identifiers are stored as-is; resolving them is the member directory's job.
type Collaboration struct {
	AssignedTo    string    `json:"assigned_to,omitempty"`
	Collaborators []string  `json:"collaborators,omitempty"`
	Comments      []Comment `json:"comments,omitempty"`
}

// HasCollaborator reports whether memberID is already a collaborator.
func (c *Collaboration) HasCollaborator(memberID string) bool {
	return c != nil && slices.Contains(c.Collaborators, memberID)
}

// AddCollaborator inserts memberID once. It reports whether the set changed.
func (c *Collaboration) AddCollaborator(memberID string) bool {
	if c.HasCollaborator(memberID) {
		return false
	}
	c.Collaborators = append(c.Collaborators, memberID)
	return true
}

// IsEmpty reports whether no collaboration data is set.
func (c *Collaboration) IsEmpty() bool {
	return c == nil || (c.AssignedTo == "" && len(c.Collaborators) == 0 && len(c.Comments) == 0)
}

// Clone returns a deep copy.
func (c *Collaboration) Clone() *Collaboration {
	if c == nil {
		return nil
	}
	return &Collaboration{
		AssignedTo:    c.AssignedTo,
		Collaborators: slices.Clone(c.Collaborators),
		Comments:      slices.Clone(c.Comments),
	}
}

// Task represents a user-owned unit of work.
type Task struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Completed     bool           `json:"completed"`
	Priority      Priority       `json:"priority"`
	Category      string         `json:"category"`
	Deadline      *time.Time     `json:"deadline,omitempty"`
	EstimatedTime *float64       `json:"estimated_time,omitempty"`
	ActualTime    *float64       `json:"actual_time,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Collaboration *Collaboration `json:"collaboration,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsCompleted reports whether t is done. A nil task is not.
func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	out := t
	out.Deadline = cloneTime(t.Deadline)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.EstimatedTime = cloneFloat(t.EstimatedTime)
	out.ActualTime = cloneFloat(t.ActualTime)
	out.Collaboration = t.Collaboration.Clone()
	return out
}

// NewTaskInput carries the caller-supplied fields of a task creation.
type NewTaskInput struct {
	Title         string
	Description   string
	Priority      Priority
	Category      string
	Deadline      *time.Time
	EstimatedTime *float64
	Completed     bool
}

// TaskPatch is a shallow field patch. Nil fields are preserved.
type TaskPatch struct {
	Title           *string
	Description     *string
	Completed       *bool
	Priority        *Priority
	Category        *string
	Deadline        *time.Time
	ClearDeadline   bool
	EstimatedTime   *float64
	ClearEstimate   bool
	ActualTime      *float64
	ClearActualTime bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.Priority == nil && p.Category == nil && p.Deadline == nil && !p.ClearDeadline &&
		p.EstimatedTime == nil && !p.ClearEstimate && p.ActualTime == nil && !p.ClearActualTime
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
