package transport

import (
	"time"

	"github.com/fastygo/taskflow/domain"
)

// TaskRequest creates a task. Title blankness is checked by the domain so
// that "  " and "" fail the same way.
type TaskRequest struct {
	Title         string     `json:"title" validate:"max=500"`
	Description   string     `json:"description" validate:"max=10000"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=high medium low"`
	Category      string     `json:"category" validate:"max=100"`
	Deadline      *time.Time `json:"deadline"`
	EstimatedTime *float64   `json:"estimated_time" validate:"omitempty,gte=0"`
	Completed     bool       `json:"completed"`
}

func (r TaskRequest) Input() domain.NewTaskInput {
	return domain.NewTaskInput{
		Title:         r.Title,
		Description:   r.Description,
		Priority:      domain.Priority(r.Priority),
		Category:      r.Category,
		Deadline:      r.Deadline,
		EstimatedTime: r.EstimatedTime,
		Completed:     r.Completed,
	}
}

// TaskPatchRequest edits a task. Absent fields are kept; the clear_* flags
// remove optional values.
type TaskPatchRequest struct {
	Title              *string    `json:"title" validate:"omitempty,max=500"`
	Description        *string    `json:"description" validate:"omitempty,max=10000"`
	Completed          *bool      `json:"completed"`
	Priority           *string    `json:"priority" validate:"omitempty,oneof=high medium low"`
	Category           *string    `json:"category" validate:"omitempty,max=100"`
	Deadline           *time.Time `json:"deadline"`
	ClearDeadline      bool       `json:"clear_deadline"`
	EstimatedTime      *float64   `json:"estimated_time" validate:"omitempty,gte=0"`
	ClearEstimatedTime bool       `json:"clear_estimated_time"`
	ActualTime         *float64   `json:"actual_time" validate:"omitempty,gte=0"`
	ClearActualTime    bool       `json:"clear_actual_time"`
}

func (r TaskPatchRequest) Patch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:           r.Title,
		Description:     r.Description,
		Completed:       r.Completed,
		Category:        r.Category,
		Deadline:        r.Deadline,
		ClearDeadline:   r.ClearDeadline,
		EstimatedTime:   r.EstimatedTime,
		ClearEstimate:   r.ClearEstimatedTime,
		ActualTime:      r.ActualTime,
		ClearActualTime: r.ClearActualTime,
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

// AssignRequest sets the assignee. An empty member id unassigns.
type AssignRequest struct {
	MemberID string `json:"member_id" validate:"max=128"`
}

type CollaboratorRequest struct {
	MemberID string `json:"member_id" validate:"required,max=128"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"max=5000"`
}

type PredictRequest struct {
	Priority      string   `json:"priority" validate:"omitempty,oneof=high medium low"`
	Category      string   `json:"category" validate:"max=100"`
	EstimatedTime *float64 `json:"estimated_time" validate:"omitempty,gte=0"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Email  string `json:"email" validate:"omitempty,email"`
	TTL    int    `json:"ttl_seconds" validate:"gte=0"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	TTL       int    `json:"ttl_seconds" validate:"gte=0"`
}
