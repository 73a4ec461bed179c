package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// The functions in this file are the task state transitions. They never touch
// storage and never modify their argument; each returns the next state.

// NewTask validates creation input and builds an unsaved task owned by ownerID.
// The id is left empty for the repository to assign.
func NewTask(ownerID string, in NewTaskInput, defaultCategory string, now time.Time) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return Task{}, ErrInvalidPriority
	}
	if in.EstimatedTime != nil && *in.EstimatedTime < 0 {
		return Task{}, ErrNegativeHours
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = strings.TrimSpace(defaultCategory)
	}
	if category == "" {
		category = CategoryPersonal
	}

	task := Task{
		UserID:        ownerID,
		Title:         title,
		Description:   in.Description,
		Priority:      priority,
		Category:      category,
		Deadline:      cloneTime(in.Deadline),
		EstimatedTime: cloneFloat(in.EstimatedTime),
	}
	if in.Completed {
		task = setCompletion(task, true, now)
	}
	return task, nil
}

// ToggleComplete flips the completion state, keeping completed_at in step.
func ToggleComplete(task Task, now time.Time) Task {
	return setCompletion(task.Clone(), !task.Completed, now)
}

// EditFields applies a shallow patch. Fields absent from the patch are preserved.
// Setting completed to true stamps completed_at with now; setting it to false clears it.
func EditFields(task Task, patch TaskPatch, now time.Time) (Task, error) {
	next := task.Clone()

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return task, ErrEmptyTitle
		}
		next.Title = title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return task, ErrInvalidPriority
		}
		next.Priority = *patch.Priority
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return task, ErrEmptyCategory
		}
		next.Category = category
	}

	switch {
	case patch.ClearDeadline:
		next.Deadline = nil
	case patch.Deadline != nil:
		next.Deadline = cloneTime(patch.Deadline)
	}

	switch {
	case patch.ClearEstimate:
		next.EstimatedTime = nil
	case patch.EstimatedTime != nil:
		if *patch.EstimatedTime < 0 {
			return task, ErrNegativeHours
		}
		next.EstimatedTime = cloneFloat(patch.EstimatedTime)
	}

	switch {
	case patch.ClearActualTime:
		next.ActualTime = nil
	case patch.ActualTime != nil:
		if *patch.ActualTime < 0 {
			return task, ErrNegativeHours
		}
		next.ActualTime = cloneFloat(patch.ActualTime)
	}

	if patch.Completed != nil {
		next = setCompletion(next, *patch.Completed, now)
	}
	return next, nil
}

// Assign sets the assignee. An empty member id clears the assignment.
func Assign(task Task, memberID string) Task {
	next := task.Clone()
	memberID = strings.TrimSpace(memberID)
	if next.Collaboration == nil {
		if memberID == "" {
			return next
		}
		next.Collaboration = &Collaboration{}
	}
	next.Collaboration.AssignedTo = memberID
	return next
}

// AddCollaborator adds memberID to the collaborator set; a no-op when already present.
func AddCollaborator(task Task, memberID string) (Task, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return task, ErrEmptyMemberID
	}
	next := task.Clone()
	if next.Collaboration == nil {
		next.Collaboration = &Collaboration{}
	}
	next.Collaboration.AddCollaborator(memberID)
	return next, nil
}

// AppendComment appends a new comment with a fresh id.
func AppendComment(task Task, text, author string, now time.Time) (Task, error) {
	if blank(text) {
		return task, ErrEmptyComment
	}
	next := task.Clone()
	if next.Collaboration == nil {
		next.Collaboration = &Collaboration{}
	}
	next.Collaboration.Comments = append(next.Collaboration.Comments, Comment{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		CreatedAt: now,
	})
	return next, nil
}

func setCompletion(task Task, completed bool, now time.Time) Task {
	task.Completed = completed
	if completed {
		stamp := now
		task.CompletedAt = &stamp
	} else {
		task.CompletedAt = nil
	}
	return task
}
