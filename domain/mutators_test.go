package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func assertCompletionInvariant(t *testing.T, task Task) {
	t.Helper()
	if task.Completed != (task.CompletedAt != nil) {
		t.Fatalf("completed=%v but completed_at=%v", task.Completed, task.CompletedAt)
	}
}

func TestNewTask(t *testing.T) {
	t.Run("blank title rejected", func(t *testing.T) {
		for _, title := range []string{"", "   ", "\t\n"} {
			if _, err := NewTask("u1", NewTaskInput{Title: title, Priority: PriorityHigh}, "", testNow); !errors.Is(err, ErrEmptyTitle) {
				t.Errorf("title %q: expected ErrEmptyTitle, got %v", title, err)
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		task, err := NewTask("u1", NewTaskInput{Title: "  Write report "}, "Work", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.Title != "Write report" {
			t.Errorf("expected trimmed title, got %q", task.Title)
		}
		if task.Category != "Work" {
			t.Errorf("expected default category Work, got %q", task.Category)
		}
		if task.Priority != PriorityMedium {
			t.Errorf("expected medium priority, got %q", task.Priority)
		}
		if task.Completed || task.ID != "" || task.UserID != "u1" {
			t.Errorf("unexpected task state: %+v", task)
		}
		assertCompletionInvariant(t, task)
	})

	t.Run("falls back to Personal", func(t *testing.T) {
		task, err := NewTask("u1", NewTaskInput{Title: "x", Category: " "}, "", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.Category != CategoryPersonal {
			t.Errorf("expected %q, got %q", CategoryPersonal, task.Category)
		}
	})

	t.Run("explicit completed stamps completed_at", func(t *testing.T) {
		task, err := NewTask("u1", NewTaskInput{Title: "x", Completed: true}, "", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertCompletionInvariant(t, task)
		if !task.CompletedAt.Equal(testNow) {
			t.Errorf("expected completed_at %v, got %v", testNow, task.CompletedAt)
		}
	})

	t.Run("invalid priority", func(t *testing.T) {
		if _, err := NewTask("u1", NewTaskInput{Title: "x", Priority: "urgent"}, "", testNow); !errors.Is(err, ErrInvalidPriority) {
			t.Errorf("expected ErrInvalidPriority, got %v", err)
		}
	})
}

func TestToggleComplete(t *testing.T) {
	task := Task{ID: "t1", Title: "x", Priority: PriorityLow, Category: "Work"}

	done := ToggleComplete(task, testNow)
	assertCompletionInvariant(t, done)
	if !done.IsCompleted() {
		t.Fatal("expected task to be completed")
	}
	if task.Completed || task.CompletedAt != nil {
		t.Fatal("input task was modified")
	}

	reopened := ToggleComplete(done, testNow.Add(time.Hour))
	assertCompletionInvariant(t, reopened)
	if reopened.Completed {
		t.Fatal("expected task to be reopened")
	}
	if reopened.ID != task.ID {
		t.Errorf("id changed from %q to %q", task.ID, reopened.ID)
	}

	var missing *Task
	if missing.IsCompleted() {
		t.Error("nil task reported as completed")
	}
}

func TestEditFields(t *testing.T) {
	deadline := testNow.Add(48 * time.Hour)
	base := Task{
		ID:          "t1",
		Title:       "Original",
		Description: "keep me",
		Priority:    PriorityLow,
		Category:    "Work",
		Deadline:    &deadline,
	}

	t.Run("preserves absent fields", func(t *testing.T) {
		next, err := EditFields(base, TaskPatch{Title: ptr("Renamed")}, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.Title != "Renamed" || next.Description != "keep me" || next.Category != "Work" {
			t.Errorf("unexpected merge result: %+v", next)
		}
		if next.Deadline == nil || !next.Deadline.Equal(deadline) {
			t.Errorf("deadline lost: %v", next.Deadline)
		}
	})

	t.Run("completion round trip", func(t *testing.T) {
		done, err := EditFields(base, TaskPatch{Completed: ptr(true)}, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertCompletionInvariant(t, done)
		reopened, err := EditFields(done, TaskPatch{Completed: ptr(false)}, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertCompletionInvariant(t, reopened)
		if reopened.Completed {
			t.Error("expected reopened task")
		}
	})

	t.Run("clear flags", func(t *testing.T) {
		withEstimate := base
		withEstimate.EstimatedTime = ptr(3.0)
		next, err := EditFields(withEstimate, TaskPatch{ClearDeadline: true, ClearEstimate: true}, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.Deadline != nil || next.EstimatedTime != nil {
			t.Errorf("expected cleared optionals, got %+v", next)
		}
	})

	tests := []struct {
		name  string
		patch TaskPatch
		want  error
	}{
		{"blank title", TaskPatch{Title: ptr("  ")}, ErrEmptyTitle},
		{"blank category", TaskPatch{Category: ptr("")}, ErrEmptyCategory},
		{"bad priority", TaskPatch{Priority: ptr(Priority("urgent"))}, ErrInvalidPriority},
		{"negative actual", TaskPatch{ActualTime: ptr(-1.0)}, ErrNegativeHours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := EditFields(base, tt.patch, testNow)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if next.Title != base.Title || next.Category != base.Category {
				t.Errorf("task changed on rejected patch: %+v", next)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	task := Assign(Task{ID: "t1"}, " m1 ")
	if task.Collaboration == nil || task.Collaboration.AssignedTo != "m1" {
		t.Fatalf("expected assignment to m1, got %+v", task.Collaboration)
	}
	cleared := Assign(task, "")
	if cleared.Collaboration.AssignedTo != "" {
		t.Errorf("expected cleared assignment, got %q", cleared.Collaboration.AssignedTo)
	}
	if task.Collaboration.AssignedTo != "m1" {
		t.Error("input task was modified")
	}
	if untouched := Assign(Task{ID: "t2"}, ""); untouched.Collaboration != nil {
		t.Errorf("expected nil collaboration, got %+v", untouched.Collaboration)
	}
}

func TestAddCollaborator(t *testing.T) {
	task, err := AddCollaborator(Task{ID: "t1"}, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task, err = AddCollaborator(task, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task, err = AddCollaborator(task, "m2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := task.Collaboration.Collaborators
	if len(got) != 2 || got[0] != "m1" || got[1] != "m2" {
		t.Errorf("expected [m1 m2], got %v", got)
	}

	if _, err := AddCollaborator(task, " "); !errors.Is(err, ErrEmptyMemberID) {
		t.Errorf("expected ErrEmptyMemberID, got %v", err)
	}
}

func TestAppendComment(t *testing.T) {
	base := Task{ID: "t1"}
	first, err := AppendComment(base, "looks good", "m1", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := AppendComment(first, "ship it", "m2", testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comments := second.Collaboration.Comments
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Text != "looks good" || comments[1].Author != "m2" {
		t.Errorf("unexpected comments: %+v", comments)
	}
	if comments[0].ID == "" || comments[0].ID == comments[1].ID {
		t.Errorf("expected distinct comment ids, got %q and %q", comments[0].ID, comments[1].ID)
	}
	if len(first.Collaboration.Comments) != 1 {
		t.Error("earlier state was modified")
	}

	if _, err := AppendComment(second, "  ", "m1", testNow); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("expected ErrEmptyComment, got %v", err)
	}
}
