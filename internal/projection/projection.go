// Package projection builds sorted and filtered read-only views of a task collection.
package projection

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fastygo/taskflow/domain"
)

type SortKey string

const (
	SortNone     SortKey = "none"
	SortPriority SortKey = "priority"
	SortDeadline SortKey = "deadline"
	SortCategory SortKey = "category"
)

type Filter string

const (
	FilterAll  Filter = "all"
	FilterTodo Filter = "todo"
	FilterDone Filter = "done"
)

// ParseSortKey treats the empty string as SortPriority. SortNone keeps store order.
func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case "":
		return SortPriority, nil
	case SortNone, SortPriority, SortDeadline, SortCategory:
		return key, nil
	}
	return SortPriority, domain.Validation("sort must be one of priority, deadline, category, none")
}

// ParseFilter treats the empty string as FilterAll.
func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterTodo, FilterDone:
		return f, nil
	}
	return FilterAll, domain.Validation("filter must be one of all, todo, done")
}

// Engine projects task collections. The zero value collates categories as English.
type Engine struct {
	locale language.Tag
}

// NewEngine builds an engine collating categories for locale. Unparseable locales fall back to English.
func NewEngine(locale string) Engine {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Engine{locale: tag}
}

// Project filters then stably sorts a copy of tasks. The input slice is never modified.
func (e Engine) Project(tasks []domain.Task, key SortKey, filter Filter) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if keep(task, filter) {
			out = append(out, task)
		}
	}

	switch key {
	case SortPriority:
		slices.SortStableFunc(out, byPriority)
	case SortDeadline:
		slices.SortStableFunc(out, byDeadline)
	case SortCategory:
		// Collators keep internal buffers, so each projection gets its own.
		col := collate.New(e.tag())
		slices.SortStableFunc(out, func(a, b domain.Task) int {
			return col.CompareString(a.Category, b.Category)
		})
	}
	return out
}

// Project runs the zero-value engine.
func Project(tasks []domain.Task, key SortKey, filter Filter) []domain.Task {
	return Engine{}.Project(tasks, key, filter)
}

// Categories lists distinct categories in first-seen order, or the defaults when there are none.
func Categories(tasks []domain.Task) []string {
	seen := make(map[string]struct{}, len(tasks))
	var out []string
	for _, task := range tasks {
		if task.Category == "" {
			continue
		}
		if _, ok := seen[task.Category]; ok {
			continue
		}
		seen[task.Category] = struct{}{}
		out = append(out, task.Category)
	}
	if len(out) == 0 {
		return slices.Clone(domain.DefaultCategories)
	}
	return out
}

func (e Engine) tag() language.Tag {
	if e.locale == language.Und {
		return language.English
	}
	return e.locale
}

func keep(task domain.Task, filter Filter) bool {
	switch filter {
	case FilterTodo:
		return !task.IsCompleted()
	case FilterDone:
		return task.IsCompleted()
	}
	return true
}

func byPriority(a, b domain.Task) int {
	return a.Priority.Rank() - b.Priority.Rank()
}

// byDeadline orders dated tasks ascending and undated tasks after them.
func byDeadline(a, b domain.Task) int {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return 0
	case a.Deadline == nil:
		return 1
	case b.Deadline == nil:
		return -1
	}
	return a.Deadline.Compare(*b.Deadline)
}
