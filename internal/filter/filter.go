// Package filter derives the displayed task list from the full snapshot
// and a search query.
package filter

import (
	"strings"
	"sync"

	"tasklist/internal/domain"
)

// Normalize trims and lowercases a query
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Apply returns the tasks whose title contains query, ignoring case, in
// snapshot order. A blank query keeps every task. The result never aliases
// tasks.
func Apply(tasks []domain.Task, query string) []domain.Task {
	q := Normalize(query)
	if q == "" {
		return domain.CloneTasks(tasks)
	}

	matched := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), q) {
			matched = append(matched, task)
		}
	}
	return matched
}

// View is one recomputation of the displayed list together with the query
// and snapshot size it was computed from
type View struct {
	Query string
	Total int
	Tasks []domain.Task
}

// Engine holds the latest snapshot and query and recomputes the displayed
// list as soon as either changes
type Engine struct {
	// notifyMu orders recomputation with the change callback
	notifyMu sync.Mutex

	mu        sync.RWMutex
	snapshot  []domain.Task
	query     string
	displayed []domain.Task
	onChange  func(View)
}

// NewEngine creates an engine with an empty snapshot and query
func NewEngine() *Engine {
	return &Engine{
		snapshot:  []domain.Task{},
		displayed: []domain.Task{},
	}
}

// OnChange sets the callback invoked with the new view after every
// recomputation. The callback must not call SetSnapshot or SetQuery.
func (e *Engine) OnChange(fn func(View)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// SetSnapshot replaces the full snapshot and recomputes
func (e *Engine) SetSnapshot(tasks []domain.Task) {
	e.update(func() {
		e.snapshot = domain.CloneTasks(tasks)
	})
}

// SetQuery replaces the query and recomputes
func (e *Engine) SetQuery(query string) {
	e.update(func() {
		e.query = query
	})
}

// Displayed returns a copy of the current displayed list
func (e *Engine) Displayed() []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.CloneTasks(e.displayed)
}

// Query returns the query as it was set
func (e *Engine) Query() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.query
}

// View returns the current displayed list with its query and total
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view()
}

// Snapshot returns a copy of the full snapshot
func (e *Engine) Snapshot() []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.CloneTasks(e.snapshot)
}

func (e *Engine) update(change func()) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	change()
	e.displayed = Apply(e.snapshot, e.query)
	out := e.view()
	callback := e.onChange
	e.mu.Unlock()

	if callback != nil {
		callback(out)
	}
}

// view must be called with mu held
func (e *Engine) view() View {
	return View{
		Query: e.query,
		Total: len(e.snapshot),
		Tasks: domain.CloneTasks(e.displayed),
	}
}
