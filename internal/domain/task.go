package domain

// Task represents a task in the domain model.
// This is a pure domain model without storage-specific concerns.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewTask creates a new Task with the given title and description.
// The ID is assigned by the store on insert.
func NewTask(title, description string) Task {
	return Task{
		Title:       title,
		Description: description,
	}
}

// String returns the task title for display purposes.
func (t Task) String() string {
	return t.Title
}

// CloneTasks returns a copy of the given snapshot so callers never share
// the backing array with the store.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// IDs returns the ids of the given tasks in order.
func IDs(tasks []Task) []int64 {
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
