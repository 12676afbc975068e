package sqlite

import "tasklist/internal/domain"

// taskRow mirrors a row of the tasks table
type taskRow struct {
	ID          int64
	Title       string
	Description string
}

func (r taskRow) toDomain() domain.Task {
	return domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
	}
}

func rowFromDomain(t domain.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
	}
}
