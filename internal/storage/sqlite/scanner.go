package sqlite

import (
	"tasklist/internal/domain"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// ScanTask scans a single task from a database row
func ScanTask(scanner Scanner) (*taskRow, error) {
	row := &taskRow{}
	if err := scanner.Scan(&row.ID, &row.Title, &row.Description); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanTasks scans multiple tasks from database rows into domain tasks.
// An empty result is an empty, non-nil slice.
func ScanTasks(rows Rows) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	for rows.Next() {
		row, err := ScanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}
