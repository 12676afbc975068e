package sqlite

import (
	stderrors "errors"
	"testing"

	"tasklist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	data [][]interface{}
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.data)
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.data[r.pos-1]
	*(dest[0].(*int64)) = row[0].(int64)
	*(dest[1].(*string)) = row[1].(string)
	*(dest[2].(*string)) = row[2].(string)
	return nil
}

func (r *fakeRows) Err() error { return r.err }

func TestScanTasks(t *testing.T) {
	rows := &fakeRows{data: [][]interface{}{
		{int64(2), "Call mom", ""},
		{int64(1), "Buy eggs", "a dozen"},
	}}

	tasks, err := ScanTasks(rows)
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{
		{ID: 2, Title: "Call mom"},
		{ID: 1, Title: "Buy eggs", Description: "a dozen"},
	}, tasks)
}

func TestScanTasks_Empty(t *testing.T) {
	tasks, err := ScanTasks(&fakeRows{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestScanTasks_RowsError(t *testing.T) {
	_, err := ScanTasks(&fakeRows{err: stderrors.New("interrupted")})
	assert.Error(t, err)
}
