package filter

import (
	"strings"
	"sync"
	"testing"

	"tasklist/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() []domain.Task {
	return []domain.Task{
		{ID: 3, Title: "Buy milk"},
		{ID: 2, Title: "Call mom"},
		{ID: 1, Title: "Buy eggs"},
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "buy", Normalize("  BuY \t"))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "call mom", Normalize("Call Mom"))
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"substring match keeps order", "buy", []int64{3, 1}},
		{"case insensitive", "BUY", []int64{3, 1}},
		{"surrounding whitespace ignored", "  mom  ", []int64{2}},
		{"empty query keeps everything", "", []int64{3, 2, 1}},
		{"blank query keeps everything", "   ", []int64{3, 2, 1}},
		{"no match", "ZZZ", []int64{}},
		{"inner space is significant", "buy m", []int64{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sampleSnapshot(), tt.query)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, domain.IDs(got))
		})
	}
}

func TestApply_ReturnsFullTasks(t *testing.T) {
	got := Apply(sampleSnapshot(), "buy")
	assert.Equal(t, []domain.Task{{ID: 3, Title: "Buy milk"}, {ID: 1, Title: "Buy eggs"}}, got)
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	snapshot := sampleSnapshot()

	got := Apply(snapshot, "")
	got[0].Title = "changed"
	assert.Equal(t, "Buy milk", snapshot[0].Title)

	got = Apply(snapshot, "buy")
	got[0].Title = "changed"
	assert.Equal(t, "Buy milk", snapshot[0].Title)
}

func TestApply_Idempotent(t *testing.T) {
	once := Apply(sampleSnapshot(), "buy")
	twice := Apply(once, "buy")
	assert.Equal(t, once, twice)
}

func TestApply_NilSnapshot(t *testing.T) {
	assert.Equal(t, []domain.Task{}, Apply(nil, ""))
	assert.Equal(t, []domain.Task{}, Apply(nil, "x"))
}

func TestEngine_RecomputesOnSnapshotChange(t *testing.T) {
	e := NewEngine()
	e.SetQuery("buy")
	assert.Empty(t, e.Displayed())

	e.SetSnapshot(sampleSnapshot())
	assert.Equal(t, []int64{3, 1}, domain.IDs(e.Displayed()))

	e.SetSnapshot(append([]domain.Task{{ID: 4, Title: "buy bread"}}, sampleSnapshot()...))
	assert.Equal(t, []int64{4, 3, 1}, domain.IDs(e.Displayed()))
}

func TestEngine_RecomputesOnQueryChange(t *testing.T) {
	e := NewEngine()
	e.SetSnapshot(sampleSnapshot())
	assert.Equal(t, []int64{3, 2, 1}, domain.IDs(e.Displayed()))

	e.SetQuery("call")
	assert.Equal(t, []int64{2}, domain.IDs(e.Displayed()))
	assert.Equal(t, "call", e.Query())

	e.SetQuery("")
	assert.Equal(t, []int64{3, 2, 1}, domain.IDs(e.Displayed()))
}

func TestEngine_OnChange(t *testing.T) {
	e := NewEngine()
	var calls [][]int64
	var views []View
	e.OnChange(func(view View) {
		calls = append(calls, domain.IDs(view.Tasks))
		views = append(views, view)
	})

	e.SetSnapshot(sampleSnapshot())
	e.SetQuery("buy")
	e.SetQuery("zzz")

	require.Len(t, calls, 3)
	assert.Equal(t, []int64{3, 2, 1}, calls[0])
	assert.Equal(t, []int64{3, 1}, calls[1])
	assert.Equal(t, []int64{}, calls[2])

	assert.Equal(t, []string{"", "buy", "zzz"}, []string{views[0].Query, views[1].Query, views[2].Query})
	for _, view := range views {
		assert.Equal(t, 3, view.Total)
	}
}

func TestEngine_ViewMatchesItsQuery(t *testing.T) {
	e := NewEngine()
	var mu sync.Mutex
	var views []View
	e.OnChange(func(view View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, view)
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			e.SetSnapshot(sampleSnapshot()[:1+i%3])
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			e.SetQuery([]string{"buy", "mom", "", "eggs"}[i%4])
		}
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, views, 200)
	for _, view := range views {
		for _, task := range view.Tasks {
			assert.Contains(t, strings.ToLower(task.Title), Normalize(view.Query))
		}
		assert.LessOrEqual(t, len(view.Tasks), view.Total)
	}

	current := e.View()
	assert.Equal(t, Apply(e.Snapshot(), current.Query), current.Tasks)
}

func TestEngine_CallbackMayReadState(t *testing.T) {
	e := NewEngine()
	var fromCallback []domain.Task
	e.OnChange(func(View) {
		fromCallback = e.Displayed()
	})

	e.SetSnapshot(sampleSnapshot())
	assert.Len(t, fromCallback, 3)
}

func TestEngine_SnapshotIsCopied(t *testing.T) {
	e := NewEngine()
	snapshot := sampleSnapshot()
	e.SetSnapshot(snapshot)

	snapshot[0].Title = "changed"
	assert.Equal(t, "Buy milk", e.Snapshot()[0].Title)
	assert.Equal(t, "Buy milk", e.Displayed()[0].Title)
}

func TestEngine_ConsistentUnderConcurrentUpdates(t *testing.T) {
	e := NewEngine()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			e.SetSnapshot(sampleSnapshot())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				e.SetQuery("buy")
			} else {
				e.SetQuery("mom")
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, Apply(e.Snapshot(), e.Query()), e.Displayed())
}
