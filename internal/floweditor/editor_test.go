package floweditor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDirectory() []Approver {
	return []Approver{
		{ID: "u1", FullName: "Alice Tan", Position: "HR Manager", Department: "HR"},
		{ID: "u2", FullName: "Bob Lim", Position: "Supervisor", Department: "Operations"},
		{ID: "u3", FullName: "Carol Ng", Position: "Director", Department: "Finance"},
		{ID: "u4", FullName: "Dan Cruz", Position: "VP", Department: "Corporate"},
	}
}

func orders(steps []Step) []int {
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Order)
	}
	return out
}

func ids(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.ApproverID)
	}
	return out
}

func TestSequenceEditorContiguityInvariant(t *testing.T) {
	type op struct {
		kind string
		id   string
		list []string
	}

	testCases := []struct {
		name     string
		ops      []op
		wantIDs  []string
		wantOrds []int
	}{
		{
			name:     "adds only",
			ops:      []op{{kind: "add", id: "u1"}, {kind: "add", id: "u2"}, {kind: "add", id: "u3"}},
			wantIDs:  []string{"u1", "u2", "u3"},
			wantOrds: []int{1, 2, 3},
		},
		{
			name:     "remove middle renumbers",
			ops:      []op{{kind: "add", id: "u1"}, {kind: "add", id: "u2"}, {kind: "add", id: "u3"}, {kind: "remove", id: "u2"}},
			wantIDs:  []string{"u1", "u3"},
			wantOrds: []int{1, 2},
		},
		{
			name:     "reorder renumbers positionally",
			ops:      []op{{kind: "add", id: "u1"}, {kind: "add", id: "u2"}, {kind: "add", id: "u3"}, {kind: "reorder", list: []string{"u3", "u1", "u2"}}},
			wantIDs:  []string{"u3", "u1", "u2"},
			wantOrds: []int{1, 2, 3},
		},
		{
			name: "mixed operations",
			ops: []op{
				{kind: "add", id: "u1"}, {kind: "add", id: "u2"}, {kind: "add", id: "u3"}, {kind: "add", id: "u4"},
				{kind: "remove", id: "u1"},
				{kind: "reorder", list: []string{"u4", "u2", "u3"}},
				{kind: "remove", id: "u2"},
				{kind: "add", id: "u1"},
			},
			wantIDs:  []string{"u4", "u3", "u1"},
			wantOrds: []int{1, 2, 3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewSequenceEditor(testDirectory(), nil)
			for _, o := range tc.ops {
				switch o.kind {
				case "add":
					e.Add(o.id)
				case "remove":
					e.Remove(o.id)
				case "reorder":
					e.Reorder(o.list)
				}
				// The invariant holds after every single operation, not
				// just at the end.
				assert.Equal(t, rangeTo(len(e.Sequence())), orders(e.Sequence()))
			}
			assert.Equal(t, tc.wantIDs, ids(e.Sequence()))
			assert.Equal(t, tc.wantOrds, orders(e.Sequence()))
		})
	}
}

func rangeTo(n int) []int {
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, i)
	}
	return out
}

func TestSequenceEditorDuplicateAddIsNoOp(t *testing.T) {
	e := NewSequenceEditor(testDirectory(), nil)

	assert.True(t, e.Add("u1"))
	assert.False(t, e.Add("u1"))
	assert.Len(t, e.Sequence(), 1)

	assert.False(t, e.Add(""))
	assert.Len(t, e.Sequence(), 1)
}

func TestSequenceEditorAvailableExcludesChosen(t *testing.T) {
	e := NewSequenceEditor(testDirectory(), nil)
	e.Add("u2")
	e.Add("u4")

	available := e.Available()
	assert.Len(t, available, 2)
	for _, a := range available {
		assert.NotContains(t, []string{"u2", "u4"}, a.ID)
	}

	// A refreshed directory snapshot must not resurface chosen ids.
	e.SetDirectory(append(testDirectory(), Approver{ID: "u5", FullName: "Eve Soh"}))
	available = e.Available()
	assert.Len(t, available, 3)
	for _, a := range available {
		assert.NotContains(t, []string{"u2", "u4"}, a.ID)
	}
}

func TestSequenceEditorRemoveRenumbersScenario(t *testing.T) {
	// Flow with approvers 1,2,3; removing the middle one leaves [1,3]
	// renumbered to orders [1,2].
	initial := []Step{
		{ApproverID: "u1", DisplayName: "Alice Tan", Order: 1},
		{ApproverID: "u2", DisplayName: "Bob Lim", Order: 2},
		{ApproverID: "u3", DisplayName: "Carol Ng", Order: 3},
	}
	e := NewSequenceEditor(testDirectory(), initial)

	assert.True(t, e.Remove("u2"))

	seq := e.Sequence()
	assert.Equal(t, []string{"u1", "u3"}, ids(seq))
	assert.Equal(t, []int{1, 2}, orders(seq))

	// Removing an absent id fails silently.
	assert.False(t, e.Remove("u2"))
	assert.Len(t, e.Sequence(), 2)
}

func TestSequenceEditorReorderPreservesIdentity(t *testing.T) {
	e := NewSequenceEditor(testDirectory(), nil)
	e.Add("u1")
	e.Add("u2")
	e.Add("u3")

	assert.True(t, e.Reorder([]string{"u2", "u3", "u1"}))

	seq := e.Sequence()
	assert.Equal(t, []string{"u2", "u3", "u1"}, ids(seq))
	assert.Equal(t, []int{1, 2, 3}, orders(seq))
	assert.Equal(t, "Bob Lim", seq[0].DisplayName)
	assert.Equal(t, "Operations", seq[0].Department)

	// A list that is not a permutation of the current ids is rejected.
	assert.False(t, e.Reorder([]string{"u2", "u3"}))
	assert.False(t, e.Reorder([]string{"u2", "u3", "u9"}))
	assert.False(t, e.Reorder([]string{"u2", "u2", "u3"}))
	assert.Equal(t, []string{"u2", "u3", "u1"}, ids(e.Sequence()))
}

func TestSequenceEditorUnknownUserFallback(t *testing.T) {
	e := NewSequenceEditor(testDirectory(), nil)

	assert.True(t, e.Add("ghost"))

	seq := e.Sequence()
	assert.Equal(t, UnknownUserName, seq[0].DisplayName)
	assert.Empty(t, seq[0].Position)
	assert.Equal(t, 1, seq[0].Order)
}

func TestSequenceEditorReadOnlyRejectsMutations(t *testing.T) {
	e := NewSequenceEditor(testDirectory(), []Step{
		{ApproverID: "u1", DisplayName: "Alice Tan", Order: 1},
		{ApproverID: "u2", DisplayName: "Bob Lim", Order: 2},
	})
	e.SetReadOnly(true)

	assert.False(t, e.Add("u3"))
	assert.False(t, e.Remove("u1"))
	assert.False(t, e.Reorder([]string{"u2", "u1"}))
	assert.Equal(t, []string{"u1", "u2"}, ids(e.Sequence()))

	e.SetReadOnly(false)
	assert.True(t, e.Add("u3"))
}

func TestSequenceEditorNormalizesInitialSequence(t *testing.T) {
	// Persisted data with gaps and a duplicate is repaired on load.
	initial := []Step{
		{ApproverID: "u2", Order: 4},
		{ApproverID: "u1", Order: 9},
		{ApproverID: "u2", Order: 11},
	}
	e := NewSequenceEditor(testDirectory(), initial)

	seq := e.Sequence()
	assert.Equal(t, []string{"u2", "u1"}, ids(seq))
	assert.Equal(t, []int{1, 2}, orders(seq))
}
