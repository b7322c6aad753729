package floweditor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lookupGate holds a lookup open until released, to simulate a slow
// in-flight request. entered closes once the lookup has started.
type lookupGate struct {
	entered chan struct{}
	release chan struct{}
}

// fakeLookup serves charging snapshots from a map.
type fakeLookup struct {
	mu      sync.Mutex
	records map[string]ChargingSnapshot
	gates   map[string]*lookupGate
	calls   int
}

func newFakeLookup(records ...ChargingSnapshot) *fakeLookup {
	l := &fakeLookup{
		records: make(map[string]ChargingSnapshot),
		gates:   make(map[string]*lookupGate),
	}
	for _, r := range records {
		l.records[r.ID] = r
	}
	return l
}

func (l *fakeLookup) hold(id string) *lookupGate {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := &lookupGate{entered: make(chan struct{}), release: make(chan struct{})}
	l.gates[id] = g
	return g
}

func (l *fakeLookup) GetCharging(_ context.Context, id string) (ChargingSnapshot, error) {
	l.mu.Lock()
	l.calls++
	gate := l.gates[id]
	rec, ok := l.records[id]
	l.mu.Unlock()

	if gate != nil {
		close(gate.entered)
		<-gate.release
	}
	if !ok {
		return ChargingSnapshot{}, errors.New("charging not found")
	}
	return rec, nil
}

func fullSnapshot(id string) ChargingSnapshot {
	return ChargingSnapshot{
		ID:               id,
		DepartmentCode:   "DEP-" + id,
		DepartmentName:   "Department " + id,
		CompanyCode:      "CO-" + id,
		CompanyName:      "Company " + id,
		BusinessUnitCode: "BU-" + id,
		BusinessUnitName: "Business Unit " + id,
		UnitCode:         "UN-" + id,
		UnitName:         "Unit " + id,
		SubUnitCode:      "SU-" + id,
		SubUnitName:      "Sub Unit " + id,
		LocationCode:     "LOC-" + id,
		LocationName:     "Location " + id,
	}
}

func TestCascadeResolverIdempotence(t *testing.T) {
	lookup := newFakeLookup(fullSnapshot("c1"))
	r := NewCascadeResolver(lookup)

	first, err := r.Resolve(context.Background(), "c1")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, second, r.Current())
}

func TestCascadeResolverPartialDimensionsStayUnset(t *testing.T) {
	testCases := []struct {
		name string
		snap ChargingSnapshot
		want func(t *testing.T, c Cascade)
	}{
		{
			name: "name without code",
			snap: ChargingSnapshot{ID: "c1", DepartmentName: "HR", CompanyCode: "CO-1", CompanyName: "Acme"},
			want: func(t *testing.T, c Cascade) {
				assert.False(t, c.Department.IsSet())
				assert.True(t, c.Company.IsSet())
				assert.Equal(t, "CO-1", c.Company.ID)
			},
		},
		{
			name: "code without name",
			snap: ChargingSnapshot{ID: "c1", UnitCode: "UN-1"},
			want: func(t *testing.T, c Cascade) {
				assert.False(t, c.Unit.IsSet())
				assert.Equal(t, DimensionRef{}, c.Unit)
			},
		},
		{
			name: "all dimensions empty",
			snap: ChargingSnapshot{ID: "c1"},
			want: func(t *testing.T, c Cascade) {
				assert.Equal(t, Cascade{}, c)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := newFakeLookup(tc.snap)
			r := NewCascadeResolver(lookup)
			c, err := r.Resolve(context.Background(), "c1")
			require.NoError(t, err)
			tc.want(t, c)
		})
	}
}

func TestCascadeResolverLastRequestWins(t *testing.T) {
	// resolve(A) is held in flight while resolve(B) completes; A's late
	// result must be discarded whichever order the responses land in.
	lookup := newFakeLookup(fullSnapshot("a"), fullSnapshot("b"))
	r := NewCascadeResolver(lookup)

	gateA := lookup.hold("a")

	resultA := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), "a")
		resultA <- err
	}()
	<-gateA.entered

	cascadeB, err := r.Resolve(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "DEP-b", cascadeB.Department.Code)

	// Release A's response after B already won.
	close(gateA.release)
	errA := <-resultA
	assert.ErrorIs(t, errA, ErrStaleResolution)

	assert.Equal(t, cascadeB, r.Current())
}

func TestCascadeResolverClearInvalidatesInFlight(t *testing.T) {
	lookup := newFakeLookup(fullSnapshot("a"))
	r := NewCascadeResolver(lookup)

	gateA := lookup.hold("a")
	resultA := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), "a")
		resultA <- err
	}()
	<-gateA.entered

	r.Clear()
	close(gateA.release)

	assert.ErrorIs(t, <-resultA, ErrStaleResolution)
	assert.Equal(t, Cascade{}, r.Current())
}

func TestCascadeResolverEmptyIDClearsWithoutLookup(t *testing.T) {
	lookup := newFakeLookup(fullSnapshot("c1"))
	r := NewCascadeResolver(lookup)

	_, err := r.Resolve(context.Background(), "c1")
	require.NoError(t, err)
	require.True(t, r.Current().Department.IsSet())

	callsBefore := lookup.calls
	c, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Cascade{}, c)
	assert.Equal(t, Cascade{}, r.Current())
	assert.Equal(t, callsBefore, lookup.calls)
}

func TestCascadeResolverLookupFailure(t *testing.T) {
	lookup := newFakeLookup(fullSnapshot("c1"))
	r := NewCascadeResolver(lookup)

	_, err := r.Resolve(context.Background(), "c1")
	require.NoError(t, err)

	// A failed resolution empties the dependent fields rather than leaving
	// the previous charging's values behind.
	_, err = r.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.Equal(t, Cascade{}, r.Current())
}
