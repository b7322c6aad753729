package floweditor

import (
	"context"
	"fmt"
	"sync"
)

// DimensionRef is one resolved cascade dimension. The zero value means unset;
// a dimension is only considered set when both code and name were present on
// the source record.
type DimensionRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// IsSet reports whether the dimension resolved to a usable code/name pair.
func (d DimensionRef) IsSet() bool {
	return d.Code != "" && d.Name != ""
}

// Cascade holds the six dependent fields derived from a charging record.
// It is recomputed wholesale on every charging change so the fields can
// never mix values from two different chargings.
type Cascade struct {
	Department   DimensionRef `json:"department"`
	Company      DimensionRef `json:"company"`
	BusinessUnit DimensionRef `json:"business_unit"`
	Unit         DimensionRef `json:"unit"`
	SubUnit      DimensionRef `json:"sub_unit"`
	Location     DimensionRef `json:"location"`
}

// ChargingSnapshot is the lookup-facing view of an RDF charging record.
type ChargingSnapshot struct {
	ID               string
	DepartmentCode   string
	DepartmentName   string
	CompanyCode      string
	CompanyName      string
	BusinessUnitCode string
	BusinessUnitName string
	UnitCode         string
	UnitName         string
	SubUnitCode      string
	SubUnitName      string
	LocationCode     string
	LocationName     string
}

// ChargingLookup fetches the current snapshot of a charging record.
type ChargingLookup interface {
	GetCharging(ctx context.Context, id string) (ChargingSnapshot, error)
}

// CascadeResolver resolves the dependent-field cascade for a charging id with
// last-request-wins semantics: when the selection changes while a lookup is
// still in flight, the late-arriving result is discarded rather than applied
// over the newer selection. The generation counter is the correctness
// backstop; the lookup itself is not cancelled.
type CascadeResolver struct {
	lookup ChargingLookup

	mu      sync.Mutex
	gen     uint64
	current Cascade
}

func NewCascadeResolver(lookup ChargingLookup) *CascadeResolver {
	return &CascadeResolver{lookup: lookup}
}

// Resolve fetches and flattens the cascade for chargingID. An empty id clears
// the cascade without a lookup. A result that arrives after a newer Resolve or
// Clear call returns ErrStaleResolution and leaves the current cascade
// untouched. A lookup failure empties the cascade and returns an error
// wrapping ErrResolutionFailed; the resolver never retries.
func (r *CascadeResolver) Resolve(ctx context.Context, chargingID string) (Cascade, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if chargingID == "" {
		r.current = Cascade{}
		r.mu.Unlock()
		return Cascade{}, nil
	}
	r.mu.Unlock()

	snap, err := r.lookup.GetCharging(ctx, chargingID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return Cascade{}, ErrStaleResolution
	}
	if err != nil {
		r.current = Cascade{}
		return Cascade{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	r.current = Flatten(snap)
	return r.current, nil
}

// Clear resets all six dimensions in one step and invalidates any lookup
// still in flight.
func (r *CascadeResolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.current = Cascade{}
}

// Current returns the cascade from the most recent non-stale resolution.
func (r *CascadeResolver) Current() Cascade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Flatten derives the six cascade dimensions from a charging snapshot.
// Dimensions missing either half of their code/name pair stay unset.
func Flatten(snap ChargingSnapshot) Cascade {
	return Cascade{
		Department:   dimension(snap.DepartmentCode, snap.DepartmentName),
		Company:      dimension(snap.CompanyCode, snap.CompanyName),
		BusinessUnit: dimension(snap.BusinessUnitCode, snap.BusinessUnitName),
		Unit:         dimension(snap.UnitCode, snap.UnitName),
		SubUnit:      dimension(snap.SubUnitCode, snap.SubUnitName),
		Location:     dimension(snap.LocationCode, snap.LocationName),
	}
}

func dimension(code, name string) DimensionRef {
	if code == "" || name == "" {
		return DimensionRef{}
	}
	return DimensionRef{ID: code, Code: code, Name: name}
}
