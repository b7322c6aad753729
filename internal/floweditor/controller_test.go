package floweditor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(mode Mode, fields Fields, inUse bool, records ...ChargingSnapshot) *FormController {
	editor := NewSequenceEditor(testDirectory(), nil)
	resolver := NewCascadeResolver(newFakeLookup(records...))
	return NewFormController(mode, fields, Cascade{}, editor, resolver, inUse)
}

func TestFormControllerCancelRestoresSnapshot(t *testing.T) {
	editor := NewSequenceEditor(testDirectory(), []Step{
		{ApproverID: "u1", DisplayName: "Alice Tan", Position: "HR Manager", Department: "HR", Order: 1},
		{ApproverID: "u2", DisplayName: "Bob Lim", Position: "Supervisor", Department: "Operations", Order: 2},
	})
	resolver := NewCascadeResolver(newFakeLookup(fullSnapshot("c1")))
	fields := Fields{Name: "CAT-1 default flow", FormID: "f1", ChargingID: "c1"}
	c := NewFormController(ModeView, fields, Flatten(fullSnapshot("c1")), editor, resolver, false)

	preFields := c.Fields()
	preSequence := c.Editor().Sequence()
	preCascade := c.Cascade()

	require.True(t, c.EnterEditMode())

	// Mutate everything: fields, order, membership, cascade.
	c.SetName("renamed")
	c.SetDescription("scribbles")
	c.Editor().Reorder([]string{"u2", "u1"})
	c.Editor().Add("u3")
	c.Editor().Remove("u1")
	c.SetNoCharging(true)

	require.True(t, c.CancelEdit())

	assert.Equal(t, ModeView, c.Mode())
	assert.Equal(t, preFields, c.Fields())
	assert.Equal(t, preSequence, c.Editor().Sequence())
	assert.Equal(t, preCascade, c.Cascade())
	assert.True(t, c.Editor().ReadOnly())
}

func TestFormControllerDeepLinkEditCancelStaysInEdit(t *testing.T) {
	// A session opened directly in edit returns to edit on cancel, with its
	// opening state restored, rather than assuming view.
	c := newTestController(ModeEdit, Fields{Name: "flow", FormID: "f1"}, false)
	c.Editor().Add("u1")
	c.SetName("changed")

	require.True(t, c.CancelEdit())

	assert.Equal(t, ModeEdit, c.Mode())
	assert.Equal(t, "flow", c.Fields().Name)
	assert.Empty(t, c.Editor().Sequence())
	assert.False(t, c.Editor().ReadOnly())
}

func TestFormControllerCreateNeverEntersEdit(t *testing.T) {
	c := newTestController(ModeCreate, Fields{}, false)
	assert.False(t, c.EnterEditMode())
	assert.Equal(t, ModeCreate, c.Mode())
	assert.False(t, c.CancelEdit())
}

func TestFormControllerViewRejectsMutations(t *testing.T) {
	c := newTestController(ModeView, Fields{Name: "flow", FormID: "f1"}, false)

	c.SetName("changed")
	c.SetNoCharging(true)
	assert.False(t, c.Editor().Add("u1"))

	assert.Equal(t, "flow", c.Fields().Name)
	assert.False(t, c.Fields().NoCharging)

	_, err := c.Submit()
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestFormControllerSubmitValidation(t *testing.T) {
	testCases := []struct {
		name      string
		fields    Fields
		approvers []string
		wantField string
	}{
		{
			name:      "empty approver sequence",
			fields:    Fields{Name: "flow", FormID: "f1"},
			approvers: nil,
			wantField: "approver_sequence",
		},
		{
			name:      "blank name",
			fields:    Fields{FormID: "f1"},
			approvers: []string{"u1"},
			wantField: "name",
		},
		{
			name:      "blank form reference",
			fields:    Fields{Name: "flow"},
			approvers: []string{"u1"},
			wantField: "form_id",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController(ModeCreate, tc.fields, false)
			for _, id := range tc.approvers {
				c.Editor().Add(id)
			}

			_, err := c.Submit()
			require.ErrorIs(t, err, ErrValidationFailed)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestFormControllerNoChargingClearsCascadeAndPayload(t *testing.T) {
	c := newTestController(ModeCreate, Fields{Name: "flow", FormID: "f1"}, false, fullSnapshot("c7"))

	require.NoError(t, c.SelectCharging(context.Background(), "c7"))
	require.True(t, c.Cascade().Department.IsSet())
	require.Equal(t, "c7", c.Fields().ChargingID)

	c.SetNoCharging(true)

	assert.Equal(t, Cascade{}, c.Cascade())
	assert.Empty(t, c.Fields().ChargingID)

	c.Editor().Add("u1")
	payload, err := c.Submit()
	require.NoError(t, err)
	assert.Nil(t, payload.RDFCharging)
	assert.True(t, payload.NoCharging)
}

func TestFormControllerSubmitNormalizesPayload(t *testing.T) {
	c := newTestController(ModeCreate, Fields{
		Name:           "PDP routing",
		Description:    "development plans",
		FormID:         "f2",
		ReceiverUserID: "u4",
	}, false, fullSnapshot("c1"))

	require.NoError(t, c.SelectCharging(context.Background(), "c1"))
	c.Editor().Add("u1")
	c.Editor().Add("u3")
	c.Editor().Add("u2")
	c.Editor().Reorder([]string{"u3", "u1", "u2"})

	payload, err := c.Submit()
	require.NoError(t, err)

	assert.Equal(t, "PDP routing", payload.Name)
	assert.Equal(t, "f2", payload.FormID)
	require.NotNil(t, payload.RDFCharging)
	assert.Equal(t, "c1", *payload.RDFCharging)
	assert.False(t, payload.NoCharging)
	require.NotNil(t, payload.ReceiverUserID)
	assert.Equal(t, "u4", *payload.ReceiverUserID)
	assert.Equal(t, []string{"u3", "u1", "u2"}, payload.ApproverSequence)
}

func TestFormControllerInUseLocksStructuralFields(t *testing.T) {
	fields := Fields{Name: "flow", FormID: "f1", ChargingID: "c1"}

	t.Run("charging change conflicts", func(t *testing.T) {
		c := newTestController(ModeView, fields, true, fullSnapshot("c1"), fullSnapshot("c2"))
		c.Editor().SetReadOnly(false)
		c.Editor().Add("u1")
		c.Editor().SetReadOnly(true)

		require.True(t, c.EnterEditMode())
		require.NoError(t, c.SelectCharging(context.Background(), "c2"))

		_, err := c.Submit()
		require.ErrorIs(t, err, ErrInUseConflict)

		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "rdf_charging", cerr.Field)
	})

	t.Run("description-only edit submits", func(t *testing.T) {
		c := newTestController(ModeView, fields, true, fullSnapshot("c1"))
		c.Editor().SetReadOnly(false)
		c.Editor().Add("u1")
		c.Editor().SetReadOnly(true)

		require.True(t, c.EnterEditMode())
		c.SetDescription("updated wording")

		payload, err := c.Submit()
		require.NoError(t, err)
		assert.Equal(t, "updated wording", payload.Description)
		assert.Equal(t, ModeView, c.Mode())
	})
}

func TestFormControllerStaleChargingSelectionDiscarded(t *testing.T) {
	lookup := newFakeLookup(fullSnapshot("a"), fullSnapshot("b"))
	editor := NewSequenceEditor(testDirectory(), nil)
	resolver := NewCascadeResolver(lookup)
	c := NewFormController(ModeCreate, Fields{Name: "flow", FormID: "f1"}, Cascade{}, editor, resolver, false)

	gateA := lookup.hold("a")
	resultA := make(chan error, 1)
	go func() {
		resultA <- c.SelectCharging(context.Background(), "a")
	}()
	<-gateA.entered

	require.NoError(t, c.SelectCharging(context.Background(), "b"))
	close(gateA.release)

	assert.ErrorIs(t, <-resultA, ErrStaleResolution)
	assert.Equal(t, "b", c.Fields().ChargingID)
	assert.Equal(t, "DEP-b", c.Cascade().Department.Code)
}

func TestFormControllerResolutionFailureSurfacedNotRetried(t *testing.T) {
	c := newTestController(ModeCreate, Fields{Name: "flow", FormID: "f1"}, false, fullSnapshot("c1"))

	require.NoError(t, c.SelectCharging(context.Background(), "c1"))
	require.True(t, c.Cascade().Department.IsSet())

	err := c.SelectCharging(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResolutionFailed)
	// Dependent fields are emptied rather than guessing; the selection is
	// kept so the user can retry explicitly.
	assert.Equal(t, Cascade{}, c.Cascade())
	assert.Equal(t, "missing", c.Fields().ChargingID)
}
