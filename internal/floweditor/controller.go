package floweditor

import (
	"context"
	"errors"
)

// Mode is the transient form-session state. It is never persisted; it only
// governs which mutations the controller accepts.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeView   Mode = "view"
	ModeEdit   Mode = "edit"
)

// Fields are the scalar flow fields owned by the controller. Reference fields
// hold ids only; display objects live in the cascade and the sequence editor.
type Fields struct {
	Name           string
	Description    string
	FormID         string
	ChargingID     string
	NoCharging     bool
	ReceiverUserID string
}

// FlowPayload is the normalized submission shape: scalar ids extracted from
// any object-shaped references, the approver chain flattened to an ordered id
// list, and NoCharging mutually exclusive with a populated charging id.
type FlowPayload struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	FormID           string   `json:"form_id"`
	RDFCharging      *string  `json:"rdf_charging"`
	NoCharging       bool     `json:"no_charging"`
	ReceiverUserID   *string  `json:"receiver_user_id"`
	ApproverSequence []string `json:"approver_sequence"`
}

type snapshot struct {
	fields   Fields
	sequence []Step
	cascade  Cascade
	fromMode Mode
}

// FormController owns the form-mode transitions and produces the final
// submission payload. It performs no I/O itself; charging lookups go through
// the resolver and persistence is the caller's concern.
type FormController struct {
	mode     Mode
	fields   Fields
	editor   *SequenceEditor
	resolver *CascadeResolver
	cascade  Cascade
	inUse    bool

	// persisted holds the stored field values the session was opened with,
	// used to detect edits of locked fields on an in-use flow.
	persisted Fields
	snap      *snapshot
}

// NewFormController opens a form session. For view sessions the sequence
// editor is put in read-only mode. A session opened directly in edit (deep
// link) snapshots immediately so CancelEdit restores the opening state and
// stays in edit.
func NewFormController(mode Mode, fields Fields, cascade Cascade, editor *SequenceEditor, resolver *CascadeResolver, inUse bool) *FormController {
	c := &FormController{
		mode:      mode,
		fields:    fields,
		editor:    editor,
		resolver:  resolver,
		cascade:   cascade,
		inUse:     inUse,
		persisted: fields,
	}
	editor.SetReadOnly(mode == ModeView)
	if mode == ModeEdit {
		c.takeSnapshot(ModeEdit)
	}
	return c
}

func (c *FormController) Mode() Mode       { return c.mode }
func (c *FormController) Fields() Fields   { return c.fields }
func (c *FormController) Cascade() Cascade { return c.cascade }
func (c *FormController) InUse() bool      { return c.inUse }

// EnterEditMode transitions view -> edit, snapshotting the current field
// values and approver sequence as the restore point. Create sessions never
// enter edit; they flow directly to a terminal save.
func (c *FormController) EnterEditMode() bool {
	if c.mode != ModeView {
		return false
	}
	c.takeSnapshot(ModeView)
	c.mode = ModeEdit
	c.editor.SetReadOnly(false)
	return true
}

// CancelEdit restores the snapshot taken when edit was entered, including the
// approver order, and returns to the mode edit was entered from. A session
// deep-linked into edit returns to edit with its opening state restored.
func (c *FormController) CancelEdit() bool {
	if c.mode != ModeEdit || c.snap == nil {
		return false
	}

	c.fields = c.snap.fields
	c.cascade = c.snap.cascade
	c.editor.SetSequence(c.snap.sequence)
	c.mode = c.snap.fromMode
	if c.mode == ModeView {
		c.editor.SetReadOnly(true)
		c.snap = nil
	}
	return true
}

// Editor exposes the sequence editor for add/remove/reorder gestures.
func (c *FormController) Editor() *SequenceEditor { return c.editor }

func (c *FormController) SetName(name string) {
	if c.mutable() {
		c.fields.Name = name
	}
}

func (c *FormController) SetDescription(description string) {
	if c.mutable() {
		c.fields.Description = description
	}
}

func (c *FormController) SetFormID(formID string) {
	if c.mutable() {
		c.fields.FormID = formID
	}
}

func (c *FormController) SetReceiver(userID string) {
	if c.mutable() {
		c.fields.ReceiverUserID = userID
	}
}

// SelectCharging resolves the cascade for chargingID and applies the id and
// all six dependent fields in one step. A resolution superseded by a newer
// selection is discarded without touching the current state. A failed lookup
// keeps the selection but empties the cascade and reports the failure so the
// caller can decide whether to block submission.
func (c *FormController) SelectCharging(ctx context.Context, chargingID string) error {
	if !c.mutable() {
		return nil
	}

	cascade, err := c.resolver.Resolve(ctx, chargingID)
	if err != nil {
		if errors.Is(err, ErrStaleResolution) {
			return err
		}
		c.fields.ChargingID = chargingID
		c.fields.NoCharging = false
		c.cascade = Cascade{}
		return err
	}

	c.fields.ChargingID = chargingID
	c.fields.NoCharging = false
	c.cascade = cascade
	return nil
}

// SetNoCharging toggles the "no charging required" flag. Enabling it clears
// the charging id and all six cascade fields in the same logical step.
func (c *FormController) SetNoCharging(noCharging bool) {
	if !c.mutable() {
		return
	}

	c.fields.NoCharging = noCharging
	if noCharging {
		c.fields.ChargingID = ""
		c.cascade = Cascade{}
		c.resolver.Clear()
	}
}

// Submit validates the session and returns the normalized payload. It issues
// no network call itself; on validation or conflict failure the caller gets a
// sentinel-wrapped error and nothing is submitted.
func (c *FormController) Submit() (FlowPayload, error) {
	if c.mode == ModeView {
		return FlowPayload{}, &ValidationError{Field: "mode", Reason: "view sessions cannot submit"}
	}

	if c.fields.Name == "" {
		return FlowPayload{}, &ValidationError{Field: "name", Reason: "flow name is required"}
	}
	if c.fields.FormID == "" {
		return FlowPayload{}, &ValidationError{Field: "form_id", Reason: "form reference is required"}
	}
	sequence := c.editor.Sequence()
	if len(sequence) == 0 {
		return FlowPayload{}, &ValidationError{Field: "approver_sequence", Reason: "at least one approver is required"}
	}
	if c.fields.NoCharging && c.fields.ChargingID != "" {
		return FlowPayload{}, &ValidationError{Field: "rdf_charging", Reason: "charging id and no-charging flag are mutually exclusive"}
	}

	// Structural fields become immutable once the flow is referenced by
	// in-flight submissions; only name/description/sequence/receiver stay
	// editable.
	if c.inUse && c.mode == ModeEdit {
		if c.fields.FormID != c.persisted.FormID {
			return FlowPayload{}, &ConflictError{Field: "form_id"}
		}
		if c.fields.ChargingID != c.persisted.ChargingID {
			return FlowPayload{}, &ConflictError{Field: "rdf_charging"}
		}
		if c.fields.NoCharging != c.persisted.NoCharging {
			return FlowPayload{}, &ConflictError{Field: "no_charging"}
		}
	}

	payload := FlowPayload{
		Name:             c.fields.Name,
		Description:      c.fields.Description,
		FormID:           c.fields.FormID,
		NoCharging:       c.fields.NoCharging,
		ApproverSequence: make([]string, 0, len(sequence)),
	}
	if !c.fields.NoCharging && c.fields.ChargingID != "" {
		id := c.fields.ChargingID
		payload.RDFCharging = &id
	}
	if c.fields.ReceiverUserID != "" {
		id := c.fields.ReceiverUserID
		payload.ReceiverUserID = &id
	}
	for _, s := range sequence {
		payload.ApproverSequence = append(payload.ApproverSequence, s.ApproverID)
	}

	// A successful edit submit lands back in view; create sessions are
	// terminal and are discarded by the caller.
	if c.mode == ModeEdit {
		c.persisted = c.fields
		c.mode = ModeView
		c.editor.SetReadOnly(true)
		c.snap = nil
	}

	return payload, nil
}

func (c *FormController) mutable() bool {
	return c.mode == ModeCreate || c.mode == ModeEdit
}

func (c *FormController) takeSnapshot(fromMode Mode) {
	c.snap = &snapshot{
		fields:   c.fields,
		sequence: c.editor.Sequence(),
		cascade:  c.cascade,
		fromMode: fromMode,
	}
}
