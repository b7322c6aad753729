package floweditor

// UnknownUserName is the display fallback when an approver id has no
// directory entry. Missing metadata never blocks adding the approver.
const UnknownUserName = "Unknown User"

// Approver is a user directory entry as seen by the editor.
type Approver struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

// Step is one rank in the approver chain. Order is the 1-based rank and is
// kept contiguous by the editor after every mutation.
type Step struct {
	ApproverID  string `json:"approver_id"`
	DisplayName string `json:"display_name"`
	Position    string `json:"position"`
	Department  string `json:"department"`
	Order       int    `json:"order"`
}

// SequenceEditor maintains the ordered, deduplicated approver chain and the
// complementary pool of still-selectable directory entries. All mutations are
// no-ops (not errors) in read-only mode; the editor rejects them itself
// rather than trusting the caller to have disabled the UI.
type SequenceEditor struct {
	sequence  []Step
	directory []Approver
	readOnly  bool
}

// NewSequenceEditor builds an editor over a directory snapshot and an initial
// sequence. The initial sequence is normalized: duplicate approver ids keep
// their first occurrence and orders are renumbered to 1..N.
func NewSequenceEditor(directory []Approver, initial []Step) *SequenceEditor {
	e := &SequenceEditor{directory: append([]Approver(nil), directory...)}
	seen := make(map[string]bool, len(initial))
	for _, s := range initial {
		if s.ApproverID == "" || seen[s.ApproverID] {
			continue
		}
		seen[s.ApproverID] = true
		e.sequence = append(e.sequence, s)
	}
	renumber(e.sequence)
	return e
}

// Add appends approverID to the chain with the next rank, denormalizing
// display fields from the directory. Returns false without changing anything
// when the id is empty, already present, or the editor is read-only.
func (e *SequenceEditor) Add(approverID string) bool {
	if e.readOnly || approverID == "" || e.indexOf(approverID) >= 0 {
		return false
	}

	step := Step{
		ApproverID:  approverID,
		DisplayName: UnknownUserName,
		Order:       len(e.sequence) + 1,
	}
	for _, a := range e.directory {
		if a.ID == approverID {
			step.DisplayName = a.FullName
			step.Position = a.Position
			step.Department = a.Department
			break
		}
	}

	e.sequence = append(e.sequence, step)
	return true
}

// Remove deletes the step for approverID and renumbers the remaining steps so
// ranks stay contiguous. Returns false if the id is absent or the editor is
// read-only.
func (e *SequenceEditor) Remove(approverID string) bool {
	if e.readOnly {
		return false
	}
	idx := e.indexOf(approverID)
	if idx < 0 {
		return false
	}

	e.sequence = append(e.sequence[:idx], e.sequence[idx+1:]...)
	renumber(e.sequence)
	return true
}

// Reorder accepts a full replacement ordering (e.g. from a drag gesture).
// orderedIDs must be a permutation of the current approver ids; anything else
// leaves the sequence unchanged. Step identity is preserved, only ranks
// change.
func (e *SequenceEditor) Reorder(orderedIDs []string) bool {
	if e.readOnly || len(orderedIDs) != len(e.sequence) {
		return false
	}

	reordered := make([]Step, 0, len(orderedIDs))
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		idx := e.indexOf(id)
		if idx < 0 || seen[id] {
			return false
		}
		seen[id] = true
		reordered = append(reordered, e.sequence[idx])
	}

	e.sequence = reordered
	renumber(e.sequence)
	return true
}

// Available returns the directory entries not currently in the sequence,
// matched by id. Directory entries whose id appears in the chain are excluded
// even if the directory snapshot was refreshed after they were added.
func (e *SequenceEditor) Available() []Approver {
	chosen := make(map[string]bool, len(e.sequence))
	for _, s := range e.sequence {
		chosen[s.ApproverID] = true
	}

	available := make([]Approver, 0, len(e.directory))
	for _, a := range e.directory {
		if !chosen[a.ID] {
			available = append(available, a)
		}
	}
	return available
}

// Sequence returns a copy of the current chain.
func (e *SequenceEditor) Sequence() []Step {
	return append([]Step(nil), e.sequence...)
}

// SetSequence replaces the chain wholesale (used to restore an edit
// snapshot). The replacement is normalized the same way as the initial
// sequence and is applied even in read-only mode.
func (e *SequenceEditor) SetSequence(steps []Step) {
	e.sequence = nil
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.ApproverID == "" || seen[s.ApproverID] {
			continue
		}
		seen[s.ApproverID] = true
		e.sequence = append(e.sequence, s)
	}
	renumber(e.sequence)
}

// SetDirectory replaces the directory snapshot. The sequence is untouched;
// already-chosen ids simply stop appearing in Available.
func (e *SequenceEditor) SetDirectory(directory []Approver) {
	e.directory = append([]Approver(nil), directory...)
}

// SetReadOnly toggles mutation rejection, used for view mode and in-use locks.
func (e *SequenceEditor) SetReadOnly(readOnly bool) {
	e.readOnly = readOnly
}

// ReadOnly reports whether mutations are currently rejected.
func (e *SequenceEditor) ReadOnly() bool {
	return e.readOnly
}

func (e *SequenceEditor) indexOf(approverID string) int {
	for i, s := range e.sequence {
		if s.ApproverID == approverID {
			return i
		}
	}
	return -1
}

func renumber(steps []Step) {
	for i := range steps {
		steps[i].Order = i + 1
	}
}
