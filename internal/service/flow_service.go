package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hradmin/internal/floweditor"
	"hradmin/internal/model"
	"hradmin/internal/repository"
	"hradmin/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

// FlowPayloadRequest is the normalized submission shape produced by the flow
// editor: scalar ids only, the approver chain as an ordered id list, and
// no_charging mutually exclusive with a populated charging id.
type FlowPayloadRequest struct {
	Name             string   `json:"name" binding:"required"`
	Description      string   `json:"description"`
	FormID           string   `json:"form_id" binding:"required"`
	RDFCharging      *string  `json:"rdf_charging"`
	NoCharging       bool     `json:"no_charging"`
	ReceiverUserID   *string  `json:"receiver_user_id"`
	ApproverSequence []string `json:"approver_sequence" binding:"required"`
}

type FlowListFilter struct {
	Status string // active, archived, all
	Search string
	Page   int
	Limit  int
}

type ApproverStepResponse struct {
	ApproverID  string `json:"approver_id"`
	DisplayName string `json:"display_name"`
	Position    string `json:"position"`
	Department  string `json:"department"`
	Order       int    `json:"order"`
}

type ReferenceResponse struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
}

type FlowResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	IsActive       bool                   `json:"is_active"`
	Form           *ReferenceResponse     `json:"form"`
	Charging       *ReferenceResponse     `json:"charging"`
	Cascade        *floweditor.Cascade    `json:"cascade,omitempty"`
	NoCharging     bool                   `json:"no_charging"`
	Receiver       *ReferenceResponse     `json:"receiver"`
	Approvers      []ApproverStepResponse `json:"approvers"`
	IsInUse        bool                   `json:"is_in_use"`
	ArchivedAt     *string                `json:"archived_at"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// --- Interface ---

type FlowService interface {
	ListFlows(ctx context.Context, filter FlowListFilter) ([]FlowResponse, int64, error)
	GetFlow(ctx context.Context, id string) (*FlowResponse, error)
	CreateFlow(ctx context.Context, req FlowPayloadRequest, actorID string) (*FlowResponse, error)
	UpdateFlow(ctx context.Context, id string, req FlowPayloadRequest, actorID string) (*FlowResponse, error)
	ToggleArchive(ctx context.Context, id string, actorID string) (*FlowResponse, error)
}

type flowService struct {
	db           *gorm.DB
	flowRepo     repository.FlowRepository
	userRepo     repository.UserRepository
	formRepo     repository.FormRepository
	chargingRepo repository.ChargingRepository
	hub          *websocket.Hub
}

func NewFlowService(db *gorm.DB, flowRepo repository.FlowRepository, userRepo repository.UserRepository, formRepo repository.FormRepository, chargingRepo repository.ChargingRepository, hub *websocket.Hub) FlowService {
	return &flowService{db: db, flowRepo: flowRepo, userRepo: userRepo, formRepo: formRepo, chargingRepo: chargingRepo, hub: hub}
}

// --- Implementation ---

func (s *flowService) ListFlows(ctx context.Context, filter FlowListFilter) ([]FlowResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	flows, total, err := s.flowRepo.List(ctx, repository.FlowFilter{
		Status: filter.Status,
		Search: filter.Search,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch approval flows: %w", err)
	}

	result := make([]FlowResponse, 0, len(flows))
	for i := range flows {
		inUse, countErr := s.flowRepo.CountPendingSubmissions(ctx, flows[i].ID)
		if countErr != nil {
			return nil, 0, fmt.Errorf("failed to check flow usage: %w", countErr)
		}
		result = append(result, toFlowResponse(&flows[i], inUse > 0))
	}

	return result, total, nil
}

func (s *flowService) GetFlow(ctx context.Context, id string) (*FlowResponse, error) {
	flowID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid flow id: %w", err)
	}

	flow, err := s.flowRepo.FindByIDWithRelations(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("approval flow not found: %w", err)
	}

	pending, err := s.flowRepo.CountPendingSubmissions(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to check flow usage: %w", err)
	}

	resp := toFlowResponse(flow, pending > 0)
	return &resp, nil
}

func (s *flowService) CreateFlow(ctx context.Context, req FlowPayloadRequest, actorID string) (*FlowResponse, error) {
	fields, formID, chargingID, receiverID, err := s.validatePayload(ctx, req)
	if err != nil {
		return nil, err
	}

	steps, err := s.buildSteps(ctx, req.ApproverSequence)
	if err != nil {
		return nil, err
	}

	flow := model.ApprovalFlow{
		Name:           fields.Name,
		Description:    fields.Description,
		IsActive:       true,
		FormID:         formID,
		ChargingID:     chargingID,
		NoCharging:     req.NoCharging,
		ReceiverUserID: receiverID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)
		if createErr := s.flowRepo.Create(txCtx, &flow); createErr != nil {
			return fmt.Errorf("failed to create approval flow: %w", createErr)
		}
		if stepErr := s.flowRepo.ReplaceSteps(txCtx, flow.ID, steps); stepErr != nil {
			return fmt.Errorf("failed to save approver sequence: %w", stepErr)
		}
		return s.writeAudit(tx, actorID, model.ActionCreateFlow, flow.ID.String(), flow.Name, map[string]interface{}{
			"form_id":   flow.FormID.String(),
			"approvers": len(steps),
		})
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(websocket.EventFlowCreated, flow.ID.String(), flow.Name)
	return s.GetFlow(ctx, flow.ID.String())
}

func (s *flowService) UpdateFlow(ctx context.Context, id string, req FlowPayloadRequest, actorID string) (*FlowResponse, error) {
	flowID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid flow id: %w", err)
	}

	flow, err := s.flowRepo.FindByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("approval flow not found: %w", err)
	}
	if flow.DeletedAt.Valid {
		return nil, &floweditor.ValidationError{Field: "id", Reason: "archived flows must be restored before editing"}
	}

	fields, formID, chargingID, receiverID, err := s.validatePayload(ctx, req)
	if err != nil {
		return nil, err
	}

	steps, err := s.buildSteps(ctx, req.ApproverSequence)
	if err != nil {
		return nil, err
	}

	var pending int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)

		// Count inside the transaction so a submission created between the
		// read and the write cannot slip past the structural lock.
		var countErr error
		pending, countErr = s.flowRepo.CountPendingSubmissions(txCtx, flowID)
		if countErr != nil {
			return fmt.Errorf("failed to check flow usage: %w", countErr)
		}
		if lockErr := checkInUseLocks(flow, formID, chargingID, req.NoCharging, pending); lockErr != nil {
			return lockErr
		}

		flow.Name = fields.Name
		flow.Description = fields.Description
		flow.FormID = formID
		flow.ChargingID = chargingID
		flow.NoCharging = req.NoCharging
		flow.ReceiverUserID = receiverID

		if saveErr := s.flowRepo.Update(txCtx, flow); saveErr != nil {
			return fmt.Errorf("failed to update approval flow: %w", saveErr)
		}
		if stepErr := s.flowRepo.ReplaceSteps(txCtx, flow.ID, steps); stepErr != nil {
			return fmt.Errorf("failed to replace approver sequence: %w", stepErr)
		}
		return s.writeAudit(tx, actorID, model.ActionUpdateFlow, flow.ID.String(), flow.Name, map[string]interface{}{
			"approvers": len(steps),
			"in_use":    pending > 0,
		})
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(websocket.EventFlowUpdated, flow.ID.String(), flow.Name)
	return s.GetFlow(ctx, flow.ID.String())
}

// ToggleArchive soft-deletes an active flow or restores an archived one.
// In-use flows cannot be archived.
func (s *flowService) ToggleArchive(ctx context.Context, id string, actorID string) (*FlowResponse, error) {
	flowID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid flow id: %w", err)
	}

	flow, err := s.flowRepo.FindByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("approval flow not found: %w", err)
	}

	restoring := flow.DeletedAt.Valid

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)
		action := model.ActionArchiveFlow
		if restoring {
			action = model.ActionRestoreFlow
			if restoreErr := s.flowRepo.Restore(txCtx, flowID); restoreErr != nil {
				return fmt.Errorf("failed to restore flow: %w", restoreErr)
			}
		} else {
			pending, countErr := s.flowRepo.CountPendingSubmissions(txCtx, flowID)
			if countErr != nil {
				return fmt.Errorf("failed to check flow usage: %w", countErr)
			}
			if pending > 0 {
				return &floweditor.ConflictError{Field: "archive"}
			}
			if archiveErr := s.flowRepo.Archive(txCtx, flowID); archiveErr != nil {
				return fmt.Errorf("failed to archive flow: %w", archiveErr)
			}
		}
		return s.writeAudit(tx, actorID, action, flow.ID.String(), flow.Name, nil)
	})
	if err != nil {
		return nil, err
	}

	event := websocket.EventFlowArchived
	if restoring {
		event = websocket.EventFlowRestored
	}
	s.broadcast(event, flow.ID.String(), flow.Name)

	return s.GetFlow(ctx, flow.ID.String())
}

// --- Helpers ---

// validatePayload checks required fields and reference integrity, returning
// the parsed ids. Reference ids must point at real rows so a stale editor
// session cannot persist dangling references.
func (s *flowService) validatePayload(ctx context.Context, req FlowPayloadRequest) (floweditor.Fields, uuid.UUID, *uuid.UUID, *uuid.UUID, error) {
	var zero floweditor.Fields

	if req.Name == "" {
		return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "name", Reason: "flow name is required"}
	}
	if len(req.ApproverSequence) == 0 {
		return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "approver_sequence", Reason: "at least one approver is required"}
	}
	if req.NoCharging && req.RDFCharging != nil {
		return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "rdf_charging", Reason: "charging id and no-charging flag are mutually exclusive"}
	}

	formID, err := uuid.Parse(req.FormID)
	if err != nil {
		return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "form_id", Reason: "invalid form reference"}
	}
	if _, err := s.formRepo.FindByID(ctx, formID); err != nil {
		return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "form_id", Reason: "form not found"}
	}

	var chargingID *uuid.UUID
	if req.RDFCharging != nil && *req.RDFCharging != "" {
		parsed, parseErr := uuid.Parse(*req.RDFCharging)
		if parseErr != nil {
			return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "rdf_charging", Reason: "invalid charging reference"}
		}
		if _, lookupErr := s.chargingRepo.FindByID(ctx, parsed); lookupErr != nil {
			return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "rdf_charging", Reason: "charging record not found"}
		}
		chargingID = &parsed
	}

	var receiverID *uuid.UUID
	if req.ReceiverUserID != nil && *req.ReceiverUserID != "" {
		parsed, parseErr := uuid.Parse(*req.ReceiverUserID)
		if parseErr != nil {
			return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "receiver_user_id", Reason: "invalid receiver reference"}
		}
		if _, lookupErr := s.userRepo.GetByID(ctx, parsed.String()); lookupErr != nil {
			return zero, uuid.Nil, nil, nil, &floweditor.ValidationError{Field: "receiver_user_id", Reason: "receiver not found"}
		}
		receiverID = &parsed
	}

	fields := floweditor.Fields{
		Name:        req.Name,
		Description: req.Description,
	}
	return fields, formID, chargingID, receiverID, nil
}

// checkInUseLocks keeps the structural fields immutable while the flow is
// referenced by in-flight submissions. Name, description, receiver and the
// approver sequence stay editable regardless.
func checkInUseLocks(flow *model.ApprovalFlow, formID uuid.UUID, chargingID *uuid.UUID, noCharging bool, pending int64) error {
	if pending == 0 {
		return nil
	}
	if formID != flow.FormID {
		return &floweditor.ConflictError{Field: "form_id"}
	}
	if !uuidPtrEqual(chargingID, flow.ChargingID) {
		return &floweditor.ConflictError{Field: "rdf_charging"}
	}
	if noCharging != flow.NoCharging {
		return &floweditor.ConflictError{Field: "no_charging"}
	}
	return nil
}

// buildSteps turns the ordered id list into denormalized approver steps via
// the sequence editor, which enforces dedupe and contiguous 1..N ranks the
// same way the editor UI does. Duplicate ids in the request are rejected
// rather than silently collapsed.
func (s *flowService) buildSteps(ctx context.Context, approverIDs []string) ([]model.ApproverStep, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load approver directory: %w", err)
	}

	directory := make([]floweditor.Approver, 0, len(users))
	for _, u := range users {
		directory = append(directory, floweditor.Approver{
			ID:         u.ID.String(),
			FullName:   u.FullName,
			Position:   u.Position,
			Department: u.Department,
		})
	}

	editor := floweditor.NewSequenceEditor(directory, nil)
	for _, id := range approverIDs {
		if !editor.Add(id) {
			return nil, &floweditor.ValidationError{Field: "approver_sequence", Reason: fmt.Sprintf("duplicate or empty approver id %q", id)}
		}
	}

	steps := make([]model.ApproverStep, 0, len(approverIDs))
	for _, step := range editor.Sequence() {
		approverID, parseErr := uuid.Parse(step.ApproverID)
		if parseErr != nil {
			return nil, &floweditor.ValidationError{Field: "approver_sequence", Reason: fmt.Sprintf("invalid approver id %q", step.ApproverID)}
		}
		steps = append(steps, model.ApproverStep{
			ApproverID:  approverID,
			DisplayName: step.DisplayName,
			Position:    step.Position,
			Department:  step.Department,
			Order:       step.Order,
		})
	}
	return steps, nil
}

func (s *flowService) writeAudit(tx *gorm.DB, actorID, action, entityID, entityName string, details map[string]interface{}) error {
	var userID *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		userID = &parsed
	}

	payload := ""
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}

	audit := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *flowService) broadcast(event, entityID, name string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(event, entityID, name)
}

func toFlowResponse(flow *model.ApprovalFlow, inUse bool) FlowResponse {
	resp := FlowResponse{
		ID:          flow.ID.String(),
		Name:        flow.Name,
		Description: flow.Description,
		IsActive:    flow.IsActive,
		NoCharging:  flow.NoCharging,
		IsInUse:     inUse,
		CreatedAt:   flow.CreatedAt.Format(timeLayout),
		UpdatedAt:   flow.UpdatedAt.Format(timeLayout),
		Approvers:   make([]ApproverStepResponse, 0, len(flow.Approvers)),
	}

	if flow.Form != nil {
		resp.Form = &ReferenceResponse{ID: flow.Form.ID.String(), Code: flow.Form.Code, Name: flow.Form.Name}
	}
	if flow.Charging != nil {
		resp.Charging = &ReferenceResponse{ID: flow.Charging.ID.String(), Code: flow.Charging.Code, Name: flow.Charging.Name}
		cascade := floweditor.Flatten(chargingSnapshot(flow.Charging))
		resp.Cascade = &cascade
	}
	if flow.Receiver != nil {
		resp.Receiver = &ReferenceResponse{ID: flow.Receiver.ID.String(), Name: flow.Receiver.FullName}
	}
	if flow.DeletedAt.Valid {
		archivedAt := flow.DeletedAt.Time.Format(timeLayout)
		resp.ArchivedAt = &archivedAt
	}

	for _, step := range flow.Approvers {
		resp.Approvers = append(resp.Approvers, ApproverStepResponse{
			ApproverID:  step.ApproverID.String(),
			DisplayName: step.DisplayName,
			Position:    step.Position,
			Department:  step.Department,
			Order:       step.Order,
		})
	}

	return resp
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// txContext injects a transaction into ctx so repositories called inside the
// closure participate in it via repository.GetDB.
func txContext(ctx context.Context, tx *gorm.DB) context.Context {
	return repository.WithTx(ctx, tx)
}

const timeLayout = time.RFC3339
