package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hradmin/internal/model"
	"hradmin/internal/repository"
	"hradmin/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateSubmissionRequest struct {
	FlowID      string `json:"flow_id" binding:"required"`
	PayloadData string `json:"payload_data" binding:"required"` // JSON snapshot of the filled form
}

type SubmissionFilter struct {
	Status string // PENDING, APPROVED, REJECTED, CANCELLED or empty for all
	FlowID string
	Page   int
	Limit  int
}

type RejectSubmissionRequest struct {
	Reason string `json:"reason"`
}

type SubmissionResponse struct {
	ID              string  `json:"id"`
	FormCode        string  `json:"form_code"`
	FormName        string  `json:"form_name"`
	FlowID          string  `json:"flow_id"`
	SubmittedBy     string  `json:"submitted_by"`
	SubmitterName   string  `json:"submitter_name"`
	PayloadData     string  `json:"payload_data"`
	Status          string  `json:"status"`
	CurrentStep     int     `json:"current_step"`
	TotalSteps      int     `json:"total_steps"`
	DecidedBy       *string `json:"decided_by"`
	DeciderName     string  `json:"decider_name"`
	DecidedAt       *string `json:"decided_at"`
	RejectionReason string  `json:"rejection_reason"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

type SubmissionService interface {
	CreateSubmission(ctx context.Context, req CreateSubmissionRequest, userID string) (SubmissionResponse, error)
	GetSubmission(ctx context.Context, id string) (SubmissionResponse, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]SubmissionResponse, int64, error)
	ApproveSubmission(ctx context.Context, id string, userID string) (SubmissionResponse, error)
	RejectSubmission(ctx context.Context, id string, userID string, reason string) (SubmissionResponse, error)
	CancelSubmission(ctx context.Context, id string, userID string) (SubmissionResponse, error)
}

type submissionService struct {
	db       *gorm.DB
	subRepo  repository.SubmissionRepository
	flowRepo repository.FlowRepository
	hub      *websocket.Hub
}

func NewSubmissionService(db *gorm.DB, subRepo repository.SubmissionRepository, flowRepo repository.FlowRepository, hub *websocket.Hub) SubmissionService {
	return &submissionService{db: db, subRepo: subRepo, flowRepo: flowRepo, hub: hub}
}

// --- Implementation ---

func (s *submissionService) CreateSubmission(ctx context.Context, req CreateSubmissionRequest, userID string) (SubmissionResponse, error) {
	flowID, err := uuid.Parse(req.FlowID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid flow id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid user id: %w", err)
	}
	if !json.Valid([]byte(req.PayloadData)) {
		return SubmissionResponse{}, fmt.Errorf("payload_data must be valid JSON")
	}

	flow, err := s.flowRepo.FindByIDWithRelations(ctx, flowID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("approval flow not found: %w", err)
	}
	if flow.DeletedAt.Valid || !flow.IsActive {
		return SubmissionResponse{}, fmt.Errorf("approval flow '%s' is not accepting submissions", flow.Name)
	}
	if len(flow.Approvers) == 0 {
		return SubmissionResponse{}, fmt.Errorf("approval flow '%s' has no approver sequence", flow.Name)
	}

	submission := model.FormSubmission{
		FormID:      flow.FormID,
		FlowID:      flow.ID,
		SubmittedBy: submitterID,
		PayloadData: req.PayloadData,
		Status:      model.SubmissionPending,
		CurrentStep: 1,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)
		if createErr := s.subRepo.Create(txCtx, &submission); createErr != nil {
			return fmt.Errorf("failed to create submission: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"flow_id":   flow.ID.String(),
			"flow_name": flow.Name,
		})
		audit := model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionCreateSubmission,
			EntityID:   submission.ID.String(),
			EntityName: flow.Name,
			Details:    string(details),
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	s.notify(websocket.EventSubmissionCreated, &submission, flow)
	return s.reload(ctx, submission.ID, flow)
}

func (s *submissionService) GetSubmission(ctx context.Context, id string) (SubmissionResponse, error) {
	submissionID, err := uuid.Parse(id)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid submission id: %w", err)
	}

	submission, err := s.subRepo.FindByIDWithRelations(ctx, submissionID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("submission not found: %w", err)
	}

	flow, err := s.flowRepo.FindByIDWithRelations(ctx, submission.FlowID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("approval flow not found: %w", err)
	}

	return toSubmissionResponse(submission, flow), nil
}

func (s *submissionService) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]SubmissionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.SubmissionFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.FlowID != "" {
		flowID, err := uuid.Parse(filter.FlowID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid flow id: %w", err)
		}
		repoFilter.FlowID = &flowID
	}

	submissions, total, err := s.subRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	result := make([]SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		flow, flowErr := s.flowRepo.FindByIDWithRelations(ctx, submissions[i].FlowID)
		if flowErr != nil {
			return nil, 0, fmt.Errorf("failed to load flow for submission: %w", flowErr)
		}
		result = append(result, toSubmissionResponse(&submissions[i], flow))
	}
	return result, total, nil
}

// ApproveSubmission records the current-step approver's decision. The chain
// advances one rank per approval; approval at the final rank completes the
// submission.
func (s *submissionService) ApproveSubmission(ctx context.Context, id string, userID string) (SubmissionResponse, error) {
	submissionID, err := uuid.Parse(id)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid submission id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var submission *model.FormSubmission
	var flow *model.ApprovalFlow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)

		var findErr error
		submission, findErr = s.subRepo.FindByID(txCtx, submissionID)
		if findErr != nil {
			return fmt.Errorf("submission not found: %w", findErr)
		}
		if submission.Status != model.SubmissionPending {
			return fmt.Errorf("submission is already %s", submission.Status)
		}

		flow, findErr = s.flowRepo.FindByIDWithRelations(txCtx, submission.FlowID)
		if findErr != nil {
			return fmt.Errorf("approval flow not found: %w", findErr)
		}

		step := stepAtRank(flow, submission.CurrentStep)
		if step == nil {
			return fmt.Errorf("submission references rank %d beyond the approver chain", submission.CurrentStep)
		}
		if step.ApproverID != approverID {
			return fmt.Errorf("user is not the rank-%d approver for this submission", submission.CurrentStep)
		}

		if submission.CurrentStep >= len(flow.Approvers) {
			now := time.Now()
			submission.Status = model.SubmissionApproved
			submission.DecidedBy = &approverID
			submission.DecidedAt = &now
		} else {
			submission.CurrentStep++
		}

		if saveErr := s.subRepo.Update(txCtx, submission); saveErr != nil {
			return fmt.Errorf("failed to update submission: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"flow_id": flow.ID.String(),
			"step":    submission.CurrentStep,
			"final":   submission.Status == model.SubmissionApproved,
		})
		audit := model.AuditLog{
			UserID:     &approverID,
			Action:     model.ActionApproveSubmission,
			EntityID:   submission.ID.String(),
			EntityName: flow.Name,
			Details:    string(details),
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	s.notify(websocket.EventSubmissionDecided, submission, flow)
	return s.reload(ctx, submission.ID, flow)
}

func (s *submissionService) RejectSubmission(ctx context.Context, id string, userID string, reason string) (SubmissionResponse, error) {
	submissionID, err := uuid.Parse(id)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid submission id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var submission *model.FormSubmission
	var flow *model.ApprovalFlow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)

		var findErr error
		submission, findErr = s.subRepo.FindByID(txCtx, submissionID)
		if findErr != nil {
			return fmt.Errorf("submission not found: %w", findErr)
		}
		if submission.Status != model.SubmissionPending {
			return fmt.Errorf("submission is already %s", submission.Status)
		}

		flow, findErr = s.flowRepo.FindByIDWithRelations(txCtx, submission.FlowID)
		if findErr != nil {
			return fmt.Errorf("approval flow not found: %w", findErr)
		}

		step := stepAtRank(flow, submission.CurrentStep)
		if step == nil || step.ApproverID != approverID {
			return fmt.Errorf("user is not the rank-%d approver for this submission", submission.CurrentStep)
		}

		now := time.Now()
		submission.Status = model.SubmissionRejected
		submission.DecidedBy = &approverID
		submission.DecidedAt = &now
		submission.RejectionReason = reason

		if saveErr := s.subRepo.Update(txCtx, submission); saveErr != nil {
			return fmt.Errorf("failed to update submission: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"flow_id": flow.ID.String(),
			"reason":  reason,
		})
		audit := model.AuditLog{
			UserID:     &approverID,
			Action:     model.ActionRejectSubmission,
			EntityID:   submission.ID.String(),
			EntityName: flow.Name,
			Details:    string(details),
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	s.notify(websocket.EventSubmissionDecided, submission, flow)
	return s.reload(ctx, submission.ID, flow)
}

// CancelSubmission lets the original submitter withdraw a still-pending
// submission.
func (s *submissionService) CancelSubmission(ctx context.Context, id string, userID string) (SubmissionResponse, error) {
	submissionID, err := uuid.Parse(id)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid submission id: %w", err)
	}
	requesterID, err := uuid.Parse(userID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var submission *model.FormSubmission
	var flow *model.ApprovalFlow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := txContext(ctx, tx)

		var findErr error
		submission, findErr = s.subRepo.FindByID(txCtx, submissionID)
		if findErr != nil {
			return fmt.Errorf("submission not found: %w", findErr)
		}
		if submission.Status != model.SubmissionPending {
			return fmt.Errorf("submission is already %s", submission.Status)
		}
		if submission.SubmittedBy != requesterID {
			return fmt.Errorf("only the submitter can cancel a submission")
		}

		flow, findErr = s.flowRepo.FindByIDWithRelations(txCtx, submission.FlowID)
		if findErr != nil {
			return fmt.Errorf("approval flow not found: %w", findErr)
		}

		now := time.Now()
		submission.Status = model.SubmissionCancelled
		submission.DecidedBy = &requesterID
		submission.DecidedAt = &now

		if saveErr := s.subRepo.Update(txCtx, submission); saveErr != nil {
			return fmt.Errorf("failed to update submission: %w", saveErr)
		}

		audit := model.AuditLog{
			UserID:     &requesterID,
			Action:     model.ActionCancelSubmission,
			EntityID:   submission.ID.String(),
			EntityName: flow.Name,
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	s.notify(websocket.EventSubmissionDecided, submission, flow)
	return s.reload(ctx, submission.ID, flow)
}

// --- Helpers ---

func (s *submissionService) reload(ctx context.Context, id uuid.UUID, flow *model.ApprovalFlow) (SubmissionResponse, error) {
	submission, err := s.subRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("failed to reload submission: %w", err)
	}
	return toSubmissionResponse(submission, flow), nil
}

func (s *submissionService) notify(event string, submission *model.FormSubmission, flow *model.ApprovalFlow) {
	if s.hub == nil || submission == nil {
		return
	}
	name := submission.Status
	if flow != nil {
		name = flow.Name + ": " + submission.Status
	}
	s.hub.BroadcastEvent(event, submission.ID.String(), name)
}

func stepAtRank(flow *model.ApprovalFlow, rank int) *model.ApproverStep {
	for i := range flow.Approvers {
		if flow.Approvers[i].Order == rank {
			return &flow.Approvers[i]
		}
	}
	return nil
}

func toSubmissionResponse(sub *model.FormSubmission, flow *model.ApprovalFlow) SubmissionResponse {
	resp := SubmissionResponse{
		ID:              sub.ID.String(),
		FlowID:          sub.FlowID.String(),
		SubmittedBy:     sub.SubmittedBy.String(),
		PayloadData:     sub.PayloadData,
		Status:          sub.Status,
		CurrentStep:     sub.CurrentStep,
		RejectionReason: sub.RejectionReason,
		CreatedAt:       sub.CreatedAt.Format(timeLayout),
	}

	if sub.Form != nil {
		resp.FormCode = sub.Form.Code
		resp.FormName = sub.Form.Name
	}
	if sub.Submitter != nil {
		resp.SubmitterName = sub.Submitter.FullName
	}
	if sub.DecidedBy != nil {
		id := sub.DecidedBy.String()
		resp.DecidedBy = &id
	}
	if sub.Decider != nil {
		resp.DeciderName = sub.Decider.FullName
	}
	if sub.DecidedAt != nil {
		decidedAt := sub.DecidedAt.Format(timeLayout)
		resp.DecidedAt = &decidedAt
	}
	if flow != nil {
		resp.TotalSteps = len(flow.Approvers)
	}

	return resp
}
