package service

import (
	"context"
	"fmt"

	"hradmin/internal/floweditor"
	"hradmin/internal/model"
	"hradmin/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type ChargingResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	BudgetAmount string `json:"budget_amount"`
}

// CascadeResponse pairs the charging reference with its six resolved
// dependent fields.
type CascadeResponse struct {
	ChargingID string             `json:"charging_id"`
	Cascade    floweditor.Cascade `json:"cascade"`
}

// --- Interface ---

type ChargingService interface {
	ListChargings(ctx context.Context, search string, page, limit int) ([]ChargingResponse, int64, error)
	GetCharging(ctx context.Context, id string) (*ChargingResponse, error)
	ResolveCascade(ctx context.Context, id string) (*CascadeResponse, error)
}

type chargingService struct {
	repo repository.ChargingRepository
}

func NewChargingService(repo repository.ChargingRepository) ChargingService {
	return &chargingService{repo: repo}
}

// chargingLookup adapts the repository to the resolver's lookup contract.
type chargingLookup struct {
	repo repository.ChargingRepository
}

func (l chargingLookup) GetCharging(ctx context.Context, id string) (floweditor.ChargingSnapshot, error) {
	chargingID, err := uuid.Parse(id)
	if err != nil {
		return floweditor.ChargingSnapshot{}, fmt.Errorf("invalid charging id: %w", err)
	}
	record, err := l.repo.FindByID(ctx, chargingID)
	if err != nil {
		return floweditor.ChargingSnapshot{}, err
	}
	return chargingSnapshot(record), nil
}

// NewChargingLookup exposes the repository-backed lookup for editor sessions.
func NewChargingLookup(repo repository.ChargingRepository) floweditor.ChargingLookup {
	return chargingLookup{repo: repo}
}

// --- Implementation ---

func (s *chargingService) ListChargings(ctx context.Context, search string, page, limit int) ([]ChargingResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	records, total, err := s.repo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch charging records: %w", err)
	}

	result := make([]ChargingResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toChargingResponse(r))
	}
	return result, total, nil
}

func (s *chargingService) GetCharging(ctx context.Context, id string) (*ChargingResponse, error) {
	chargingID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid charging id: %w", err)
	}

	record, err := s.repo.FindByID(ctx, chargingID)
	if err != nil {
		return nil, fmt.Errorf("charging record not found: %w", err)
	}

	resp := toChargingResponse(*record)
	return &resp, nil
}

// ResolveCascade flattens a charging record into its six dependent fields.
// A failed lookup surfaces ErrResolutionFailed; the caller renders the
// dependent fields empty rather than guessing, and nothing is retried here.
func (s *chargingService) ResolveCascade(ctx context.Context, id string) (*CascadeResponse, error) {
	snap, err := chargingLookup{repo: s.repo}.GetCharging(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", floweditor.ErrResolutionFailed, err)
	}

	return &CascadeResponse{
		ChargingID: id,
		Cascade:    floweditor.Flatten(snap),
	}, nil
}

// --- Helpers ---

func chargingSnapshot(record *model.ChargingRecord) floweditor.ChargingSnapshot {
	return floweditor.ChargingSnapshot{
		ID:               record.ID.String(),
		DepartmentCode:   record.DepartmentCode,
		DepartmentName:   record.DepartmentName,
		CompanyCode:      record.CompanyCode,
		CompanyName:      record.CompanyName,
		BusinessUnitCode: record.BusinessUnitCode,
		BusinessUnitName: record.BusinessUnitName,
		UnitCode:         record.UnitCode,
		UnitName:         record.UnitName,
		SubUnitCode:      record.SubUnitCode,
		SubUnitName:      record.SubUnitName,
		LocationCode:     record.LocationCode,
		LocationName:     record.LocationName,
	}
}

func toChargingResponse(record model.ChargingRecord) ChargingResponse {
	return ChargingResponse{
		ID:           record.ID.String(),
		Code:         record.Code,
		Name:         record.Name,
		BudgetAmount: record.BudgetAmount.StringFixed(2),
	}
}
