package service

import (
	"context"
	"fmt"

	"hradmin/internal/repository"
)

// --- DTOs ---

type DirectoryUserResponse struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

type FormTypeResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// --- Interface ---

// DirectoryService serves the selectable master lists the flow editor draws
// from: approver candidates, receiver candidates and submittable form types.
type DirectoryService interface {
	GetApprovers(ctx context.Context) ([]DirectoryUserResponse, error)
	GetReceivers(ctx context.Context) ([]DirectoryUserResponse, error)
	GetForms(ctx context.Context) ([]FormTypeResponse, error)
}

type directoryService struct {
	userRepo repository.UserRepository
	formRepo repository.FormRepository
}

func NewDirectoryService(userRepo repository.UserRepository, formRepo repository.FormRepository) DirectoryService {
	return &directoryService{userRepo: userRepo, formRepo: formRepo}
}

// --- Implementation ---

func (s *directoryService) GetApprovers(ctx context.Context) ([]DirectoryUserResponse, error) {
	return s.activeUsers(ctx)
}

// GetReceivers returns the same active-user pool as GetApprovers; receivers
// are not role-restricted, any active user can be a terminal notification
// target.
func (s *directoryService) GetReceivers(ctx context.Context) ([]DirectoryUserResponse, error) {
	return s.activeUsers(ctx)
}

func (s *directoryService) GetForms(ctx context.Context) ([]FormTypeResponse, error) {
	forms, err := s.formRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form types: %w", err)
	}

	result := make([]FormTypeResponse, 0, len(forms))
	for _, f := range forms {
		result = append(result, FormTypeResponse{
			ID:       f.ID.String(),
			Code:     f.Code,
			Name:     f.Name,
			Category: f.Category,
		})
	}
	return result, nil
}

func (s *directoryService) activeUsers(ctx context.Context) ([]DirectoryUserResponse, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user directory: %w", err)
	}

	result := make([]DirectoryUserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, DirectoryUserResponse{
			ID:         u.ID.String(),
			FullName:   u.FullName,
			Position:   u.Position,
			Department: u.Department,
		})
	}
	return result, nil
}
