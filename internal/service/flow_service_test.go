package service

import (
	"context"
	"errors"
	"testing"

	"hradmin/internal/floweditor"
	"hradmin/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// In-memory repository doubles so the validation helpers run without a
// database connection.

type stubUserRepo struct {
	users []model.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	for i := range r.users {
		if r.users[i].ID.String() == id {
			return &r.users[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return r.users, int64(len(r.users)), nil
}

func (r *stubUserRepo) ListActive(ctx context.Context) ([]model.User, error) {
	return r.users, nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (r *stubUserRepo) Delete(ctx context.Context, id string) error { return nil }

type stubFormRepo struct {
	forms map[uuid.UUID]*model.Form
}

func (r *stubFormRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Form, error) {
	if form, ok := r.forms[id]; ok {
		return form, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubFormRepo) FindByCode(ctx context.Context, code string) (*model.Form, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubFormRepo) ListActive(ctx context.Context) ([]model.Form, error) { return nil, nil }

func (r *stubFormRepo) Create(ctx context.Context, form *model.Form) error { return nil }

type stubChargingRepo struct {
	records map[uuid.UUID]*model.ChargingRecord
}

func (r *stubChargingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ChargingRecord, error) {
	if record, ok := r.records[id]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubChargingRepo) FindByCode(ctx context.Context, code string) (*model.ChargingRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubChargingRepo) List(ctx context.Context, search string, page, limit int) ([]model.ChargingRecord, int64, error) {
	return nil, 0, nil
}

func (r *stubChargingRepo) Upsert(ctx context.Context, record *model.ChargingRecord) error {
	return nil
}

type flowServiceFixture struct {
	svc        *flowService
	formID     uuid.UUID
	chargingID uuid.UUID
	approvers  []model.User
}

func newFlowServiceFixture(t *testing.T) *flowServiceFixture {
	t.Helper()

	formID := uuid.New()
	chargingID := uuid.New()
	approvers := []model.User{
		{ID: uuid.New(), FullName: "Nguyen Van A", Position: "Team Lead", Department: "Engineering", IsActive: true},
		{ID: uuid.New(), FullName: "Tran Thi B", Position: "Manager", Department: "HR", IsActive: true},
	}

	svc := &flowService{
		userRepo: &stubUserRepo{users: approvers},
		formRepo: &stubFormRepo{forms: map[uuid.UUID]*model.Form{
			formID: {ID: formID, Code: "CAT1", Name: "Category 1 Request"},
		}},
		chargingRepo: &stubChargingRepo{records: map[uuid.UUID]*model.ChargingRecord{
			chargingID: {ID: chargingID, Code: "RDF-HR-001", Name: "HR Recruitment"},
		}},
	}
	return &flowServiceFixture{svc: svc, formID: formID, chargingID: chargingID, approvers: approvers}
}

func (f *flowServiceFixture) validRequest() FlowPayloadRequest {
	return FlowPayloadRequest{
		Name:             "Leave approval",
		Description:      "Standard leave flow",
		FormID:           f.formID.String(),
		ApproverSequence: []string{f.approvers[0].ID.String(), f.approvers[1].ID.String()},
	}
}

func strPtr(s string) *string { return &s }

func TestValidatePayload(t *testing.T) {
	fixture := newFlowServiceFixture(t)
	ctx := context.Background()

	t.Run("valid payload with charging and receiver", func(t *testing.T) {
		req := fixture.validRequest()
		req.RDFCharging = strPtr(fixture.chargingID.String())
		req.ReceiverUserID = strPtr(fixture.approvers[1].ID.String())

		fields, formID, chargingID, receiverID, err := fixture.svc.validatePayload(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Leave approval", fields.Name)
		assert.Equal(t, fixture.formID, formID)
		require.NotNil(t, chargingID)
		assert.Equal(t, fixture.chargingID, *chargingID)
		require.NotNil(t, receiverID)
		assert.Equal(t, fixture.approvers[1].ID, *receiverID)
	})

	tests := []struct {
		name      string
		mutate    func(req *FlowPayloadRequest)
		wantField string
	}{
		{
			name:      "missing name",
			mutate:    func(req *FlowPayloadRequest) { req.Name = "" },
			wantField: "name",
		},
		{
			name:      "empty approver sequence",
			mutate:    func(req *FlowPayloadRequest) { req.ApproverSequence = nil },
			wantField: "approver_sequence",
		},
		{
			name: "charging and no-charging are mutually exclusive",
			mutate: func(req *FlowPayloadRequest) {
				req.NoCharging = true
				req.RDFCharging = strPtr(fixture.chargingID.String())
			},
			wantField: "rdf_charging",
		},
		{
			name:      "malformed form id",
			mutate:    func(req *FlowPayloadRequest) { req.FormID = "not-a-uuid" },
			wantField: "form_id",
		},
		{
			name:      "unknown form id",
			mutate:    func(req *FlowPayloadRequest) { req.FormID = uuid.New().String() },
			wantField: "form_id",
		},
		{
			name:      "malformed charging id",
			mutate:    func(req *FlowPayloadRequest) { req.RDFCharging = strPtr("not-a-uuid") },
			wantField: "rdf_charging",
		},
		{
			name:      "dangling charging id",
			mutate:    func(req *FlowPayloadRequest) { req.RDFCharging = strPtr(uuid.New().String()) },
			wantField: "rdf_charging",
		},
		{
			name:      "malformed receiver id",
			mutate:    func(req *FlowPayloadRequest) { req.ReceiverUserID = strPtr("not-a-uuid") },
			wantField: "receiver_user_id",
		},
		{
			name:      "dangling receiver id",
			mutate:    func(req *FlowPayloadRequest) { req.ReceiverUserID = strPtr(uuid.New().String()) },
			wantField: "receiver_user_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := fixture.validRequest()
			tt.mutate(&req)

			_, _, _, _, err := fixture.svc.validatePayload(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, floweditor.ErrValidationFailed))

			var verr *floweditor.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestBuildSteps(t *testing.T) {
	fixture := newFlowServiceFixture(t)
	ctx := context.Background()

	t.Run("denormalizes directory data with contiguous ranks", func(t *testing.T) {
		steps, err := fixture.svc.buildSteps(ctx, []string{
			fixture.approvers[1].ID.String(),
			fixture.approvers[0].ID.String(),
		})
		require.NoError(t, err)
		require.Len(t, steps, 2)

		assert.Equal(t, fixture.approvers[1].ID, steps[0].ApproverID)
		assert.Equal(t, "Tran Thi B", steps[0].DisplayName)
		assert.Equal(t, "HR", steps[0].Department)
		assert.Equal(t, 1, steps[0].Order)

		assert.Equal(t, fixture.approvers[0].ID, steps[1].ApproverID)
		assert.Equal(t, 2, steps[1].Order)
	})

	t.Run("approver outside the directory keeps the placeholder name", func(t *testing.T) {
		outsider := uuid.New()
		steps, err := fixture.svc.buildSteps(ctx, []string{outsider.String()})
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, outsider, steps[0].ApproverID)
		assert.Equal(t, floweditor.UnknownUserName, steps[0].DisplayName)
	})

	t.Run("duplicate approver id is rejected", func(t *testing.T) {
		id := fixture.approvers[0].ID.String()
		_, err := fixture.svc.buildSteps(ctx, []string{id, id})
		require.Error(t, err)
		assert.True(t, errors.Is(err, floweditor.ErrValidationFailed))

		var verr *floweditor.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "approver_sequence", verr.Field)
	})

	t.Run("malformed approver id is rejected", func(t *testing.T) {
		_, err := fixture.svc.buildSteps(ctx, []string{"not-a-uuid"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, floweditor.ErrValidationFailed))
	})
}

func TestCheckInUseLocks(t *testing.T) {
	formID := uuid.New()
	chargingID := uuid.New()
	otherForm := uuid.New()
	otherCharging := uuid.New()

	flow := &model.ApprovalFlow{
		ID:         uuid.New(),
		FormID:     formID,
		ChargingID: &chargingID,
		NoCharging: false,
	}

	tests := []struct {
		name       string
		formID     uuid.UUID
		chargingID *uuid.UUID
		noCharging bool
		pending    int64
		wantField  string
	}{
		{
			name:       "no pending submissions allows structural change",
			formID:     otherForm,
			chargingID: nil,
			noCharging: true,
			pending:    0,
		},
		{
			name:       "unchanged structure passes while in use",
			formID:     formID,
			chargingID: &chargingID,
			pending:    3,
		},
		{
			name:      "form change blocked while in use",
			formID:    otherForm,
			pending:   1,
			wantField: "form_id",
		},
		{
			name:       "charging change blocked while in use",
			formID:     formID,
			chargingID: &otherCharging,
			pending:    1,
			wantField:  "rdf_charging",
		},
		{
			name:       "no-charging toggle blocked while in use",
			formID:     formID,
			chargingID: &chargingID,
			noCharging: true,
			pending:    1,
			wantField:  "no_charging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkInUseLocks(flow, tt.formID, tt.chargingID, tt.noCharging, tt.pending)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, floweditor.ErrInUseConflict))

			var cerr *floweditor.ConflictError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.wantField, cerr.Field)
		})
	}
}
