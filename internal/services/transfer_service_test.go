package services

import (
	"context"
	"testing"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transfer), args.Error(1)
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id int64) (*model.Transfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transfer), args.Error(1)
}

func (m *MockTransferRepository) Update(ctx context.Context, id int64, u model.TransferUpdate) error {
	args := m.Called(ctx, id, u)
	return args.Error(0)
}

func (m *MockTransferRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransferRepository) Withdraw(ctx context.Context, id int64, entry model.WithdrawalEntry) (*model.Transfer, error) {
	args := m.Called(ctx, id, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transfer), args.Error(1)
}

func (m *MockTransferRepository) List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transfer), args.Get(1).(int64), args.Error(2)
}

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func validCreateRequest() model.TransferCreateRequest {
	return model.TransferCreateRequest{
		SenderFirstName:     "Mamadou",
		SenderPhone:         "+224620000001",
		OriginLocation:      "Conakry",
		ReceiverFirstName:   "Fatou",
		ReceiverPhone:       "+224620000002",
		DestinationLocation: "Labe",
		Amount:              1000,
		Fees:                100,
		Currency:            "gnf",
		RecoveryMode:        "especes",
	}
}

func TestTransferService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with allocated code and snapshot recovery amount", func(t *testing.T) {
		repo := new(MockTransferRepository)
		gen := new(MockCodeGenerator)
		service := NewTransferService(repo, gen, nil, 0)

		gen.On("Generate", ctx).Return("K512", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(tr *model.Transfer) bool {
			return tr.Code == "K512" &&
				tr.RecoveryAmount == 900 &&
				tr.OriginLocation == "CONAKRY" &&
				tr.DestinationLocation == "LABE" &&
				tr.Currency == "GNF" &&
				tr.RecoveryMode == "ESPECES" &&
				tr.UserType == "Client" &&
				!tr.Retired &&
				len(tr.RetraitHistory) == 0
		})).Return(&model.Transfer{ID: 1, Code: "K512", Currency: "GNF"}, nil).Once()

		created, err := service.Create(ctx, validCreateRequest())
		require.NoError(t, err)
		assert.Equal(t, "K512", created.Code)

		repo.AssertExpectations(t)
		gen.AssertExpectations(t)
	})

	t.Run("redraws when the insert loses the code race", func(t *testing.T) {
		repo := new(MockTransferRepository)
		gen := new(MockCodeGenerator)
		service := NewTransferService(repo, gen, nil, 0)

		gen.On("Generate", ctx).Return("A100", nil).Once()
		gen.On("Generate", ctx).Return("B200", nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(tr *model.Transfer) bool { return tr.Code == "A100" })).
			Return(nil, repository.ErrDuplicateCode).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(tr *model.Transfer) bool { return tr.Code == "B200" })).
			Return(&model.Transfer{ID: 2, Code: "B200"}, nil).Once()

		created, err := service.Create(ctx, validCreateRequest())
		require.NoError(t, err)
		assert.Equal(t, "B200", created.Code)

		repo.AssertExpectations(t)
		gen.AssertExpectations(t)
	})

	t.Run("gives up after repeated duplicate inserts", func(t *testing.T) {
		repo := new(MockTransferRepository)
		gen := new(MockCodeGenerator)
		service := NewTransferService(repo, gen, nil, 3)

		gen.On("Generate", ctx).Return("A100", nil).Times(3)
		repo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicateCode).Times(3)

		_, err := service.Create(ctx, validCreateRequest())
		assert.ErrorIs(t, err, ErrAllocationExhausted)

		repo.AssertExpectations(t)
	})

	t.Run("supplied code is used verbatim and never redrawn", func(t *testing.T) {
		repo := new(MockTransferRepository)
		gen := new(MockCodeGenerator)
		service := NewTransferService(repo, gen, nil, 0)

		req := validCreateRequest()
		req.Code = "z900"

		repo.On("Create", ctx, mock.MatchedBy(func(tr *model.Transfer) bool { return tr.Code == "Z900" })).
			Return(nil, repository.ErrDuplicateCode).Once()

		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, repository.ErrDuplicateCode)

		gen.AssertNotCalled(t, "Generate", mock.Anything)
		repo.AssertExpectations(t)
	})
}

func TestTransferService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransferRepository)
	gen := new(MockCodeGenerator)
	service := NewTransferService(repo, gen, nil, 0)

	tests := []struct {
		name    string
		mutate  func(*model.TransferCreateRequest)
		wantErr error
	}{
		{"unknown origin", func(r *model.TransferCreateRequest) { r.OriginLocation = "MARS" }, model.ErrInvalidLocation},
		{"unknown destination", func(r *model.TransferCreateRequest) { r.DestinationLocation = "ATLANTIS" }, model.ErrInvalidLocation},
		{"empty sender name", func(r *model.TransferCreateRequest) { r.SenderFirstName = "" }, model.ErrMissingField},
		{"empty receiver name", func(r *model.TransferCreateRequest) { r.ReceiverFirstName = "" }, model.ErrMissingField},
		{"malformed sender phone", func(r *model.TransferCreateRequest) { r.SenderPhone = "123" }, model.ErrInvalidPhone},
		{"malformed receiver phone", func(r *model.TransferCreateRequest) { r.ReceiverPhone = "abc" }, model.ErrInvalidPhone},
		{"zero amount", func(r *model.TransferCreateRequest) { r.Amount = 0 }, model.ErrInvalidAmount},
		{"negative amount", func(r *model.TransferCreateRequest) { r.Amount = -5 }, model.ErrInvalidAmount},
		{"negative fees", func(r *model.TransferCreateRequest) { r.Fees = -1 }, model.ErrInvalidAmount},
		{"fees above amount", func(r *model.TransferCreateRequest) { r.Fees = 2000 }, model.ErrInvalidAmount},
		{"unknown currency", func(r *model.TransferCreateRequest) { r.Currency = "BTC" }, model.ErrInvalidCurrency},
		{"unknown recovery mode", func(r *model.TransferCreateRequest) { r.RecoveryMode = "CASH APP" }, model.ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			_, err := service.Create(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, model.IsValidationError(err))
		})
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTransferService_Create_ValidationOrder(t *testing.T) {
	ctx := context.Background()
	service := NewTransferService(new(MockTransferRepository), new(MockCodeGenerator), nil, 0)

	// everything is wrong; location must be reported first
	req := model.TransferCreateRequest{
		OriginLocation: "NOWHERE",
		SenderPhone:    "bad",
		Amount:         -1,
		Currency:       "XXX",
	}

	_, err := service.Create(ctx, req)
	assert.ErrorIs(t, err, model.ErrInvalidLocation)
}

func TestTransferService_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("valid mode withdraws", func(t *testing.T) {
		repo := new(MockTransferRepository)
		service := NewTransferService(repo, new(MockCodeGenerator), nil, 0)

		repo.On("Withdraw", ctx, int64(7), mock.MatchedBy(func(e model.WithdrawalEntry) bool {
			return e.Mode == "ORANGE MONEY" && !e.Date.IsZero()
		})).Return(&model.Transfer{ID: 7, Retired: true}, nil).Once()

		got, err := service.Withdraw(ctx, 7, "orange money")
		require.NoError(t, err)
		assert.True(t, got.Retired)
		repo.AssertExpectations(t)
	})

	t.Run("unknown mode is rejected before touching storage", func(t *testing.T) {
		repo := new(MockTransferRepository)
		service := NewTransferService(repo, new(MockCodeGenerator), nil, 0)

		_, err := service.Withdraw(ctx, 7, "BITCOIN")
		assert.ErrorIs(t, err, model.ErrInvalidMode)
		repo.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already withdrawn bubbles up", func(t *testing.T) {
		repo := new(MockTransferRepository)
		service := NewTransferService(repo, new(MockCodeGenerator), nil, 0)

		repo.On("Withdraw", ctx, int64(7), mock.Anything).
			Return(nil, repository.ErrAlreadyWithdrawn).Once()

		_, err := service.Withdraw(ctx, 7, "ESPECES")
		assert.ErrorIs(t, err, repository.ErrAlreadyWithdrawn)
	})
}

func TestTransferService_Update_SkipsValidation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransferRepository)
	service := NewTransferService(repo, new(MockCodeGenerator), nil, 0)

	// the generic update path accepts values creation would reject
	amount := float64(-50)
	u := model.TransferUpdate{Amount: &amount}

	repo.On("Update", ctx, int64(3), u).Return(nil).Once()

	err := service.Update(ctx, 3, u)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
