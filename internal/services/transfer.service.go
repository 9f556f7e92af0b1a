package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/internal/repository"
	"github.com/sowlabs/transfer-office/pkg/logger"
	"github.com/sowlabs/transfer-office/pkg/prom"
)

type TransferRepository interface {
	Create(ctx context.Context, t *model.Transfer) (*model.Transfer, error)
	GetByID(ctx context.Context, id int64) (*model.Transfer, error)
	Update(ctx context.Context, id int64, u model.TransferUpdate) error
	Delete(ctx context.Context, id int64) error
	Withdraw(ctx context.Context, id int64, entry model.WithdrawalEntry) (*model.Transfer, error)
	List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error)
}

type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// EventQueue is the receipts stream; publishing is best-effort and
// never fails a ledger operation.
type EventQueue interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

const DefaultCreateAttempts = 5

// TransferService owns the transfer lifecycle: validation, code
// allocation, the one-way Active -> Withdrawn transition and its
// audit trail.
type TransferService struct {
	transferRepo   TransferRepository
	allocator      CodeGenerator
	events         EventQueue
	createAttempts int
}

func NewTransferService(transferRepo TransferRepository, allocator CodeGenerator, events EventQueue, createAttempts int) *TransferService {
	if createAttempts <= 0 {
		createAttempts = DefaultCreateAttempts
	}
	return &TransferService{
		transferRepo:   transferRepo,
		allocator:      allocator,
		events:         events,
		createAttempts: createAttempts,
	}
}

// Create validates the request, derives the recovery amount, allocates
// a code when none was supplied and persists the transfer. A
// duplicate-code insert means two creations drew the same candidate
// between probe and insert; in that case the code is re-drawn and the
// insert retried, bounded by createAttempts. Caller-supplied codes are
// never re-drawn.
func (s *TransferService) Create(ctx context.Context, req model.TransferCreateRequest) (*model.Transfer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userType := req.UserType
	if userType == "" {
		userType = "Client"
	}

	t := &model.Transfer{
		UserType:            userType,
		SenderFirstName:     req.SenderFirstName,
		SenderPhone:         req.SenderPhone,
		OriginLocation:      req.OriginLocation,
		ReceiverFirstName:   req.ReceiverFirstName,
		ReceiverPhone:       req.ReceiverPhone,
		DestinationLocation: req.DestinationLocation,
		Amount:              req.Amount,
		Fees:                req.Fees,
		RecoveryAmount:      req.Amount - req.Fees,
		Currency:            req.Currency,
		RecoveryMode:        req.RecoveryMode,
		Retired:             false,
		RetraitHistory:      []model.WithdrawalEntry{},
	}

	supplied := req.Code != ""
	attempts := s.createAttempts
	if supplied {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		code := model.Normalize(req.Code)
		if !supplied {
			generated, err := s.allocator.Generate(ctx)
			if err != nil {
				return nil, err
			}
			code = generated
		}
		t.Code = code

		created, err := s.transferRepo.Create(ctx, t)
		if err == nil {
			prom.IncTransferCreated(created.Currency)
			s.publish(ctx, model.EventTransferCreated, created)
			return created, nil
		}
		if supplied || !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, err
		}
		// raced a concurrent insert on the same candidate; draw again
	}

	return nil, fmt.Errorf("%w: after %d inserts", ErrAllocationExhausted, s.createAttempts)
}

func (s *TransferService) Get(ctx context.Context, id int64) (*model.Transfer, error) {
	return s.transferRepo.GetByID(ctx, id)
}

func (s *TransferService) List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error) {
	return s.transferRepo.List(ctx, f)
}

// Update applies partial changes without re-running the creation
// validation. recovery_amount keeps its creation-time snapshot even if
// amount or fees change here.
func (s *TransferService) Update(ctx context.Context, id int64, u model.TransferUpdate) error {
	return s.transferRepo.Update(ctx, id, u)
}

func (s *TransferService) Delete(ctx context.Context, id int64) error {
	return s.transferRepo.Delete(ctx, id)
}

// Withdraw pays a transfer out: retired flips to true exactly once and
// the payout trail gains one entry. A second call fails with
// repository.ErrAlreadyWithdrawn.
func (s *TransferService) Withdraw(ctx context.Context, id int64, mode string) (*model.Transfer, error) {
	mode = model.Normalize(mode)
	if !model.ValidRecoveryMode(mode) {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidMode, mode)
	}

	entry := model.WithdrawalEntry{
		Date: time.Now().UTC(),
		Mode: mode,
	}

	t, err := s.transferRepo.Withdraw(ctx, id, entry)
	if err != nil {
		return nil, err
	}

	prom.IncTransferWithdrawn(mode)
	s.publish(ctx, model.EventTransferWithdrawn, t)
	return t, nil
}

func (s *TransferService) publish(ctx context.Context, eventType string, t *model.Transfer) {
	if s.events == nil {
		return
	}
	event := model.NewTransferEvent(eventType, t)
	if _, err := s.events.PublishJSON(ctx, event, map[string]string{"type": eventType}); err != nil {
		logger.Error("failed to publish transfer event",
			"type", eventType,
			"transfer_id", t.ID,
			"error", err)
	}
}
