package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/internal/repository"
)

type StockRepository interface {
	Create(ctx context.Context, s *model.Stock) (*model.Stock, error)
	GetByID(ctx context.Context, id int64) (*model.Stock, error)
	Update(ctx context.Context, id int64, u model.StockUpdate) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.StockFilter) ([]*model.Stock, int64, error)
}

// StockService is the held-item ledger. It shares the code allocator
// with transfers so both ledgers draw from one namespace.
type StockService struct {
	stockRepo      StockRepository
	allocator      CodeGenerator
	createAttempts int
}

func NewStockService(stockRepo StockRepository, allocator CodeGenerator, createAttempts int) *StockService {
	if createAttempts <= 0 {
		createAttempts = DefaultCreateAttempts
	}
	return &StockService{
		stockRepo:      stockRepo,
		allocator:      allocator,
		createAttempts: createAttempts,
	}
}

func (s *StockService) Create(ctx context.Context, req model.StockCreateRequest) (*model.Stock, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stock := &model.Stock{
		Name:      req.Name,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Location:  req.Location,
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
		stock.Code = code

		created, err := s.stockRepo.Create(ctx, stock)
		if err == nil {
			return created, nil
		}
		if supplied || !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: after %d inserts", ErrAllocationExhausted, s.createAttempts)
}

func (s *StockService) Get(ctx context.Context, id int64) (*model.Stock, error) {
	return s.stockRepo.GetByID(ctx, id)
}

func (s *StockService) List(ctx context.Context, f model.StockFilter) ([]*model.Stock, int64, error) {
	return s.stockRepo.List(ctx, f)
}

func (s *StockService) Update(ctx context.Context, id int64, u model.StockUpdate) error {
	return s.stockRepo.Update(ctx, id, u)
}

func (s *StockService) Delete(ctx context.Context, id int64) error {
	return s.stockRepo.Delete(ctx, id)
}
