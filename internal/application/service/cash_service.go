package service

import (
	"context"
	"strings"
	"time"

	"github.com/sangkips/mesa-api/internal/application/billing"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// CashService is the register's cash-flow ledger. Bill payments are written
// by TableService in the same commit as the payment; this service records
// everything else.
type CashService struct {
	store    docstore.Store
	cashRepo repository.CashRepository
	events   event.Publisher
}

// NewCashService creates a new cash service
func NewCashService(store docstore.Store, cashRepo repository.CashRepository, events event.Publisher) *CashService {
	return &CashService{store: store, cashRepo: cashRepo, events: events}
}

// CashInput represents a manual cash movement
type CashInput struct {
	Direction   enum.CashDirection
	Amount      float64
	Method      enum.PaymentMethod
	Description string
	StaffID     string
}

// Record writes a manual movement such as an expense or a float top-up.
func (s *CashService) Record(ctx context.Context, input *CashInput) (*entity.CashMovement, error) {
	if input.Direction != enum.CashIn && input.Direction != enum.CashOut {
		return nil, apperror.NewInvalidInputError("Cash direction must be %q or %q, got %q", enum.CashIn, enum.CashOut, input.Direction)
	}
	if input.Amount <= 0 {
		return nil, apperror.NewInvalidInputError("Cash amount must be positive, got %.2f", input.Amount)
	}
	if input.Method == "" {
		input.Method = enum.PaymentMethodCash
	}
	if !input.Method.IsValid() {
		return nil, apperror.NewInvalidInputError("Unknown payment method %q", input.Method)
	}
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		return nil, apperror.NewInvalidInputError("Cash movement needs a description")
	}

	movement := &entity.CashMovement{
		ID:          utils.NewID(),
		Direction:   input.Direction,
		Amount:      billing.Sum(input.Amount),
		Method:      input.Method,
		Description: desc,
		StaffID:     input.StaffID,
		CreatedAt:   time.Now(),
	}
	b := docstore.NewBatch()
	s.cashRepo.StageSave(b, movement)
	if err := s.store.Commit(ctx, b); err != nil {
		return nil, storeErr("record cash movement", err)
	}

	publish(ctx, s.events, event.New(event.CashRecorded, movement.ID, movement))
	return movement, nil
}

// List returns every movement, newest first
func (s *CashService) List(ctx context.Context) ([]entity.CashMovement, error) {
	movements, err := s.cashRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read cash movements", err)
	}
	return movements, nil
}

// CashBalance is the register position over a period.
type CashBalance struct {
	In      float64 `json:"in"`
	Out     float64 `json:"out"`
	Balance float64 `json:"balance"`
}

// Balance sums the movements created in [from, to). Zero times are open ends.
func (s *CashService) Balance(ctx context.Context, from, to time.Time) (*CashBalance, error) {
	movements, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	bal := &CashBalance{}
	for _, m := range movements {
		if !from.IsZero() && m.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !m.CreatedAt.Before(to) {
			continue
		}
		if m.Direction == enum.CashOut {
			bal.Out = billing.Sum(bal.Out, m.Amount)
		} else {
			bal.In = billing.Sum(bal.In, m.Amount)
		}
		bal.Balance = billing.Sum(bal.Balance, m.Signed())
	}
	return bal, nil
}
