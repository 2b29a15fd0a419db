package service

import (
	"context"
	"time"

	"github.com/sangkips/mesa-api/internal/application/billing"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/pagination"
)

// HistoryService reads and prunes the archive of closed bills
type HistoryService struct {
	historyRepo repository.HistoryRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(historyRepo repository.HistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

// HistoryFilter narrows the archive to a closing period. Zero times are open ends.
type HistoryFilter struct {
	From time.Time
	To   time.Time
}

func (f HistoryFilter) match(e *entity.HistoryEntry) bool {
	if !f.From.IsZero() && e.ClosedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.ClosedAt.Before(f.To) {
		return false
	}
	return true
}

func (s *HistoryService) entries(ctx context.Context, filter HistoryFilter) ([]entity.HistoryEntry, error) {
	all, err := s.historyRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read bill history", err)
	}
	out := make([]entity.HistoryEntry, 0, len(all))
	for i := range all {
		if filter.match(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// List returns closed bills, newest first
func (s *HistoryService) List(ctx context.Context, filter HistoryFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.HistoryEntry], error) {
	entries, err := s.entries(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(entries, params), nil
}

// Get returns one closed bill
func (s *HistoryService) Get(ctx context.Context, id string) (*entity.HistoryEntry, error) {
	entry, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("read bill "+id, err)
	}
	if entry == nil {
		return nil, apperror.NewNotFoundError("Bill " + id)
	}
	return entry, nil
}

// Delete removes one closed bill
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.historyRepo.Delete(ctx, id); err != nil {
		return storeErr("delete bill "+id, err)
	}
	return nil
}

// HistoryReport sums the bills of a period.
type HistoryReport struct {
	Bills    int                            `json:"bills"`
	Subtotal float64                        `json:"subtotal"`
	Discount float64                        `json:"discount"`
	Total    float64                        `json:"total"`
	ByMethod map[enum.PaymentMethod]float64 `json:"by_method"`
}

// Report totals the closed bills matching filter. Payments are split by
// method using each bill's payment history.
func (s *HistoryService) Report(ctx context.Context, filter HistoryFilter) (*HistoryReport, error) {
	entries, err := s.entries(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &HistoryReport{Bills: len(entries), ByMethod: make(map[enum.PaymentMethod]float64)}
	for _, e := range entries {
		report.Subtotal = billing.Sum(report.Subtotal, e.Subtotal)
		report.Discount = billing.Sum(report.Discount, e.Discount)
		report.Total = billing.Sum(report.Total, e.Total)
		for _, p := range e.PaymentHistory {
			report.ByMethod[p.Method] = billing.Sum(report.ByMethod[p.Method], p.Amount)
		}
	}
	return report, nil
}
