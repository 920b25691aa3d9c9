package admin

import (
	"context"

	"homelet/internal/app/dto"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/queries"
	"homelet/internal/app/uow"
)

const revenueKey = "admin.revenue"

// RevenueQuery sums the running platform fee totals across bookings for
// revenue reporting.
type RevenueQuery struct{}

func (q RevenueQuery) Key() string { return revenueKey }

type RevenueHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RevenueHandler) Handle(ctx context.Context, q RevenueQuery) (*dto.RevenueView, error) {
	unit, ctx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	view := &dto.RevenueView{}
	for _, b := range bookings {
		view.Currency = b.PlatformFeeTotal.Currency
		view.PlatformFeeTotal += b.PlatformFeeTotal.Amount
		view.Bookings++
	}
	return view, nil
}

var _ queries.Handler[RevenueQuery, *dto.RevenueView] = (*RevenueHandler)(nil)
