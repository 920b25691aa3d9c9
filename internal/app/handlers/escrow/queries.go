package escrow

import (
	"context"
	"time"

	"homelet/internal/app/dto"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/queries"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
)

const getScheduleKey = "escrow.schedule"

// GetScheduleQuery returns the contract ledger of a booking. Entry statuses
// include the read-time overdue derivation.
type GetScheduleQuery struct {
	BookingID string
}

func (q GetScheduleQuery) Key() string { return getScheduleKey }

type GetScheduleHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GetScheduleHandler) Handle(ctx context.Context, q GetScheduleQuery) (*dto.EscrowView, error) {
	unit, ctx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	contract, err := unit.Escrows().ByBooking(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	view := dto.NewEscrowView(contract, h.now())
	return &view, nil
}

func (h *GetScheduleHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[GetScheduleQuery, *dto.EscrowView] = (*GetScheduleHandler)(nil)
