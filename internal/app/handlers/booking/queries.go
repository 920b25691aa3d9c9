package booking

import (
	"context"
	"errors"
	"time"

	"homelet/internal/app/dto"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/queries"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
)

const (
	getBookingKey         = "booking.get"
	listRenterBookingsKey = "booking.list_by_renter"
)

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*dto.BookingView, error) {
	unit, ctx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bkg, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	view := dto.NewBookingView(bkg)
	if bkg.EscrowBacked {
		contract, err := unit.Escrows().ByBooking(ctx, bkg.ID)
		switch {
		case err == nil:
			escrowView := dto.NewEscrowView(contract, h.now())
			view.Escrow = &escrowView
		case errors.Is(err, domainescrow.ErrContractNotFound):
		default:
			return nil, err
		}
	}
	return &view, nil
}

func (h *GetBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

type ListRenterBookingsQuery struct {
	Renter string
}

func (q ListRenterBookingsQuery) Key() string { return listRenterBookingsKey }

type ListRenterBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRenterBookingsHandler) Handle(ctx context.Context, q ListRenterBookingsQuery) ([]dto.BookingView, error) {
	unit, ctx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListByRenter(ctx, q.Renter)
	if err != nil {
		return nil, err
	}
	views := make([]dto.BookingView, 0, len(items))
	for _, b := range items {
		views = append(views, dto.NewBookingView(b))
	}
	return views, nil
}

var _ queries.Handler[GetBookingQuery, *dto.BookingView] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListRenterBookingsQuery, []dto.BookingView] = (*ListRenterBookingsHandler)(nil)
