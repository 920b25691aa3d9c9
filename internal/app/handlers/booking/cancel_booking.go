package booking

import (
	"context"
	"time"

	"homelet/internal/app/commands"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/outbox"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

// CancelBookingCommand cancels a reservation on behalf of its renter or
// landlord and records refund intent.
type CancelBookingCommand struct {
	BookingID string
	Actor     string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	RefundAmount int64  `json:"refund_amount"`
	RefundStatus string `json:"refund_status"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	managed := cleanup != nil
	committed := false
	if managed {
		defer func() {
			if !committed {
				cleanup()
			}
		}()
	}
	ctx = execCtx

	bkg, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	actor, err := bkg.AuthorizeActor(cmd.Actor)
	if err != nil {
		return nil, err
	}
	refund, err := bkg.Cancel(actor, cmd.Reason, h.now())
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bkg); err != nil {
		return nil, err
	}
	pending := bkg.PendingEvents()
	bkg.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CancelBookingResult{
		RefundAmount: refund.Amount.Amount,
		RefundStatus: string(refund.Status),
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
