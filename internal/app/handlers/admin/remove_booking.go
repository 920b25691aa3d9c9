package admin

import (
	"context"
	"errors"

	"homelet/internal/app/commands"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
)

const removeBookingKey = "admin.remove_booking"

// RemoveBookingCommand is the explicit administrative removal of a booking.
// Its escrow contract, being owned by the booking, goes with it.
type RemoveBookingCommand struct {
	BookingID string
}

func (c RemoveBookingCommand) Key() string { return removeBookingKey }

type RemoveBookingResult struct {
	Removed bool `json:"removed"`
}

type RemoveBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RemoveBookingHandler) Handle(ctx context.Context, cmd RemoveBookingCommand) (*RemoveBookingResult, error) {
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

	id := domainbooking.BookingID(cmd.BookingID)
	if _, err := unit.Bookings().ByID(ctx, id); err != nil {
		return nil, err
	}
	if err := unit.Escrows().Delete(ctx, id); err != nil && !errors.Is(err, domainescrow.ErrContractNotFound) {
		return nil, err
	}
	if err := unit.Bookings().Delete(ctx, id); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &RemoveBookingResult{Removed: true}, nil
}

var _ commands.Handler[RemoveBookingCommand, *RemoveBookingResult] = (*RemoveBookingHandler)(nil)
