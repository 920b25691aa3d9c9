package escrow

import (
	"context"
	"time"

	"homelet/internal/app/commands"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/outbox"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	"homelet/internal/domain/shared/events"
)

const confirmMoveInKey = "escrow.confirm_move_in"

// ConfirmMoveInCommand is the renter's explicit check-in confirmation. Only
// the booking's renter may issue it; it releases the first month rent.
type ConfirmMoveInCommand struct {
	BookingID string
	Actor     string
}

func (c ConfirmMoveInCommand) Key() string { return confirmMoveInKey }

type ConfirmMoveInResult struct {
	PayoutStatus string `json:"payout_status"`
}

type ConfirmMoveInHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *ConfirmMoveInHandler) Handle(ctx context.Context, cmd ConfirmMoveInCommand) (*ConfirmMoveInResult, error) {
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
	if actor != domainbooking.ActorRenter {
		return nil, domainbooking.ErrActorNotAllowed
	}

	contract, err := unit.Escrows().ByBooking(ctx, bkg.ID)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := contract.ConfirmMoveIn(now); err != nil {
		return nil, err
	}

	var pending []events.DomainEvent
	if contract.Settled() && bkg.PayoutStatus != domainbooking.PayoutPaid {
		if err := bkg.MarkPayoutPaid(now); err != nil {
			return nil, err
		}
		if err := unit.Bookings().Save(ctx, bkg); err != nil {
			return nil, err
		}
		pending = append(pending, bkg.PendingEvents()...)
		bkg.ClearEvents()
	}
	if err := unit.Escrows().Save(ctx, contract); err != nil {
		return nil, err
	}
	pending = append(pending, contract.PendingEvents()...)
	contract.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &ConfirmMoveInResult{PayoutStatus: string(bkg.PayoutStatus)}, nil
}

func (h *ConfirmMoveInHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ConfirmMoveInCommand, *ConfirmMoveInResult] = (*ConfirmMoveInHandler)(nil)
