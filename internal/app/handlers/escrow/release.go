package escrow

import (
	"context"
	"errors"
	"time"

	"homelet/internal/app/commands"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/outbox"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	"homelet/internal/domain/shared/events"
)

const (
	releaseKey         = "escrow.release"
	markTransferredKey = "escrow.mark_installment_transferred"
)

// ReleaseAction selects which escrow hold an administrative release targets.
// These actions are the only path by which a dispute verdict reaches funds.
type ReleaseAction string

const (
	ReleaseRent              ReleaseAction = "RELEASE_RENT"
	ReleaseDepositToRenter   ReleaseAction = "RELEASE_DEPOSIT_TO_RENTER"
	ReleaseDepositToLandlord ReleaseAction = "RELEASE_DEPOSIT_TO_LANDLORD"
	DisputeDeposit           ReleaseAction = "DISPUTE_DEPOSIT"
)

var ErrUnknownReleaseAction = errors.New("escrow: unknown release action")

// ReleaseCommand transitions one escrow sub-state. Each action validates the
// value is still held and fails with an already-released error otherwise,
// never a silent no-op.
type ReleaseCommand struct {
	BookingID string
	Action    ReleaseAction
}

func (c ReleaseCommand) Key() string { return releaseKey }

type ReleaseResult struct {
	DepositStatus    string `json:"deposit_status"`
	FirstMonthStatus string `json:"first_month_rent_status"`
	PayoutStatus     string `json:"payout_status"`
}

type ReleaseHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *ReleaseHandler) Handle(ctx context.Context, cmd ReleaseCommand) (*ReleaseResult, error) {
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
	contract, err := unit.Escrows().ByBooking(ctx, bkg.ID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	switch cmd.Action {
	case ReleaseRent:
		err = contract.ReleaseFirstMonth(now)
	case ReleaseDepositToRenter:
		err = contract.ReleaseDeposit(domainescrow.ToRenter, now)
	case ReleaseDepositToLandlord:
		err = contract.ReleaseDeposit(domainescrow.ToLandlord, now)
	case DisputeDeposit:
		err = contract.DisputeDeposit(now)
	default:
		err = ErrUnknownReleaseAction
	}
	if err != nil {
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
	return &ReleaseResult{
		DepositStatus:    string(contract.DepositStatus),
		FirstMonthStatus: string(contract.FirstMonthStatus),
		PayoutStatus:     string(bkg.PayoutStatus),
	}, nil
}

func (h *ReleaseHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// MarkInstallmentTransferredCommand closes one schedule entry after the
// landlord transfer completed.
type MarkInstallmentTransferredCommand struct {
	BookingID   string
	MonthNumber int
}

func (c MarkInstallmentTransferredCommand) Key() string { return markTransferredKey }

type MarkInstallmentTransferredResult struct {
	MonthNumber int    `json:"month_number"`
	Status      string `json:"status"`
}

type MarkInstallmentTransferredHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *MarkInstallmentTransferredHandler) Handle(ctx context.Context, cmd MarkInstallmentTransferredCommand) (*MarkInstallmentTransferredResult, error) {
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

	contract, err := unit.Escrows().ByBooking(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if err := contract.MarkInstallmentTransferred(cmd.MonthNumber, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Escrows().Save(ctx, contract); err != nil {
		return nil, err
	}
	pending := contract.PendingEvents()
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
	return &MarkInstallmentTransferredResult{MonthNumber: cmd.MonthNumber, Status: string(domainescrow.EntryPaid)}, nil
}

func (h *MarkInstallmentTransferredHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ReleaseCommand, *ReleaseResult] = (*ReleaseHandler)(nil)
var _ commands.Handler[MarkInstallmentTransferredCommand, *MarkInstallmentTransferredResult] = (*MarkInstallmentTransferredHandler)(nil)
