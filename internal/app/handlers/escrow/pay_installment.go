package escrow

import (
	"context"
	"time"

	"homelet/internal/app/commands"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/middleware"
	"homelet/internal/app/outbox"
	"homelet/internal/app/policies"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
)

const payInstallmentKey = "escrow.pay_installment"

// PayInstallmentCommand settles one forward schedule entry with a verified
// processor payment.
type PayInstallmentCommand struct {
	BookingID   string
	Actor       string
	MonthNumber int
	Payment     policies.PaymentConfirmation

	IdempotencyKeyV string
}

func (c PayInstallmentCommand) Key() string { return payInstallmentKey }

func (c PayInstallmentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PayInstallmentCommand) ResultPrototype() any { return &PayInstallmentResult{} }

type PayInstallmentResult struct {
	MonthNumber      int   `json:"month_number"`
	HostFee          int64 `json:"host_processing_fee"`
	PlatformFeeTotal int64 `json:"platform_fee_total"`
}

type PayInstallmentHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentVerifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *PayInstallmentHandler) Handle(ctx context.Context, cmd PayInstallmentCommand) (*PayInstallmentResult, error) {
	if cmd.Payment.OrderID == "" || cmd.Payment.PaymentID == "" || cmd.Payment.Signature == "" {
		return nil, policies.ErrPaymentMissing
	}
	if err := h.Payments.Verify(ctx, cmd.Payment); err != nil {
		return nil, err
	}

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
	hostFee, err := contract.PayInstallment(cmd.MonthNumber, cmd.Payment.PaymentID, now)
	if err != nil {
		return nil, err
	}
	if err := bkg.AccumulatePlatformFee(hostFee, now); err != nil {
		return nil, err
	}

	if err := unit.Escrows().Save(ctx, contract); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bkg); err != nil {
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
	return &PayInstallmentResult{
		MonthNumber:      cmd.MonthNumber,
		HostFee:          hostFee.Amount,
		PlatformFeeTotal: bkg.PlatformFeeTotal.Amount,
	}, nil
}

func (h *PayInstallmentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[PayInstallmentCommand, *PayInstallmentResult] = (*PayInstallmentHandler)(nil)
var _ middleware.IdempotentCommand = (*PayInstallmentCommand)(nil)
