package booking

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
	domainescrow "homelet/internal/domain/escrow"
	domainproperty "homelet/internal/domain/property"
	domainrange "homelet/internal/domain/shared/daterange"
	"homelet/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

// CreateBookingCommand reserves inventory for a payment-confirmed request.
// Duration is months XOR nights: months > 0 wins and derives the end date.
type CreateBookingCommand struct {
	CommandID  string
	PropertyID string
	RoomID     string
	Renter     string
	Start      time.Time
	End        time.Time
	Months     int
	TotalPaid  money.Money
	Escrow     bool
	Payment    policies.PaymentConfirmation

	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

// Validate rejects obviously malformed requests before a unit of work opens.
func (c CreateBookingCommand) Validate() error {
	if c.PropertyID == "" {
		return domainproperty.ErrPropertyNotFound
	}
	if c.Renter == "" {
		return domainbooking.ErrRenterRequired
	}
	if c.TotalPaid.Amount <= 0 {
		return domainbooking.ErrTotalRequired
	}
	return nil
}

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID string `json:"booking_id"`
}

// CreateBookingHandler is the reservation transactor: availability check, fee
// split, booking persistence and optional escrow creation run inside one unit
// of work so a failure at any step leaves no partial state.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentVerifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	// Signature check happens before any state is touched.
	if cmd.Payment.OrderID == "" || cmd.Payment.PaymentID == "" || cmd.Payment.Signature == "" {
		return nil, policies.ErrPaymentMissing
	}
	if err := h.Payments.Verify(ctx, cmd.Payment); err != nil {
		return nil, err
	}

	now := h.now()
	var dr domainrange.DateRange
	var err error
	if cmd.Months > 0 {
		dr, err = domainrange.FromMonths(cmd.Start, cmd.Months)
	} else {
		dr, err = domainrange.New(cmd.Start, cmd.End)
	}
	if err != nil {
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

	prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	// The fence write is the lock: a concurrent reservation that read the same
	// version fails its save and surfaces a retryable conflict.
	prop.AdvanceBookingFence(now)
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}

	inventory, err := prop.ResolveUnit(cmd.RoomID)
	if err != nil {
		return nil, err
	}

	existing, err := unit.Bookings().ListForUnit(ctx, prop.ID, inventory.RoomID, dr)
	if err != nil {
		return nil, err
	}
	if !domainbooking.IsRangeAvailable(existing, dr, inventory.Capacity, "") {
		return nil, domainbooking.ErrFullyBooked
	}

	escrowBacked := cmd.Escrow && cmd.Months >= domainescrow.MinTermMonths
	fees, err := domainbooking.SplitFees(cmd.TotalPaid, escrowBacked)
	if err != nil {
		return nil, err
	}

	bkg, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:           domainbooking.BookingID(cmd.CommandID),
		PropertyID:   prop.ID,
		RoomID:       inventory.RoomID,
		Renter:       cmd.Renter,
		Landlord:     prop.Landlord,
		Range:        dr,
		Months:       cmd.Months,
		TotalPaid:    cmd.TotalPaid,
		Fees:         fees,
		EscrowBacked: escrowBacked,
		Payment: domainbooking.PaymentReference{
			OrderID:   cmd.Payment.OrderID,
			PaymentID: cmd.Payment.PaymentID,
		},
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	// Every fallible constructor runs before the first save so the memory
	// store, whose rollback is a no-op, never keeps a booking without its
	// contract.
	var contract *domainescrow.Contract
	if escrowBacked {
		contract, err = domainescrow.NewContract(bkg.ID, prop.MonthlyRent, cmd.Months, dr.Start, now)
		if err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, bkg); err != nil {
		return nil, err
	}
	pending := bkg.PendingEvents()
	bkg.ClearEvents()

	if contract != nil {
		if err := unit.Escrows().Save(ctx, contract); err != nil {
			return nil, err
		}
		pending = append(pending, contract.PendingEvents()...)
		contract.ClearEvents()
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CreateBookingResult{BookingID: string(bkg.ID)}, nil
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
