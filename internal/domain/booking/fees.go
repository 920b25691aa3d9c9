package booking

import (
	"errors"

	"homelet/internal/domain/shared/money"
)

var ErrFeeTotalInvalid = errors.New("booking: fee split requires a positive total")

const (
	// Guest service fee is baked into the collected total: total = base * 1.08.
	guestFeePercent = 8
	hostFeePercent  = 3
)

// FeeBreakdown is the split of one gross payment between renter-side fee,
// landlord-side fee and landlord payout.
type FeeBreakdown struct {
	BaseRent          money.Money
	GuestServiceFee   money.Money
	HostProcessingFee money.Money
	PlatformFee       money.Money
	LandlordPayout    money.Money
}

// SplitFees converts a gross collected amount into its components. When the
// booking is escrow backed the landlord payout stays zero until explicit
// release events occur. Pure and deterministic; all rounding is half-up.
func SplitFees(total money.Money, escrowBacked bool) (FeeBreakdown, error) {
	if !total.IsPositive() {
		return FeeBreakdown{}, ErrFeeTotalInvalid
	}
	base := total.MulDivRound(100, 100+guestFeePercent)
	guestFee, err := total.Sub(base)
	if err != nil {
		return FeeBreakdown{}, err
	}
	hostFee := base.PercentRound(hostFeePercent)
	platform, err := guestFee.Add(hostFee)
	if err != nil {
		return FeeBreakdown{}, err
	}
	payout := total.Zero()
	if !escrowBacked {
		payout, err = base.Sub(hostFee)
		if err != nil {
			return FeeBreakdown{}, err
		}
	}
	return FeeBreakdown{
		BaseRent:          base,
		GuestServiceFee:   guestFee,
		HostProcessingFee: hostFee,
		PlatformFee:       platform,
		LandlordPayout:    payout,
	}, nil
}

// MonthlyHostFee levies the host processing fee on a monthly installment.
// Installments never re-levy the guest service fee.
func MonthlyHostFee(monthlyRent money.Money) money.Money {
	return monthlyRent.PercentRound(hostFeePercent)
}
