package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	escrowapp "homelet/internal/app/handlers/escrow"
	"homelet/internal/app/policies"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	domainproperty "homelet/internal/domain/property"
	domainrange "homelet/internal/domain/shared/daterange"
	mongostore "homelet/internal/infra/db/mongo"
	memorystore "homelet/internal/infra/storage/memory"
)

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainproperty.ErrPropertyNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainescrow.ErrContractNotFound),
		errors.Is(err, domainescrow.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrActorNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, domainbooking.ErrFullyBooked),
		errors.Is(err, domainbooking.ErrAlreadyCancelled),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainescrow.ErrAlreadyReleased),
		errors.Is(err, domainescrow.ErrMoveInAlreadyConfirmed),
		errors.Is(err, domainescrow.ErrDepositNotHeld),
		errors.Is(err, domainescrow.ErrEntryAlreadyPaid),
		errors.Is(err, domainescrow.ErrEntryNotAwaitingPayout),
		errors.Is(err, mongostore.ErrConcurrentUpdate),
		errors.Is(err, memorystore.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainproperty.ErrRoomRequired),
		errors.Is(err, domainproperty.ErrRoomInvalid),
		errors.Is(err, domainescrow.ErrTermTooShort),
		errors.Is(err, domainbooking.ErrFeeTotalInvalid),
		errors.Is(err, domainbooking.ErrTotalRequired),
		errors.Is(err, domainbooking.ErrRenterRequired),
		errors.Is(err, policies.ErrPaymentMissing),
		errors.Is(err, policies.ErrBadSignature),
		errors.Is(err, escrowapp.ErrUnknownReleaseAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
