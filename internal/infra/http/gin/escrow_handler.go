package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"homelet/internal/app/commands"
	"homelet/internal/app/dto"
	escrowapp "homelet/internal/app/handlers/escrow"
	"homelet/internal/app/policies"
	"homelet/internal/app/queries"
)

type EscrowHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h EscrowHandler) ConfirmMoveIn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := escrowapp.ConfirmMoveInCommand{
		BookingID: c.Param("id"),
		Actor:     actor,
	}
	result, err := commands.Dispatch[escrowapp.ConfirmMoveInCommand, *escrowapp.ConfirmMoveInResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type payInstallmentRequest struct {
	Payment paymentRequest `json:"payment"`
}

func (h EscrowHandler) PayInstallment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	month, ok := parseMonthParam(c)
	if !ok {
		return
	}
	var req payInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := escrowapp.PayInstallmentCommand{
		BookingID:   c.Param("id"),
		Actor:       actor,
		MonthNumber: month,
		Payment: policies.PaymentConfirmation{
			OrderID:   req.Payment.OrderID,
			PaymentID: req.Payment.PaymentID,
			Signature: req.Payment.Signature,
		},
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[escrowapp.PayInstallmentCommand, *escrowapp.PayInstallmentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h EscrowHandler) Schedule(c *gin.Context) {
	query := escrowapp.GetScheduleQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[escrowapp.GetScheduleQuery, *dto.EscrowView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ EscrowHTTP = EscrowHandler{}

func parseMonthParam(c *gin.Context) (int, bool) {
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be a positive number"})
		return 0, false
	}
	return month, true
}
