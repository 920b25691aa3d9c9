package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homelet/internal/app/commands"
	"homelet/internal/app/dto"
	adminapp "homelet/internal/app/handlers/admin"
	escrowapp "homelet/internal/app/handlers/escrow"
	"homelet/internal/app/queries"
)

// AdminHandler serves the operator surface. Requests reach it only through
// the admin key middleware.
type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AdminHandler) ReleaseRent(c *gin.Context) {
	h.release(c, escrowapp.ReleaseRent)
}

func (h AdminHandler) ReleaseDepositToRenter(c *gin.Context) {
	h.release(c, escrowapp.ReleaseDepositToRenter)
}

func (h AdminHandler) ReleaseDepositToLandlord(c *gin.Context) {
	h.release(c, escrowapp.ReleaseDepositToLandlord)
}

func (h AdminHandler) DisputeDeposit(c *gin.Context) {
	h.release(c, escrowapp.DisputeDeposit)
}

func (h AdminHandler) release(c *gin.Context, action escrowapp.ReleaseAction) {
	cmd := escrowapp.ReleaseCommand{
		BookingID: c.Param("id"),
		Action:    action,
	}
	result, err := commands.Dispatch[escrowapp.ReleaseCommand, *escrowapp.ReleaseResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) MarkInstallmentTransferred(c *gin.Context) {
	month, ok := parseMonthParam(c)
	if !ok {
		return
	}
	cmd := escrowapp.MarkInstallmentTransferredCommand{
		BookingID:   c.Param("id"),
		MonthNumber: month,
	}
	result, err := commands.Dispatch[escrowapp.MarkInstallmentTransferredCommand, *escrowapp.MarkInstallmentTransferredResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) RemoveBooking(c *gin.Context) {
	cmd := adminapp.RemoveBookingCommand{BookingID: c.Param("id")}
	result, err := commands.Dispatch[adminapp.RemoveBookingCommand, *adminapp.RemoveBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Revenue(c *gin.Context) {
	result, err := queries.Ask[adminapp.RevenueQuery, *dto.RevenueView](c.Request.Context(), h.Queries, adminapp.RevenueQuery{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
