package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homelet/internal/app/commands"
	"homelet/internal/app/dto"
	bookingapp "homelet/internal/app/handlers/booking"
	"homelet/internal/app/policies"
	"homelet/internal/app/queries"
	domainrange "homelet/internal/domain/shared/daterange"
	"homelet/internal/domain/shared/money"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
}

type paymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type createBookingRequest struct {
	PropertyID string         `json:"property_id"`
	RoomID     string         `json:"room_id"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Months     int            `json:"months"`
	TotalPaid  int64          `json:"total_paid"`
	Currency   string         `json:"currency"`
	Escrow     bool           `json:"escrow"`
	Payment    paymentRequest `json:"payment"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, ok := parseFlexibleTime(req.StartDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date is required"})
		return
	}
	end, _ := parseFlexibleTime(req.EndDate)
	currency := req.Currency
	if currency == "" {
		currency = h.Currency
	}
	total, err := money.New(req.TotalPaid, currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:  uuid.NewString(),
		PropertyID: req.PropertyID,
		RoomID:     req.RoomID,
		Renter:     actor,
		Start:      start,
		End:        end,
		Months:     req.Months,
		TotalPaid:  total,
		Escrow:     req.Escrow,
		Payment: policies.PaymentConfirmation{
			OrderID:   req.Payment.OrderID,
			PaymentID: req.Payment.PaymentID,
			Signature: req.Payment.Signature,
		},
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.BookingView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.ListRenterBookingsQuery{Renter: actor}
	result, err := queries.Ask[bookingapp.ListRenterBookingsQuery, []dto.BookingView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		Actor:     actor,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Occupancy(c *gin.Context) {
	from, to := resolveWindow(c.Query("from"), c.Query("to"))
	dr, err := domainrange.New(from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	query := bookingapp.GetOccupancyQuery{
		PropertyID: c.Param("id"),
		RoomID:     c.Query("room_id"),
		Range:      dr,
	}
	result, err := queries.Ask[bookingapp.GetOccupancyQuery, *dto.OccupancyView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}

func resolveWindow(fromRaw, toRaw string) (time.Time, time.Time) {
	now := time.Now().UTC()
	from, ok := parseFlexibleTime(fromRaw)
	if !ok {
		from = now
	}
	from = domainrange.Day(from)
	to, ok := parseFlexibleTime(toRaw)
	if !ok {
		to = from.AddDate(0, 0, 45)
	}
	to = domainrange.Day(to)
	if !to.After(from) {
		to = from.AddDate(0, 0, 45)
	}
	return from, to
}

func parseFlexibleTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
