package dto

import "time"

// OccupancyView maps each covered day of a requested range to its concurrent
// reservation count for one inventory unit.
type OccupancyView struct {
	PropertyID string         `json:"property_id"`
	RoomID     string         `json:"room_id,omitempty"`
	Capacity   int            `json:"capacity"`
	Days       []OccupancyDay `json:"days"`
}

type OccupancyDay struct {
	Date      time.Time `json:"date"`
	Count     int       `json:"count"`
	Available bool      `json:"available"`
}

// RevenueView aggregates the running platform fee totals for admin reporting.
type RevenueView struct {
	Currency         string `json:"currency"`
	PlatformFeeTotal int64  `json:"platform_fee_total"`
	Bookings         int    `json:"bookings"`
}
