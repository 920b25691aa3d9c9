package booking

import (
	"context"
	"time"

	"homelet/internal/app/dto"
	"homelet/internal/app/handlers/support"
	"homelet/internal/app/queries"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainproperty "homelet/internal/domain/property"
	domainrange "homelet/internal/domain/shared/daterange"
)

const getOccupancyKey = "booking.occupancy"

// GetOccupancyQuery exposes the derived day-by-day reservation counts of an
// inventory unit over a range.
type GetOccupancyQuery struct {
	PropertyID string
	RoomID     string
	Range      domainrange.DateRange
}

func (q GetOccupancyQuery) Key() string { return getOccupancyKey }

type GetOccupancyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetOccupancyHandler) Handle(ctx context.Context, q GetOccupancyQuery) (*dto.OccupancyView, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	unit, ctx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return nil, err
	}
	inventory, err := prop.ResolveUnit(q.RoomID)
	if err != nil {
		return nil, err
	}
	bookings, err := unit.Bookings().ListForUnit(ctx, prop.ID, inventory.RoomID, q.Range)
	if err != nil {
		return nil, err
	}

	counts := domainbooking.ComputeOccupancy(bookings, q.Range, "")
	view := &dto.OccupancyView{
		PropertyID: string(prop.ID),
		RoomID:     inventory.RoomID,
		Capacity:   inventory.Capacity,
	}
	q.Range.EachDay(func(day time.Time) {
		count := counts[day]
		view.Days = append(view.Days, dto.OccupancyDay{
			Date:      day,
			Count:     count,
			Available: count < inventory.Capacity,
		})
	})
	return view, nil
}

var _ queries.Handler[GetOccupancyQuery, *dto.OccupancyView] = (*GetOccupancyHandler)(nil)
