package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homelet/internal/domain/booking"
	domainproperty "homelet/internal/domain/property"
	domainrange "homelet/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{
		{Key: "property_id", Value: 1},
		{Key: "room_id", Value: 1},
		{Key: "range.start", Value: 1},
	}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renter string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"renter": renter}, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

func (r *BookingRepository) ListForUnit(ctx context.Context, propertyID domainproperty.PropertyID, roomID string, dr domainrange.DateRange) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"room_id":     roomID,
		"status":      bson.M{"$in": []string{string(domainbooking.StatusConfirmed), string(domainbooking.StatusActive)}},
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func decodeBookings(ctx context.Context, cursor *mongo.Cursor) ([]*domainbooking.Booking, error) {
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID         string        `bson:"_id"`
	PropertyID string        `bson:"property_id"`
	RoomID     string        `bson:"room_id"`
	Renter     string        `bson:"renter"`
	Landlord   string        `bson:"landlord"`
	Range      rangeDocument `bson:"range"`
	Months     int           `bson:"months"`

	TotalPaid        moneyDocument `bson:"total_paid"`
	Fees             feesDocument  `bson:"fees"`
	PlatformFeeTotal moneyDocument `bson:"platform_fee_total"`

	Status        string                `bson:"status"`
	PaymentStatus string                `bson:"payment_status"`
	PayoutStatus  string                `bson:"payout_status"`
	EscrowBacked  bool                  `bson:"escrow_backed"`
	OrderID       string                `bson:"order_id"`
	PaymentID     string                `bson:"payment_id"`
	Cancellation  *cancellationDocument `bson:"cancellation,omitempty"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
	Version   int64 `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type feesDocument struct {
	BaseRent          moneyDocument `bson:"base_rent"`
	GuestServiceFee   moneyDocument `bson:"guest_service_fee"`
	HostProcessingFee moneyDocument `bson:"host_processing_fee"`
	PlatformFee       moneyDocument `bson:"platform_fee"`
	LandlordPayout    moneyDocument `bson:"landlord_payout"`
}

type cancellationDocument struct {
	Actor        string        `bson:"actor"`
	Reason       string        `bson:"reason"`
	RefundAmount moneyDocument `bson:"refund_amount"`
	RefundStatus string        `bson:"refund_status"`
	At           int64         `bson:"at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		RoomID:     b.RoomID,
		Renter:     b.Renter,
		Landlord:   b.Landlord,
		Range:      rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		Months:     b.Months,

		TotalPaid:        newMoneyDocument(b.TotalPaid),
		PlatformFeeTotal: newMoneyDocument(b.PlatformFeeTotal),
		Fees: feesDocument{
			BaseRent:          newMoneyDocument(b.Fees.BaseRent),
			GuestServiceFee:   newMoneyDocument(b.Fees.GuestServiceFee),
			HostProcessingFee: newMoneyDocument(b.Fees.HostProcessingFee),
			PlatformFee:       newMoneyDocument(b.Fees.PlatformFee),
			LandlordPayout:    newMoneyDocument(b.Fees.LandlordPayout),
		},

		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		PayoutStatus:  string(b.PayoutStatus),
		EscrowBacked:  b.EscrowBacked,
		OrderID:       b.Payment.OrderID,
		PaymentID:     b.Payment.PaymentID,

		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
	if b.Cancellation != nil {
		doc.Cancellation = &cancellationDocument{
			Actor:        string(b.Cancellation.Actor),
			Reason:       b.Cancellation.Reason,
			RefundAmount: newMoneyDocument(b.Cancellation.RefundAmount),
			RefundStatus: string(b.Cancellation.RefundStatus),
			At:           b.Cancellation.At.UnixMilli(),
		}
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	agg := &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		RoomID:     d.RoomID,
		Renter:     d.Renter,
		Landlord:   d.Landlord,
		Range:      domainrange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Months:     d.Months,

		TotalPaid:        d.TotalPaid.toMoney(),
		PlatformFeeTotal: d.PlatformFeeTotal.toMoney(),
		Fees: domainbooking.FeeBreakdown{
			BaseRent:          d.Fees.BaseRent.toMoney(),
			GuestServiceFee:   d.Fees.GuestServiceFee.toMoney(),
			HostProcessingFee: d.Fees.HostProcessingFee.toMoney(),
			PlatformFee:       d.Fees.PlatformFee.toMoney(),
			LandlordPayout:    d.Fees.LandlordPayout.toMoney(),
		},

		Status:        domainbooking.Status(d.Status),
		PaymentStatus: domainbooking.PaymentStatus(d.PaymentStatus),
		PayoutStatus:  domainbooking.PayoutStatus(d.PayoutStatus),
		EscrowBacked:  d.EscrowBacked,
		Payment:       domainbooking.PaymentReference{OrderID: d.OrderID, PaymentID: d.PaymentID},

		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.Cancellation != nil {
		agg.Cancellation = &domainbooking.Cancellation{
			Actor:        domainbooking.Actor(d.Cancellation.Actor),
			Reason:       d.Cancellation.Reason,
			RefundAmount: d.Cancellation.RefundAmount.toMoney(),
			RefundStatus: domainbooking.RefundStatus(d.Cancellation.RefundStatus),
			At:           timestampToTime(d.Cancellation.At),
		}
	}
	return agg
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
