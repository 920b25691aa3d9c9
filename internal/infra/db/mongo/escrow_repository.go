package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
)

type EscrowRepository struct {
	col *mongo.Collection
}

func NewEscrowRepository(db *mongo.Database) *EscrowRepository {
	return &EscrowRepository{col: db.Collection("agg_escrow")}
}

func (r *EscrowRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) (*domainescrow.Contract, error) {
	var doc escrowDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainescrow.ErrContractNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *EscrowRepository) Save(ctx context.Context, c *domainescrow.Contract) error {
	doc := newEscrowDocument(c)
	filter := bson.M{"_id": doc.ID, "version": c.Version}
	doc.Version = c.Version + 1
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
	c.Version = doc.Version
	return nil
}

func (r *EscrowRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainescrow.ErrContractNotFound
	}
	return nil
}

type escrowDocument struct {
	ID             string        `bson:"_id"`
	MonthlyRent    moneyDocument `bson:"monthly_rent"`
	DepositAmount  moneyDocument `bson:"deposit_amount"`
	FirstMonthRent moneyDocument `bson:"first_month_rent"`

	DepositStatus    string `bson:"deposit_status"`
	FirstMonthStatus string `bson:"first_month_rent_status"`
	MoveInConfirmed  bool   `bson:"move_in_confirmed"`
	MoveInAt         int64  `bson:"move_in_at,omitempty"`

	Schedule []scheduleEntryDocument `bson:"payment_schedule"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
	Version   int64 `bson:"version"`
}

type scheduleEntryDocument struct {
	MonthNumber int           `bson:"month_number"`
	DueDate     int64         `bson:"due_date"`
	Amount      moneyDocument `bson:"amount"`
	Status      string        `bson:"status"`
	HostFee     moneyDocument `bson:"host_fee"`
	PaymentID   string        `bson:"payment_id,omitempty"`
	PaidDate    int64         `bson:"paid_date,omitempty"`
}

func newEscrowDocument(c *domainescrow.Contract) escrowDocument {
	doc := escrowDocument{
		ID:               string(c.BookingID),
		MonthlyRent:      newMoneyDocument(c.MonthlyRent),
		DepositAmount:    newMoneyDocument(c.DepositAmount),
		FirstMonthRent:   newMoneyDocument(c.FirstMonthRent),
		DepositStatus:    string(c.DepositStatus),
		FirstMonthStatus: string(c.FirstMonthStatus),
		MoveInConfirmed:  c.MoveInConfirmed,
		CreatedAt:        c.CreatedAt.UnixMilli(),
		UpdatedAt:        c.UpdatedAt.UnixMilli(),
		Version:          c.Version,
	}
	if c.MoveInConfirmed {
		doc.MoveInAt = c.MoveInAt.UnixMilli()
	}
	for _, entry := range c.Schedule {
		item := scheduleEntryDocument{
			MonthNumber: entry.MonthNumber,
			DueDate:     entry.DueDate.UnixMilli(),
			Amount:      newMoneyDocument(entry.Amount),
			Status:      string(entry.Status),
			HostFee:     newMoneyDocument(entry.HostFee),
			PaymentID:   entry.PaymentID,
		}
		if !entry.PaidDate.IsZero() {
			item.PaidDate = entry.PaidDate.UnixMilli()
		}
		doc.Schedule = append(doc.Schedule, item)
	}
	return doc
}

func (d escrowDocument) toAggregate() *domainescrow.Contract {
	agg := &domainescrow.Contract{
		BookingID:        domainbooking.BookingID(d.ID),
		MonthlyRent:      d.MonthlyRent.toMoney(),
		DepositAmount:    d.DepositAmount.toMoney(),
		FirstMonthRent:   d.FirstMonthRent.toMoney(),
		DepositStatus:    domainescrow.HoldStatus(d.DepositStatus),
		FirstMonthStatus: domainescrow.HoldStatus(d.FirstMonthStatus),
		MoveInConfirmed:  d.MoveInConfirmed,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
	if d.MoveInConfirmed {
		agg.MoveInAt = timestampToTime(d.MoveInAt)
	}
	for _, item := range d.Schedule {
		entry := domainescrow.ScheduleEntry{
			MonthNumber: item.MonthNumber,
			DueDate:     timestampToTime(item.DueDate),
			Amount:      item.Amount.toMoney(),
			Status:      domainescrow.EntryStatus(item.Status),
			HostFee:     item.HostFee.toMoney(),
			PaymentID:   item.PaymentID,
		}
		if item.PaidDate != 0 {
			entry.PaidDate = timestampToTime(item.PaidDate)
		}
		agg.Schedule = append(agg.Schedule, entry)
	}
	return agg
}
