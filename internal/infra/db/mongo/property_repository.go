package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "homelet/internal/domain/property"
	"homelet/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save performs the optimistic write. The version filter makes the booking
// fence real: a save based on a stale read matches nothing and surfaces a
// retryable conflict instead of silently overwriting.
func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

type propertyDocument struct {
	ID             string         `bson:"_id"`
	Landlord       string         `bson:"landlord"`
	Title          string         `bson:"title"`
	City           string         `bson:"city"`
	MonthlyRent    moneyDocument  `bson:"monthly_rent"`
	NightlyRate    moneyDocument  `bson:"nightly_rate"`
	Rooms          []roomDocument `bson:"rooms"`
	BookingVersion int64          `bson:"booking_version"`
	CreatedAt      int64          `bson:"created_at"`
	UpdatedAt      int64          `bson:"updated_at"`
	Version        int64          `bson:"version"`
}

type roomDocument struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Count int    `bson:"count"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	doc := propertyDocument{
		ID:             string(p.ID),
		Landlord:       p.Landlord,
		Title:          p.Title,
		City:           p.City,
		MonthlyRent:    newMoneyDocument(p.MonthlyRent),
		NightlyRate:    newMoneyDocument(p.NightlyRate),
		BookingVersion: p.BookingVersion,
		CreatedAt:      p.CreatedAt.UnixMilli(),
		UpdatedAt:      p.UpdatedAt.UnixMilli(),
		Version:        p.Version,
	}
	for _, room := range p.Rooms {
		doc.Rooms = append(doc.Rooms, roomDocument{ID: room.ID, Name: room.Name, Count: room.Count})
	}
	return doc
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	agg := &domainproperty.Property{
		ID:             domainproperty.PropertyID(d.ID),
		Landlord:       d.Landlord,
		Title:          d.Title,
		City:           d.City,
		MonthlyRent:    d.MonthlyRent.toMoney(),
		NightlyRate:    d.NightlyRate.toMoney(),
		BookingVersion: d.BookingVersion,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
	for _, room := range d.Rooms {
		agg.Rooms = append(agg.Rooms, domainproperty.Room{ID: room.ID, Name: room.Name, Count: room.Count})
	}
	return agg
}
