package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/globe-trotter/internal/domain"
)

const tripsCollection = "trips"

// tripDocument is the stored shape of a trip in MongoDB.
type tripDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"ownerId"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	Destination   string             `bson:"destination"`
	StartDate     time.Time          `bson:"startDate"`
	EndDate       time.Time          `bson:"endDate"`
	Budget        int64              `bson:"budget"`
	Spent         int64              `bson:"spent"`
	CoverImage    string             `bson:"coverImage"`
	IsPublic      bool               `bson:"isPublic"`
	Stops         []stopDocument     `bson:"stops"`
	Collaborators []string           `bson:"collaborators"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// stopDocument is the stored shape of a stop inside a trip document.
type stopDocument struct {
	ID          string             `bson:"id"`
	City        string             `bson:"city"`
	Description string             `bson:"description"`
	DateRange   string             `bson:"dateRange"`
	StartDate   string             `bson:"startDate"`
	EndDate     string             `bson:"endDate"`
	Budget      int64              `bson:"budget"`
	Image       string             `bson:"image"`
	Activities  []activityDocument `bson:"activities"`
}

// activityDocument is the stored shape of an activity inside a stop.
type activityDocument struct {
	ID          string `bson:"id"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Cost        int64  `bson:"cost"`
	StartTime   string `bson:"startTime"`
	Duration    string `bson:"duration"`
	Category    string `bson:"category"`
}

func toStopDocument(s domain.Stop) stopDocument {
	acts := make([]activityDocument, 0, len(s.Activities))
	for _, a := range s.Activities {
		acts = append(acts, activityDocument{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Cost:        a.Cost,
			StartTime:   a.StartTime,
			Duration:    a.Duration,
			Category:    string(a.Category),
		})
	}
	return stopDocument{
		ID:          s.ID,
		City:        s.City,
		Description: s.Description,
		DateRange:   s.DateRange,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		Budget:      s.Budget,
		Image:       s.Image,
		Activities:  acts,
	}
}

func toStopDocuments(stops []domain.Stop) []stopDocument {
	out := make([]stopDocument, 0, len(stops))
	for _, s := range stops {
		out = append(out, toStopDocument(s))
	}
	return out
}

func (d stopDocument) toDomain() domain.Stop {
	acts := make([]domain.Activity, 0, len(d.Activities))
	for _, a := range d.Activities {
		acts = append(acts, domain.Activity{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Cost:        a.Cost,
			StartTime:   a.StartTime,
			Duration:    a.Duration,
			Category:    domain.Category(a.Category),
		})
	}
	return domain.Stop{
		ID:          d.ID,
		City:        d.City,
		Description: d.Description,
		DateRange:   d.DateRange,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Budget:      d.Budget,
		Image:       d.Image,
		Activities:  acts,
	}
}

func toTripDocument(t domain.Trip) tripDocument {
	collaborators := t.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	return tripDocument{
		OwnerID:       t.OwnerID,
		Title:         t.Title,
		Description:   t.Description,
		Destination:   t.Destination,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Budget:        t.Budget,
		Spent:         t.Spent,
		CoverImage:    t.CoverImage,
		IsPublic:      t.IsPublic,
		Stops:         toStopDocuments(t.Stops),
		Collaborators: collaborators,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (d tripDocument) toDomain() domain.Trip {
	stops := make([]domain.Stop, 0, len(d.Stops))
	for _, s := range d.Stops {
		stops = append(stops, s.toDomain())
	}
	t := domain.Trip{
		ID:            d.ID.Hex(),
		OwnerID:       d.OwnerID,
		Title:         d.Title,
		Description:   d.Description,
		Destination:   d.Destination,
		StartDate:     d.StartDate.UTC(),
		EndDate:       d.EndDate.UTC(),
		Budget:        d.Budget,
		Spent:         d.Spent,
		CoverImage:    d.CoverImage,
		IsPublic:      d.IsPublic,
		Stops:         stops,
		Collaborators: d.Collaborators,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	normalizeTrip(&t)
	return t
}

// mongoTripStore is the MongoDB implementation of TripStore.
// Ids are ObjectID hex strings.
type mongoTripStore struct {
	coll *mongo.Collection
}

// NewMongoTripStore constructs a TripStore over the "trips" collection of db.
func NewMongoTripStore(db *mongo.Database) TripStore {
	return &mongoTripStore{coll: db.Collection(tripsCollection)}
}

// EnsureMongoIndexes creates the index that backs ListByUser.
// It is safe to call on every startup.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(tripsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collaborators", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("repo.EnsureMongoIndexes: %w", err)
	}
	return nil
}

func (r *mongoTripStore) Create(ctx context.Context, trip domain.Trip) (string, error) {
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	trip.UpdatedAt = trip.CreatedAt

	res, err := r.coll.InsertOne(ctx, toTripDocument(trip))
	if err != nil {
		return "", storeErr("repo.MongoTripStore.Create", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", storeErr("repo.MongoTripStore.Create", fmt.Errorf("unexpected id type %T", res.InsertedID))
	}
	return oid.Hex(), nil
}

func (r *mongoTripStore) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.MongoTripStore.GetByID: %w", domain.ErrNotFound)
	}

	var doc tripDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		return domain.Trip{}, storeErr("repo.MongoTripStore.GetByID", mapMongoErr(err))
	}
	return doc.toDomain(), nil
}

func (r *mongoTripStore) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"collaborators": userID}, opts)
	if err != nil {
		return nil, storeErr("repo.MongoTripStore.ListByUser", err)
	}
	defer cursor.Close(ctx)

	var docs []tripDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr("repo.MongoTripStore.ListByUser: decode", err)
	}

	trips := make([]domain.Trip, 0, len(docs))
	for _, d := range docs {
		trips = append(trips, d.toDomain())
	}
	return trips, nil
}

func (r *mongoTripStore) Update(ctx context.Context, id string, patch domain.TripPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("repo.MongoTripStore.Update: %w", domain.ErrNotFound)
	}

	set := patchToSet(patch)
	set["updatedAt"] = time.Now().UTC()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return storeErr("repo.MongoTripStore.Update", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("repo.MongoTripStore.Update: %w", domain.ErrNotFound)
	}
	return nil
}

// AddStop uses $push, which appends atomically on the server.
func (r *mongoTripStore) AddStop(ctx context.Context, id string, stop domain.Stop) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("repo.MongoTripStore.AddStop: %w", domain.ErrNotFound)
	}
	update := bson.M{
		"$push": bson.M{"stops": toStopDocument(stop)},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return storeErr("repo.MongoTripStore.AddStop", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("repo.MongoTripStore.AddStop: %w", domain.ErrNotFound)
	}
	return nil
}

// patchToSet converts the non-nil patch fields into a $set document.
func patchToSet(p domain.TripPatch) bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Destination != nil {
		set["destination"] = *p.Destination
	}
	if p.StartDate != nil {
		set["startDate"] = *p.StartDate
	}
	if p.EndDate != nil {
		set["endDate"] = *p.EndDate
	}
	if p.Budget != nil {
		set["budget"] = *p.Budget
	}
	if p.Spent != nil {
		set["spent"] = *p.Spent
	}
	if p.CoverImage != nil {
		set["coverImage"] = *p.CoverImage
	}
	if p.IsPublic != nil {
		set["isPublic"] = *p.IsPublic
	}
	if p.Stops != nil {
		set["stops"] = toStopDocuments(*p.Stops)
	}
	return set
}

func mapMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}
