package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/globe-trotter/internal/domain"
)

const usersCollection = "users"

// userDocument is the stored shape of a profile. The uid is the _id.
type userDocument struct {
	UID         string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"displayName"`
	PhotoURL    string    `bson:"photoURL"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d userDocument) toDomain() domain.Profile {
	return domain.Profile{
		UID:         d.UID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// mongoUserStore is the MongoDB implementation of UserStore.
type mongoUserStore struct {
	coll *mongo.Collection
}

// NewMongoUserStore constructs a UserStore over the "users" collection of db.
func NewMongoUserStore(db *mongo.Database) UserStore {
	return &mongoUserStore{coll: db.Collection(usersCollection)}
}

// Ensure upserts with $setOnInsert, which leaves an existing document as is.
func (r *mongoUserStore) Ensure(ctx context.Context, p domain.Profile) (domain.Profile, bool, error) {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	insert := bson.M{
		"email":       p.Email,
		"displayName": p.DisplayName,
		"photoURL":    p.PhotoURL,
		"createdAt":   created,
		"updatedAt":   created,
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.UID}, bson.M{"$setOnInsert": insert},
		options.Update().SetUpsert(true))
	if err != nil {
		return domain.Profile{}, false, storeErr("repo.MongoUserStore.Ensure", err)
	}

	stored, err := r.Get(ctx, p.UID)
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("repo.MongoUserStore.Ensure: %w", err)
	}
	return stored, res.UpsertedCount == 1, nil
}

func (r *mongoUserStore) Get(ctx context.Context, uid string) (domain.Profile, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc); err != nil {
		return domain.Profile{}, storeErr("repo.MongoUserStore.Get", mapMongoErr(err))
	}
	return doc.toDomain(), nil
}

func (r *mongoUserStore) Update(ctx context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.DisplayName != nil {
		set["displayName"] = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		set["photoURL"] = *patch.PhotoURL
	}

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return domain.Profile{}, storeErr("repo.MongoUserStore.Update", mapMongoErr(err))
	}
	return doc.toDomain(), nil
}
