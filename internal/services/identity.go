package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medibridge/medibridge-backend/internal/database"
	"github.com/medibridge/medibridge-backend/internal/models"
)

// ErrIdentityNotFound is returned when an id exists in neither the
// doctors nor the patients collection.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the resolved profile projection of a message party.
type Identity struct {
	ID       primitive.ObjectID
	FullName string
	Role     string // "doctor" or "patient"
}

// ModelName returns the collection tag stored on messages ("Doctor"/"Patient").
func (i *Identity) ModelName() string {
	if i.Role == "doctor" {
		return models.RoleDoctor
	}
	return models.RolePatient
}

// IdentityResolver determines which account collection an id belongs to.
type IdentityResolver interface {
	Resolve(ctx context.Context, id primitive.ObjectID) (*Identity, error)
}

type lookupFunc func(ctx context.Context, id primitive.ObjectID) (string, error)

// Resolver probes the doctors collection first, then patients. First
// match wins, so the doctor result is authoritative if an id ever
// appeared in both.
type Resolver struct {
	findDoctor  lookupFunc
	findPatient lookupFunc
}

// NewResolver builds a Resolver backed by the shared MongoDB database.
func NewResolver(db *mongo.Database) *Resolver {
	return &Resolver{
		findDoctor:  collectionLookup(db.Collection(database.CollDoctors)),
		findPatient: collectionLookup(db.Collection(database.CollPatients)),
	}
}

func collectionLookup(col *mongo.Collection) lookupFunc {
	return func(ctx context.Context, id primitive.ObjectID) (string, error) {
		var doc struct {
			FullName string `bson:"fullName"`
		}
		opts := options.FindOne().SetProjection(bson.M{"fullName": 1})
		err := col.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
		if err != nil {
			return "", err
		}
		return doc.FullName, nil
	}
}

func (r *Resolver) Resolve(ctx context.Context, id primitive.ObjectID) (*Identity, error) {
	name, err := r.findDoctor(ctx, id)
	if err == nil {
		return &Identity{ID: id, FullName: name, Role: "doctor"}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	name, err = r.findPatient(ctx, id)
	if err == nil {
		return &Identity{ID: id, FullName: name, Role: "patient"}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return nil, ErrIdentityNotFound
}
