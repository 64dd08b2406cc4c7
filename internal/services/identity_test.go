package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func stubLookup(names map[primitive.ObjectID]string) lookupFunc {
	return func(ctx context.Context, id primitive.ObjectID) (string, error) {
		if name, ok := names[id]; ok {
			return name, nil
		}
		return "", mongo.ErrNoDocuments
	}
}

func TestResolvePrefersDoctors(t *testing.T) {
	req := require.New(t)
	id := primitive.NewObjectID()

	r := &Resolver{
		findDoctor:  stubLookup(map[primitive.ObjectID]string{id: "Dr. Asha Rao"}),
		findPatient: stubLookup(map[primitive.ObjectID]string{id: "Somebody Else"}),
	}

	ident, err := r.Resolve(context.Background(), id)
	req.NoError(err)
	req.Equal("doctor", ident.Role)
	req.Equal("Dr. Asha Rao", ident.FullName)
	req.Equal("Doctor", ident.ModelName())
}

func TestResolveFallsBackToPatients(t *testing.T) {
	req := require.New(t)
	id := primitive.NewObjectID()

	r := &Resolver{
		findDoctor:  stubLookup(nil),
		findPatient: stubLookup(map[primitive.ObjectID]string{id: "Ravi Kumar"}),
	}

	ident, err := r.Resolve(context.Background(), id)
	req.NoError(err)
	req.Equal("patient", ident.Role)
	req.Equal("Ravi Kumar", ident.FullName)
}

func TestResolveNotFound(t *testing.T) {
	req := require.New(t)

	r := &Resolver{
		findDoctor:  stubLookup(nil),
		findPatient: stubLookup(nil),
	}

	_, err := r.Resolve(context.Background(), primitive.NewObjectID())
	req.ErrorIs(err, ErrIdentityNotFound)
}
