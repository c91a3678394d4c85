// Package storage defines the contracts between the HTTP layer and the
// document store.
//
// Handlers never reach into process-wide state. They receive a Provider
// at construction time and ask it for the students Collection on every
// request; the data-access functions in storage/mongodb then take that
// Collection as an explicit parameter.
//
// Collection is the subset of *mongo.Collection the application uses, so
// tests can substitute an in-memory implementation (see mongodb/mongotest).
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sentinel errors returned (wrapped) by the data-access layer.
// The HTTP layer translates them into status codes with errors.Is.
var (
	// ErrInvalidID means the identifier is not a well-formed store id.
	// No query is issued when this is returned.
	ErrInvalidID = errors.New("invalid student id")

	// ErrNotFound means the identifier was well-formed but matched nothing.
	ErrNotFound = errors.New("student not found")

	// ErrInsertNotFound means the store acknowledged an insert without
	// reporting a usable identifier. It is an internal error.
	ErrInsertNotFound = errors.New("student not found after insert")
)

// Collection is one document collection. *mongo.Collection satisfies it.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Provider hands out the collection reference for each request.
type Provider interface {
	Students() Collection
}
