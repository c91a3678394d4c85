// Package mongotest provides an in-memory storage.Collection for tests.
//
// It understands just enough of the query language for this service:
// an empty filter or an {"_id": ...} filter, and {"$set": {...}} updates.
// Results are built with the driver's own mongo.NewCursorFromDocuments and
// mongo.NewSingleResultFromDocument, so decoding goes through real bson.
package mongotest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection keeps documents in insertion order.
type Collection struct {
	mu    sync.Mutex
	docs  []bson.M
	calls int

	// Err, when set, is returned by every operation instead of touching
	// the documents.
	Err error
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{}
}

var _ storage.Collection = (*Collection)(nil)

// Calls reports how many store operations have been issued.
func (c *Collection) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Len reports how many documents are stored.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *Collection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.Err != nil {
		return nil, c.Err
	}

	doc, err := toM(document)
	if err != nil {
		return nil, err
	}

	if id, ok := doc["_id"]; !ok || id == primitive.NilObjectID {
		doc["_id"] = primitive.NewObjectID()
	}

	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (c *Collection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.Err != nil {
		return nil, c.Err
	}

	match, err := matcher(filter)
	if err != nil {
		return nil, err
	}

	docs := make([]interface{}, 0, len(c.docs))
	for _, doc := range c.docs {
		if match(doc) {
			docs = append(docs, doc)
		}
	}

	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (c *Collection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.Err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.Err, nil)
	}

	i, err := c.indexOf(filter)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}

	return mongo.NewSingleResultFromDocument(c.docs[i], nil, nil)
}

func (c *Collection) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.Err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.Err, nil)
	}

	i, err := c.indexOf(filter)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}

	u, err := toM(update)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}

	before := copyM(c.docs[i])
	for op, fields := range u {
		if op != "$set" {
			return mongo.NewSingleResultFromDocument(bson.D{}, fmt.Errorf("mongotest: unsupported update operator %s", op), nil)
		}

		set, err := toM(fields)
		if err != nil {
			return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
		}
		if len(set) == 0 {
			return mongo.NewSingleResultFromDocument(bson.D{}, errors.New("mongotest: '$set' is empty"), nil)
		}

		for k, v := range set {
			c.docs[i][k] = v
		}
	}

	if returnAfter(opts) {
		return mongo.NewSingleResultFromDocument(c.docs[i], nil, nil)
	}
	return mongo.NewSingleResultFromDocument(before, nil, nil)
}

func (c *Collection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.Err != nil {
		return nil, c.Err
	}

	i, err := c.indexOf(filter)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &mongo.DeleteResult{DeletedCount: 0}, nil
	}
	if err != nil {
		return nil, err
	}

	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

// indexOf returns the position of the first document matching filter, or
// mongo.ErrNoDocuments. The caller holds c.mu.
func (c *Collection) indexOf(filter interface{}) (int, error) {
	match, err := matcher(filter)
	if err != nil {
		return -1, err
	}

	for i, doc := range c.docs {
		if match(doc) {
			return i, nil
		}
	}
	return -1, mongo.ErrNoDocuments
}

// Provider serves a single Collection as the students collection.
type Provider struct {
	Collection storage.Collection
}

func (p Provider) Students() storage.Collection {
	return p.Collection
}

func matcher(filter interface{}) (func(bson.M) bool, error) {
	f, err := toM(filter)
	if err != nil {
		return nil, err
	}

	for k := range f {
		if k != "_id" {
			return nil, fmt.Errorf("mongotest: unsupported filter key %s", k)
		}
	}

	id, ok := f["_id"]
	if !ok {
		return func(bson.M) bool { return true }, nil
	}

	return func(doc bson.M) bool { return doc["_id"] == id }, nil
}

func returnAfter(opts []*options.FindOneAndUpdateOptions) bool {
	after := false
	for _, o := range opts {
		if o != nil && o.ReturnDocument != nil {
			after = *o.ReturnDocument == options.After
		}
	}
	return after
}

// toM normalises any document value (struct, bson.D, bson.M, nil) into a
// fresh bson.M by a marshal round trip.
func toM(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}

	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mongotest: marshal: %w", err)
	}

	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("mongotest: unmarshal: %w", err)
	}
	return m, nil
}

func copyM(m bson.M) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
