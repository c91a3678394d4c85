package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aanand-mishra/students-mongo-api/internal/metrics"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// studentDocument is the on-disk shape of a student.
type studentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	GradesAvg float64            `bson:"grades_avg"`
	Courses   []string           `bson:"courses"`
}

func (d studentDocument) toStudent() types.Student {
	courses := d.Courses
	if courses == nil {
		courses = []string{}
	}

	return types.Student{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		GradesAvg: d.GradesAvg,
		Courses:   courses,
	}
}

// parseID rejects anything that is not a 24-character hex ObjectID before
// a filter is ever built from it.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", storage.ErrInvalidID, id)
	}
	return oid, nil
}

func byID(oid primitive.ObjectID) bson.M {
	return bson.M{"_id": oid}
}

// AddStudent inserts in and returns the stored record.
//
// The read-output is rebuilt from the input plus the identifier in the
// insert acknowledgement, so no second round trip (and no window for a
// concurrent delete between insert and lookup) exists.
func AddStudent(ctx context.Context, coll storage.Collection, in types.StudentIn) (student types.Student, err error) {
	if err := types.Validate(in); err != nil {
		return types.Student{}, fmt.Errorf("AddStudent: %w", err)
	}

	defer func(start time.Time) { metrics.ObserveStoreOperation("insert", start, err) }(time.Now())

	doc := studentDocument{
		Name:      in.Name,
		Email:     in.Email,
		GradesAvg: *in.GradesAvg,
		Courses:   in.CourseNames(),
	}

	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return types.Student{}, fmt.Errorf("AddStudent: insert: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok || oid.IsZero() {
		return types.Student{}, fmt.Errorf("AddStudent: inserted id %v: %w", result.InsertedID, storage.ErrInsertNotFound)
	}
	doc.ID = oid

	return doc.toStudent(), nil
}

// ListStudents returns every student in the store's natural order.
// The result is never nil.
func ListStudents(ctx context.Context, coll storage.Collection) (students []types.Student, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("find", start, err) }(time.Now())

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("ListStudents: find: %w", err)
	}

	// All drains and closes the cursor.
	var docs []studentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ListStudents: decode: %w", err)
	}

	students = make([]types.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, doc.toStudent())
	}

	return students, nil
}

// GetStudent fetches one student by id.
func GetStudent(ctx context.Context, coll storage.Collection, id string) (student types.Student, err error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudent: %w", err)
	}

	defer func(start time.Time) { metrics.ObserveStoreOperation("find_one", start, err) }(time.Now())

	var doc studentDocument
	if err := coll.FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return types.Student{}, fmt.Errorf("GetStudent: %w", notFound(err))
	}

	return doc.toStudent(), nil
}

// UpdateStudent sets only the fields supplied in patch and returns the
// record as it is after the update. An empty patch changes nothing and
// returns the current record.
func UpdateStudent(ctx context.Context, coll storage.Collection, id string, patch types.StudentUpdate) (student types.Student, err error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: %w", err)
	}

	if err := types.Validate(patch); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: %w", err)
	}

	defer func(start time.Time) { metrics.ObserveStoreOperation("update", start, err) }(time.Now())

	var result *mongo.SingleResult
	if patch.IsEmpty() {
		// An empty $set is rejected by the server.
		result = coll.FindOne(ctx, byID(oid))
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		result = coll.FindOneAndUpdate(ctx, byID(oid), bson.M{"$set": setFields(patch)}, opts)
	}

	var doc studentDocument
	if err := result.Decode(&doc); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: %w", notFound(err))
	}

	return doc.toStudent(), nil
}

// DeleteStudent removes one student by id.
func DeleteStudent(ctx context.Context, coll storage.Collection, id string) (err error) {
	oid, err := parseID(id)
	if err != nil {
		return fmt.Errorf("DeleteStudent: %w", err)
	}

	defer func(start time.Time) { metrics.ObserveStoreOperation("delete", start, err) }(time.Now())

	result, err := coll.DeleteOne(ctx, byID(oid))
	if err != nil {
		return fmt.Errorf("DeleteStudent: delete: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("DeleteStudent: %w", storage.ErrNotFound)
	}

	return nil
}

// setFields lists the supplied fields of patch in document order.
func setFields(patch types.StudentUpdate) bson.D {
	var set bson.D
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.GradesAvg != nil {
		set = append(set, bson.E{Key: "grades_avg", Value: *patch.GradesAvg})
	}
	if patch.Courses != nil {
		set = append(set, bson.E{Key: "courses", Value: patch.CourseNames()})
	}
	return set
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}
