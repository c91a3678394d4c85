package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aanand-mishra/students-mongo-api/internal/metrics"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/mongodb/mongotest"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

// storeOps sums the store operation counter for operation over every result.
func storeOps(t *testing.T, operation string) float64 {
	t.Helper()

	families, err := metrics.Registry.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != "students_api_store_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" && l.GetValue() == operation {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func newStudentIn() types.StudentIn {
	return types.StudentIn{
		Name:      "Jo",
		Email:     "jo@x.co",
		GradesAvg: ptr(5.5),
		Courses:   types.CourseList("math"),
	}
}

func TestAddStudentThenGetStudent(t *testing.T) {
	ctx := context.Background()
	coll := mongotest.NewCollection()

	in := newStudentIn()
	created, err := AddStudent(ctx, coll, in)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.True(t, primitive.IsValidObjectID(created.ID))
	assert.Equal(t, in.Name, created.Name)
	assert.Equal(t, in.Email, created.Email)
	assert.Equal(t, *in.GradesAvg, created.GradesAvg)
	assert.Equal(t, in.CourseNames(), created.Courses)

	// Exactly one round trip for the insert.
	assert.Equal(t, 1, coll.Calls())

	fetched, err := GetStudent(ctx, coll, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestAddStudentRejectsInvalidInput(t *testing.T) {
	coll := mongotest.NewCollection()

	in := newStudentIn()
	in.Courses = types.CourseList()
	inserts := storeOps(t, "insert")

	_, err := AddStudent(context.Background(), coll, in)

	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Equal(t, 0, coll.Calls())
	assert.Equal(t, inserts, storeOps(t, "insert"))
}

func TestAddStudentStoreFailure(t *testing.T) {
	coll := mongotest.NewCollection()
	coll.Err = errors.New("connection reset")

	_, err := AddStudent(context.Background(), coll, newStudentIn())

	assert.ErrorContains(t, err, "connection reset")
}

func TestListStudents(t *testing.T) {
	ctx := context.Background()
	coll := mongotest.NewCollection()

	t.Run("EmptyIsNotNil", func(t *testing.T) {
		students, err := ListStudents(ctx, coll)
		require.NoError(t, err)
		assert.NotNil(t, students)
		assert.Empty(t, students)
	})

	t.Run("ReturnsEveryRecord", func(t *testing.T) {
		first, err := AddStudent(ctx, coll, newStudentIn())
		require.NoError(t, err)

		second := newStudentIn()
		second.Name = "Ann"
		second.Courses = types.CourseList("pe", "english")
		created, err := AddStudent(ctx, coll, second)
		require.NoError(t, err)

		students, err := ListStudents(ctx, coll)
		require.NoError(t, err)
		assert.ElementsMatch(t, []types.Student{first, created}, students)
	})
}

func TestUnknownID(t *testing.T) {
	ctx := context.Background()
	coll := mongotest.NewCollection()
	_, err := AddStudent(ctx, coll, newStudentIn())
	require.NoError(t, err)

	id := primitive.NewObjectID().Hex()

	_, err = GetStudent(ctx, coll, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = UpdateStudent(ctx, coll, id, types.StudentUpdate{Name: ptr("Max")})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = UpdateStudent(ctx, coll, id, types.StudentUpdate{})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = DeleteStudent(ctx, coll, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMalformedIDNeverReachesStore(t *testing.T) {
	ctx := context.Background()

	for _, id := range []string{"", "abc", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "507f1f77bcf86cd79943901"} {
		t.Run(id, func(t *testing.T) {
			coll := mongotest.NewCollection()
			before := map[string]float64{
				"find_one": storeOps(t, "find_one"),
				"update":   storeOps(t, "update"),
				"delete":   storeOps(t, "delete"),
			}

			_, err := GetStudent(ctx, coll, id)
			assert.ErrorIs(t, err, storage.ErrInvalidID)

			_, err = UpdateStudent(ctx, coll, id, types.StudentUpdate{Name: ptr("Max")})
			assert.ErrorIs(t, err, storage.ErrInvalidID)

			err = DeleteStudent(ctx, coll, id)
			assert.ErrorIs(t, err, storage.ErrInvalidID)

			assert.Equal(t, 0, coll.Calls())
			for op, n := range before {
				assert.Equal(t, n, storeOps(t, op), op)
			}
		})
	}
}

func TestStoreCallsAreObserved(t *testing.T) {
	ctx := context.Background()
	coll := mongotest.NewCollection()
	gets := storeOps(t, "find_one")

	_, err := GetStudent(ctx, coll, primitive.NewObjectID().Hex())

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, gets+1, storeOps(t, "find_one"))
}

func TestUpdateStudent(t *testing.T) {
	ctx := context.Background()
	coll := mongotest.NewCollection()

	created, err := AddStudent(ctx, coll, newStudentIn())
	require.NoError(t, err)

	t.Run("EmptyPatchIsNoOp", func(t *testing.T) {
		updated, err := UpdateStudent(ctx, coll, created.ID, types.StudentUpdate{})
		require.NoError(t, err)
		assert.Equal(t, created, updated)
	})

	t.Run("OnlyGradesAvg", func(t *testing.T) {
		updated, err := UpdateStudent(ctx, coll, created.ID, types.StudentUpdate{GradesAvg: ptr(2.25)})
		require.NoError(t, err)

		assert.Equal(t, 2.25, updated.GradesAvg)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.Name, updated.Name)
		assert.Equal(t, created.Email, updated.Email)
		assert.Equal(t, created.Courses, updated.Courses)

		fetched, err := GetStudent(ctx, coll, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, fetched)
	})

	t.Run("EveryField", func(t *testing.T) {
		patch := types.StudentUpdate{
			Name:      ptr("Joanna"),
			Email:     ptr("joanna@x.co"),
			GradesAvg: ptr(6.0),
			Courses:   types.CourseList("art", "history"),
		}
		updated, err := UpdateStudent(ctx, coll, created.ID, patch)
		require.NoError(t, err)

		assert.Equal(t, types.Student{
			ID:        created.ID,
			Name:      "Joanna",
			Email:     "joanna@x.co",
			GradesAvg: 6.0,
			Courses:   []string{"art", "history"},
		}, updated)
	})

	t.Run("InvalidPatchIsRejectedBeforeStore", func(t *testing.T) {
		calls := coll.Calls()

		_, err := UpdateStudent(ctx, coll, created.ID, types.StudentUpdate{GradesAvg: ptr(6.01)})

		var verrs validator.ValidationErrors
		assert.True(t, errors.As(err, &verrs))
		assert.Equal(t, calls, coll.Calls())
	})
}

func TestDeleteStudentOnce(t *testing.T) {
	ctx := context.Background()
	coll := mongotest.NewCollection()

	created, err := AddStudent(ctx, coll, newStudentIn())
	require.NoError(t, err)

	require.NoError(t, DeleteStudent(ctx, coll, created.ID))
	assert.Equal(t, 0, coll.Len())

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, DeleteStudent(ctx, coll, created.ID), storage.ErrNotFound)
	}

	_, err = GetStudent(ctx, coll, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetFieldsOrder(t *testing.T) {
	set := setFields(types.StudentUpdate{
		Courses: types.CourseList("math"),
		Name:    ptr("Jo"),
	})

	require.Len(t, set, 2)
	assert.Equal(t, "name", set[0].Key)
	assert.Equal(t, "courses", set[1].Key)
}
