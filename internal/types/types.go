// Package types holds all shared data structures (models) used across
// the application. handlers, storage and utils all import types
// without importing each other.
//
// There are three shapes for the one Student entity:
//
//	StudentIn     the create-input body (POST)
//	StudentUpdate the partial update body (PATCH)
//	Student       the read-output returned to callers
package types

// StudentIn is the body accepted by POST /students/.
//
// Every field is required. validate:"..." tags are the constraint table
// evaluated by go-playground/validator:
//
//	name        at least 2 characters
//	email       at least 3 characters (no structural e-mail check)
//	grades_avg  at most 6, no lower bound
//	courses     at least 1 entry, no null entries
//
// GradesAvg is a pointer so a legitimate 0 is told apart from "missing".
// Course entries are pointers for the same reason: a JSON null entry
// decodes to nil and fails dive,required, while "" is still a string.
type StudentIn struct {
	Name      string    `json:"name"       validate:"required,min=2"`
	Email     string    `json:"email"      validate:"required,min=3"`
	GradesAvg *float64  `json:"grades_avg" validate:"required,max=6"`
	Courses   []*string `json:"courses"    validate:"required,min=1,dive,required"`
}

// CourseNames returns the course entries as plain strings.
func (in StudentIn) CourseNames() []string {
	return courseNames(in.Courses)
}

// StudentUpdate is the body accepted by PATCH /students/{id}/.
//
// Every field is optional. A nil field is left untouched by the update;
// a present field must satisfy the same constraint as on creation.
// An explicit JSON null counts as absent.
type StudentUpdate struct {
	Name      *string   `json:"name,omitempty"       validate:"omitempty,min=2"`
	Email     *string   `json:"email,omitempty"      validate:"omitempty,min=3"`
	GradesAvg *float64  `json:"grades_avg,omitempty" validate:"omitempty,max=6"`
	Courses   []*string `json:"courses,omitempty"    validate:"omitempty,min=1,dive,required"`
}

// IsEmpty reports whether no field was supplied.
func (u StudentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.GradesAvg == nil && u.Courses == nil
}

// CourseNames returns the supplied course entries as plain strings, or nil
// when courses were not supplied.
func (u StudentUpdate) CourseNames() []string {
	if u.Courses == nil {
		return nil
	}
	return courseNames(u.Courses)
}

// CourseList builds a course list for the input shapes.
func CourseList(names ...string) []*string {
	list := make([]*string, len(names))
	for i := range names {
		list[i] = &names[i]
	}
	return list
}

func courseNames(list []*string) []string {
	names := make([]string, 0, len(list))
	for _, c := range list {
		if c != nil {
			names = append(names, *c)
		}
	}
	return names
}

// Student is the read-output shape. ID is the store identifier rendered
// as a plain string.
type Student struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	GradesAvg float64  `json:"grades_avg"`
	Courses   []string `json:"courses"`
}
