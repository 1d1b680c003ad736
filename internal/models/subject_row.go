package models

// SubjectRow is one enrolled subject on a report card. It is either an
// ExistingRow backed by a stored grade or a PlaceholderRow awaiting first save.
type SubjectRow interface {
	Subject() EnrolledCourse
	isSubjectRow()
}

// ExistingRow wraps a stored grade.
type ExistingRow struct {
	Course EnrolledCourse
	Grade  Grade
}

// Subject implements SubjectRow.
func (r ExistingRow) Subject() EnrolledCourse { return r.Course }

func (ExistingRow) isSubjectRow() {}

// PlaceholderRow stands in for a subject without a grade. RowKey is only a client list key.
type PlaceholderRow struct {
	Course EnrolledCourse
	RowKey string
}

// Subject implements SubjectRow.
func (r PlaceholderRow) Subject() EnrolledCourse { return r.Course }

func (PlaceholderRow) isSubjectRow() {}
