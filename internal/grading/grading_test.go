package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.0, Total(nil, nil))
	assert.Equal(t, 60.0, Total(ptr(60), nil))
	assert.Equal(t, 100.0, Total(ptr(60), ptr(40)))
	assert.Equal(t, 40.0, Total(ptr(math.NaN()), ptr(40)))
}

func TestLetterGrade(t *testing.T) {
	cases := map[float64]string{
		-5:    "F9",
		105:   "F9",
		100:   "A1",
		90:    "A1",
		89:    "B2",
		89.5:  "B2",
		80:    "B2",
		79:    "B3",
		70:    "B3",
		69:    "C4",
		65:    "C4",
		64:    "C5",
		60:    "C5",
		59:    "C6",
		55:    "C6",
		54:    "D7",
		50:    "D7",
		49:    "E8",
		40:    "E8",
		39:    "F9",
		0:     "F9",
	}
	for total, want := range cases {
		assert.Equalf(t, want, LetterGrade(total), "total %v", total)
	}
	assert.Equal(t, "F9", LetterGrade(math.NaN()))
	assert.Equal(t, "F9", LetterGrade(math.Inf(1)))
}

func TestRemark(t *testing.T) {
	assert.Equal(t, "Excellent", Remark(90))
	assert.Equal(t, "Very Good", Remark(89))
	assert.Equal(t, "Very Good", Remark(75))
	assert.Equal(t, "Good", Remark(74))
	assert.Equal(t, "Good", Remark(65))
	assert.Equal(t, "Fair", Remark(55))
	assert.Equal(t, "Pass", Remark(45))
	assert.Equal(t, "Fail", Remark(44.99))
	assert.Equal(t, "Fail", Remark(math.NaN()))
	// C4 but only "Good": the two tables are intentionally independent.
	assert.Equal(t, "C4", LetterGrade(66))
	assert.Equal(t, "Good", Remark(66))
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, "0.00", FormatAverage(Average(nil)))
	assert.Equal(t, 80.0, Average([]float64{0, 80}))
	assert.Equal(t, "80.00", FormatAverage(Average([]float64{0, 80})))
	assert.Equal(t, 66.67, Average([]float64{50, 75, 75}))
}

func TestSummarize(t *testing.T) {
	rows := []models.SubjectRow{
		models.ExistingRow{Course: models.EnrolledCourse{CourseID: "math"}, Grade: models.Grade{ClassScore: ptr(30), ExamScore: ptr(60)}},
		models.ExistingRow{Course: models.EnrolledCourse{CourseID: "eng"}, Grade: models.Grade{ClassScore: ptr(20), ExamScore: ptr(50)}},
		models.PlaceholderRow{Course: models.EnrolledCourse{CourseID: "art"}, RowKey: "tmp"},
	}
	summary := Summarize(rows)

	assert.Equal(t, 160.0, summary.TotalScore)
	assert.Equal(t, 80.0, summary.AverageScore)
	assert.Equal(t, "80.00", summary.AverageDisplay)
	assert.Equal(t, "B2", summary.OverallGrade)
	assert.Equal(t, "Very Good", summary.Remark)
	assert.Equal(t, 2, summary.GradedSubjects)
	assert.Equal(t, 3, summary.SubjectCount)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, "0.00", summary.AverageDisplay)
	assert.Equal(t, "F9", summary.OverallGrade)
	assert.Equal(t, "Fail", summary.Remark)
}
