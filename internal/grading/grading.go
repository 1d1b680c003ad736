// Package grading holds the score arithmetic shared by report cards,
// dashboards and exports. Nothing here returns an error: out-of-range or
// missing input degrades to F9, Fail and 0.00 so a report always renders.
package grading

import (
	"fmt"
	"math"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

type band struct {
	min   float64
	label string
}

// Letter bands are checked top-down against the lower bound.
var letterBands = []band{
	{90, "A1"},
	{80, "B2"},
	{70, "B3"},
	{65, "C4"},
	{60, "C5"},
	{55, "C6"},
	{50, "D7"},
	{40, "E8"},
	{0, "F9"},
}

// Remark bands do not line up with the letter bands; both tables are kept as used on printed reports.
var remarkBands = []band{
	{90, "Excellent"},
	{75, "Very Good"},
	{65, "Good"},
	{55, "Fair"},
	{45, "Pass"},
}

const (
	FailingGrade  = "F9"
	FailingRemark = "Fail"
	maxScore      = 100
)

// Total adds class and exam scores, treating nil or non-finite values as zero.
func Total(classScore, examScore *float64) float64 {
	return value(classScore) + value(examScore)
}

// LetterGrade maps a total in [0,100] to its band. Anything else is F9.
func LetterGrade(total float64) string {
	if !finite(total) || total < 0 || total > maxScore {
		return FailingGrade
	}
	for _, b := range letterBands {
		if total >= b.min {
			return b.label
		}
	}
	return FailingGrade
}

// Remark maps a total to the descriptive remark printed next to the grade.
func Remark(total float64) string {
	if !finite(total) {
		return FailingRemark
	}
	for _, b := range remarkBands {
		if total >= b.min {
			return b.label
		}
	}
	return FailingRemark
}

// Average is the mean of the positive totals, rounded to two decimals.
// Zero totals are left out of the denominator.
func Average(totals []float64) float64 {
	sum := 0.0
	count := 0
	for _, t := range totals {
		if !finite(t) || t <= 0 {
			continue
		}
		sum += t
		count++
	}
	if count == 0 {
		return 0
	}
	return round2(sum / float64(count))
}

// FormatAverage renders an average with two decimals.
func FormatAverage(avg float64) string {
	if !finite(avg) {
		avg = 0
	}
	return fmt.Sprintf("%.2f", avg)
}

// Summary holds the per-report figures derived from its subject rows.
type Summary struct {
	TotalScore     float64 `json:"total_score"`
	AverageScore   float64 `json:"average_score"`
	AverageDisplay string  `json:"average_display"`
	OverallGrade   string  `json:"overall_grade"`
	Remark         string  `json:"remark"`
	GradedSubjects int     `json:"graded_subjects"`
	SubjectCount   int     `json:"subject_count"`
}

// Summarize derives report totals from merged rows. Placeholder rows count as zero.
func Summarize(rows []models.SubjectRow) Summary {
	totals := make([]float64, 0, len(rows))
	for _, row := range rows {
		switch r := row.(type) {
		case models.ExistingRow:
			totals = append(totals, Total(r.Grade.ClassScore, r.Grade.ExamScore))
		case models.PlaceholderRow:
			totals = append(totals, 0)
		}
	}
	return SummarizeTotals(totals)
}

// SummarizeTotals derives report figures from already-computed subject totals.
func SummarizeTotals(totals []float64) Summary {
	sum := 0.0
	graded := 0
	for _, t := range totals {
		if finite(t) && t > 0 {
			sum += t
			graded++
		}
	}
	avg := Average(totals)
	return Summary{
		TotalScore:     round2(sum),
		AverageScore:   avg,
		AverageDisplay: FormatAverage(avg),
		OverallGrade:   LetterGrade(avg),
		Remark:         Remark(avg),
		GradedSubjects: graded,
		SubjectCount:   len(totals),
	}
}

func value(v *float64) float64 {
	if v == nil || !finite(*v) {
		return 0
	}
	return *v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
