// Package grade maps score totals to letter grades.
package grade

// Letter grades
const (
	A = "A"
	B = "B"
	C = "C"
	D = "D"
	F = "F"
)

// Band is an inclusive [Min, Max] range of totals mapped to a letter grade.
type Band struct {
	Grade  string `json:"grade"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Remark string `json:"remark"`
}

// Bands is the grading scale, best grade first. Bands do not overlap and cover 0-100.
var Bands = []Band{
	{Grade: A, Min: 70, Max: 100, Remark: "Excellent"},
	{Grade: B, Min: 60, Max: 69, Remark: "Very Good"},
	{Grade: C, Min: 50, Max: 59, Remark: "Good"},
	{Grade: D, Min: 40, Max: 49, Remark: "Pass"},
	{Grade: F, Min: 0, Max: 39, Remark: "Fail"},
}

// For returns the letter grade of total. Totals outside every band (negative, above 100) get F.
func For(total int) string {
	if b, ok := bandFor(total); ok {
		return b.Grade
	}
	return F
}

// Remark returns the remark attached to the grade of total.
func Remark(total int) string {
	if b, ok := bandFor(total); ok {
		return b.Remark
	}
	return Bands[len(Bands)-1].Remark
}

func bandFor(total int) (Band, bool) {
	for _, b := range Bands {
		if total >= b.Min && total <= b.Max {
			return b, true
		}
	}
	return Band{}, false
}
