package service

// gradeBracket maps an inclusive lower percentage bound to a letter grade and
// its grade-point value on the 4.0 scale.
type gradeBracket struct {
	floor  float64
	letter string
	points float64
}

// Brackets are ordered highest first; the first matching floor wins. The
// mapping is total: anything below 60 is an F, values above 100 fall in the
// top bracket.
var gradeBrackets = []gradeBracket{
	{95, "A+", 4.00},
	{90, "A", 4.00},
	{85, "B+", 3.50},
	{80, "B", 3.00},
	{75, "C+", 2.50},
	{70, "C", 2.00},
	{60, "D", 1.00},
}

// LetterGradeFor maps a percentage score to a letter grade and grade points.
func LetterGradeFor(percentage float64) (string, float64) {
	for _, b := range gradeBrackets {
		if percentage >= b.floor {
			return b.letter, b.points
		}
	}
	return "F", 0.00
}

// GradePointsFor is the reverse mapping from a letter grade to its point
// value. The second return is false for unknown letters.
func GradePointsFor(letter string) (float64, bool) {
	if letter == "F" {
		return 0.00, true
	}
	for _, b := range gradeBrackets {
		if b.letter == letter {
			return b.points, true
		}
	}
	return 0, false
}
