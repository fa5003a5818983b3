package models

// RubricMax is the maximum value of a single rubric dimension.
const RubricMax = 5

// RubricTotalMax is the maximum total score across the four dimensions.
const RubricTotalMax = 20

// Rubric holds the four scored dimensions of a review, each 0-5.
type Rubric struct {
	ContentAccuracy int `json:"contentAccuracy" validate:"gte=0,lte=5"`
	Participation   int `json:"participation" validate:"gte=0,lte=5"`
	Presentation    int `json:"presentation" validate:"gte=0,lte=5"`
	Discipline      int `json:"discipline" validate:"gte=0,lte=5"`
}

// Rubric dimension keys.
const (
	DimensionContentAccuracy = "contentAccuracy"
	DimensionParticipation   = "participation"
	DimensionPresentation    = "presentation"
	DimensionDiscipline      = "discipline"
)

// Dimensions lists the rubric dimension keys in display order.
func Dimensions() []string {
	return []string{
		DimensionContentAccuracy,
		DimensionParticipation,
		DimensionPresentation,
		DimensionDiscipline,
	}
}

// Set assigns the named dimension. It reports false for an unknown key.
func (r *Rubric) Set(key string, value int) bool {
	switch key {
	case DimensionContentAccuracy:
		r.ContentAccuracy = value
	case DimensionParticipation:
		r.Participation = value
	case DimensionPresentation:
		r.Presentation = value
	case DimensionDiscipline:
		r.Discipline = value
	default:
		return false
	}
	return true
}

// ComputeTotals derives the total score and its percentage from the four
// dimensions. The percentage is total/20*100 rounded half up; with integer
// dimensions this is exactly total*5, but the derivation is kept explicit so
// the rounding rule survives any future change to the scale.
func ComputeTotals(r Rubric) (total int, percentage int) {
	total = r.ContentAccuracy + r.Participation + r.Presentation + r.Discipline
	percentage = (total*100 + RubricTotalMax/2) / RubricTotalMax
	return total, percentage
}
