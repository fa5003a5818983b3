package models

import "time"

// Grade levels offered by the portal.
const (
	GradePrathom5 = "Prathom 5"
	GradePrathom6 = "Prathom 6"
)

// Classrooms per grade level.
const (
	Room1 = "Room 1"
	Room2 = "Room 2"
	Room3 = "Room 3"
	Room4 = "Room 4"
)

// Activity types a video can be submitted for.
const (
	ActivitySportsDay   = "Sports Day"
	ActivityChildrenDay = "Children Day"
)

// Review status values.
const (
	ReviewStatusPending = "Pending"
	ReviewStatusGraded  = "Graded"
)

// Rooms lists every classroom in display order.
func Rooms() []string {
	return []string{Room1, Room2, Room3, Room4}
}

// Submission is one student's activity video entry. The rubric review is
// embedded rather than referenced: at most one review exists per submission
// and it is only ever written as a whole.
type Submission struct {
	RowID         uint      `gorm:"primaryKey" json:"rowId"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	StudentNumber string    `gorm:"size:16;not null" json:"studentNumber"`
	Grade         string    `gorm:"size:32;not null" json:"grade"`
	Room          string    `gorm:"size:32;not null" json:"room"`
	ActivityType  string    `gorm:"size:32;not null" json:"activityType"`
	FileURL       string    `gorm:"size:512" json:"fileUrl"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	ContentAccuracy int        `gorm:"not null;default:0" json:"contentAccuracy"`
	Participation   int        `gorm:"not null;default:0" json:"participation"`
	Presentation    int        `gorm:"not null;default:0" json:"presentation"`
	Discipline      int        `gorm:"not null;default:0" json:"discipline"`
	TotalScore      int        `gorm:"not null;default:0" json:"totalScore"`
	Percentage      int        `gorm:"not null;default:0" json:"percentage"`
	Comment         string     `gorm:"type:text" json:"comment"`
	ReviewStatus    string     `gorm:"size:16;not null;default:Pending" json:"reviewStatus"`
	GradedAt        *time.Time `json:"gradedAt"`

	// Revision increments on every review save; bulk grading uses it to
	// detect that another session graded the row mid-run.
	Revision int64 `gorm:"not null;default:0" json:"revision"`
}

// IsGraded reports whether a teacher has finished reviewing the submission.
func (s Submission) IsGraded() bool {
	return s.ReviewStatus == ReviewStatusGraded
}

// Review extracts the rubric dimensions of the submission.
func (s Submission) Review() Rubric {
	return Rubric{
		ContentAccuracy: s.ContentAccuracy,
		Participation:   s.Participation,
		Presentation:    s.Presentation,
		Discipline:      s.Discipline,
	}
}
