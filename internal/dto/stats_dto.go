package dto

// RoomAverage is the mean graded total score of one classroom.
type RoomAverage struct {
	Room    string  `json:"room"`
	Average float64 `json:"average"`
}

// ScoreBand counts graded submissions falling into one score range.
type ScoreBand struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// StatsResponse is the dashboard aggregation over the submission list.
type StatsResponse struct {
	ActivityFilter     string        `json:"activityFilter"`
	Total              int           `json:"total"`
	GradedCount        int           `json:"gradedCount"`
	PendingCount       int           `json:"pendingCount"`
	AverageScore       float64       `json:"averageScore"`
	RoomAverages       []RoomAverage `json:"roomAverages"`
	Distribution       []ScoreBand   `json:"distribution"`
	SportsDayPending   int           `json:"sportsDayPending"`
	ChildrenDayPending int           `json:"childrenDayPending"`
	CacheHit           bool          `json:"cacheHit,omitempty"`
}
