package model

import (
	"encoding/json"
	"time"
)

// Comparison correlates exactly two jobs created for a side-by-side model
// comparison. The 1:2 relationship is carried by the jobs' Correlation field,
// not by a foreign key here.
type Comparison struct {
	ID         int64
	UserID     string
	Prompt     string
	Model1Key  string
	Model2Key  string
	Model1Name string
	Model2Name string
	Metadata   json.RawMessage
	CreatedAt  time.Time
}
