package domain

// OpsSummary aggregates the daily call-center totals from one operations file.
type OpsSummary struct {
	TotalCalls     float64 `json:"totalCalls"`
	AnsweredCalls  float64 `json:"answeredCalls"`
	OperationalAmb int     `json:"operationalAmb"`
}
