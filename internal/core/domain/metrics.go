package domain

// MetricsSnapshot is the KPI set derived from the current case list and
// operations summary. It carries no state of its own.
type MetricsSnapshot struct {
	TotalCases               int     `json:"totalCases"`
	ResponseRate             float64 `json:"responseRate"`
	OperationalAmbulances    int     `json:"operationalAmbulances"`
	AvgWaitTime              int     `json:"avgWaitTime"`
	AvgCallDuration          int     `json:"avgCallDuration"`
	UniqueDays               int     `json:"uniqueDays"`
	SuccessPerAmbPerDay      float64 `json:"successPerAmbPerDay"`
	AvgResponseTime          int     `json:"avgResponseTime"`
	AvgCycleTime             int     `json:"avgCycleTime"`
	RefusedUnavailable       int     `json:"refusedUnavailable"`
	UnsuccessfulPerAmbPerDay float64 `json:"unsuccessfulPerAmbPerDay"`
	CEmONCAcceptance         float64 `json:"cemoncAcceptance"`
	TotalSuccessful          int     `json:"totalSuccessful"`
	TotalUnsuccessful        int     `json:"totalUnsuccessful"`
}
