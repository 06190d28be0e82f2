package domain

// CaseStatus is the normalized outcome of a dispatch case.
type CaseStatus string

const (
	StatusSuccessful   CaseStatus = "Successful"
	StatusUnsuccessful CaseStatus = "Unsuccessful"
	StatusRefused      CaseStatus = "Refused (Occupied)"
	StatusCancelled    CaseStatus = "Cancelled"
	StatusOther        CaseStatus = "Other"
)

// IsValid checks if the status is one of the known values
func (s CaseStatus) IsValid() bool {
	switch s {
	case StatusSuccessful, StatusUnsuccessful, StatusRefused, StatusCancelled, StatusOther:
		return true
	}
	return false
}

// NoAmbulance is recorded when the export names no vehicle.
const NoAmbulance = "N/A"

// CaseRecord is one normalized ambulance-dispatch case.
type CaseRecord struct {
	ID            string     `json:"id"`
	Date          string     `json:"date"`
	AmbulanceID   string     `json:"ambulanceId"`
	AgentWaitTime int        `json:"agentWaitTime"`
	CallDuration  float64    `json:"callDuration"`
	Status        CaseStatus `json:"status"`
	ResponseTime  *int       `json:"responseTime"`
	CycleTime     *int       `json:"cycleTime"`
	// CEmONCAccepted is nil when the facility outcome was not stated.
	CEmONCAccepted    *bool  `json:"cemoncAccepted"`
	ReferringFacility string `json:"referringFacility"`
	Notes             string `json:"notes"`
}

// FacilityReceived reports whether the receiving facility accepted the patient.
func (c CaseRecord) FacilityReceived() bool {
	return c.CEmONCAccepted != nil && *c.CEmONCAccepted
}

// FacilityRefused reports whether the receiving facility refused the patient.
func (c CaseRecord) FacilityRefused() bool {
	return c.CEmONCAccepted != nil && !*c.CEmONCAccepted
}
