// Package analytics derives dashboard KPIs from normalized case records and
// the operations summary.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// Compute derives the full KPI set. It is a pure function of its inputs and
// is cheap enough to rerun whenever either dataset changes.
func Compute(cases []domain.CaseRecord, ops domain.OpsSummary) domain.MetricsSnapshot {
	var (
		waitTotal, durationTotal float64
		responseTotal, responseN int
		cycleTotal, cycleN       int
		successful, unsuccessful int
		refused                  int
		facilityIn, facilityOut  int
	)
	days := make(map[string]struct{})

	for _, c := range cases {
		waitTotal += float64(c.AgentWaitTime)
		durationTotal += c.CallDuration
		days[c.Date] = struct{}{}

		switch c.Status {
		case domain.StatusSuccessful:
			successful++
		case domain.StatusUnsuccessful:
			unsuccessful++
		case domain.StatusRefused:
			refused++
		}

		// Zero-minute spans are treated like missing ones.
		if c.ResponseTime != nil && *c.ResponseTime > 0 {
			responseTotal += *c.ResponseTime
			responseN++
		}
		if c.CycleTime != nil && *c.CycleTime > 0 {
			cycleTotal += *c.CycleTime
			cycleN++
		}

		switch {
		case c.FacilityReceived():
			facilityIn++
		case c.FacilityRefused():
			facilityOut++
		}
	}

	uniqueDays := max(len(days), 1)
	fleet := ops.OperationalAmb

	return domain.MetricsSnapshot{
		TotalCases:               len(cases),
		ResponseRate:             percent(ops.AnsweredCalls, ops.TotalCalls),
		OperationalAmbulances:    fleet,
		AvgWaitTime:              wholeMean(waitTotal, len(cases)),
		AvgCallDuration:          wholeMean(durationTotal, len(cases)),
		UniqueDays:               uniqueDays,
		SuccessPerAmbPerDay:      perVehicleDay(successful, fleet, uniqueDays),
		AvgResponseTime:          wholeMean(float64(responseTotal), responseN),
		AvgCycleTime:             wholeMean(float64(cycleTotal), cycleN),
		RefusedUnavailable:       refused,
		UnsuccessfulPerAmbPerDay: perVehicleDay(unsuccessful, fleet, uniqueDays),
		CEmONCAcceptance:         percent(float64(facilityIn), float64(facilityIn+facilityOut)),
		TotalSuccessful:          successful,
		TotalUnsuccessful:        unsuccessful,
	}
}

// percent is part/whole as a percentage to one decimal place, 0 when whole is 0.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round(part/whole*100, 1)
}

// perVehicleDay is count spread over the fleet and the number of days, to
// two decimal places.
func perVehicleDay(count, fleet, days int) float64 {
	if fleet <= 0 {
		return 0
	}
	return round(float64(count)/float64(fleet)/float64(days), 2)
}

func wholeMean(total float64, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(total / float64(n)))
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
