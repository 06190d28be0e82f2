package analytics

import (
	"slices"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
)

// View is a drill-down selection over the case list.
type View string

const (
	ViewOverview        View = "overview"
	ViewSuccessful      View = "success"
	ViewUnsuccessful    View = "unsuccess"
	ViewRefused         View = "refused"
	ViewFacilityRefused View = "cemonc"
	ViewWaitTime        View = "wait"
	ViewCallTime        View = "callTime"
	ViewResponseTime    View = "response"
)

var viewTitles = map[View]string{
	ViewOverview:        "Case Details",
	ViewSuccessful:      "Successful Transfers Details",
	ViewUnsuccessful:    "Unsuccessful Cases Details",
	ViewRefused:         "Ambulance Unavailable Details",
	ViewFacilityRefused: "Facility Refusal Details",
	ViewWaitTime:        "Cases Ranked by Wait Time",
	ViewCallTime:        "Cases Ranked by Call Duration",
	ViewResponseTime:    "Cases Ranked by Response Time",
}

// Views lists every known view name.
func Views() []string {
	return []string{
		string(ViewOverview), string(ViewSuccessful), string(ViewUnsuccessful), string(ViewRefused),
		string(ViewFacilityRefused), string(ViewWaitTime), string(ViewCallTime), string(ViewResponseTime),
	}
}

// ParseView validates a view name. The empty string selects the overview.
func ParseView(s string) (View, error) {
	if s == "" {
		return ViewOverview, nil
	}
	v := View(s)
	if _, ok := viewTitles[v]; !ok {
		return "", apperrors.ErrInvalidView
	}
	return v, nil
}

// Title is the heading shown above the view's table.
func (v View) Title() string {
	if t, ok := viewTitles[v]; ok {
		return t
	}
	return viewTitles[ViewOverview]
}

// Select returns the cases shown by the view. The input slice is never
// reordered; ranked views are sorted on a copy, largest first.
func Select(cases []domain.CaseRecord, v View) []domain.CaseRecord {
	switch v {
	case ViewSuccessful:
		return filter(cases, func(c domain.CaseRecord) bool { return c.Status == domain.StatusSuccessful })
	case ViewUnsuccessful:
		return filter(cases, func(c domain.CaseRecord) bool { return c.Status == domain.StatusUnsuccessful })
	case ViewRefused:
		return filter(cases, func(c domain.CaseRecord) bool { return c.Status == domain.StatusRefused })
	case ViewFacilityRefused:
		return filter(cases, domain.CaseRecord.FacilityRefused)
	case ViewWaitTime:
		out := slices.Clone(cases)
		slices.SortStableFunc(out, func(a, b domain.CaseRecord) int { return b.AgentWaitTime - a.AgentWaitTime })
		return out
	case ViewCallTime:
		out := slices.Clone(cases)
		slices.SortStableFunc(out, func(a, b domain.CaseRecord) int { return compareDesc(a.CallDuration, b.CallDuration) })
		return out
	case ViewResponseTime:
		out := filter(cases, func(c domain.CaseRecord) bool { return c.ResponseTime != nil && *c.ResponseTime > 0 })
		slices.SortStableFunc(out, func(a, b domain.CaseRecord) int { return *b.ResponseTime - *a.ResponseTime })
		return out
	default:
		return slices.Clone(cases)
	}
}

func filter(cases []domain.CaseRecord, keep func(domain.CaseRecord) bool) []domain.CaseRecord {
	out := make([]domain.CaseRecord, 0, len(cases))
	for _, c := range cases {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
