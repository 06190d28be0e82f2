package ingest

import (
	"fmt"
	"math"
	"strings"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// caseField names a logical column of a case-log export.
type caseField int

const (
	fieldID caseField = iota
	fieldDate
	fieldCategory
	fieldAmbulance
	fieldCallTime
	fieldAnswerTime
	fieldDuration
	fieldDispatch
	fieldArrival
	fieldClosure
	fieldReason
	fieldOutcome
	fieldRefusalNotes
	fieldFacility
)

// caseFields lists the header substrings tried for each logical field, in
// priority order. The first candidate yielding a value wins.
var caseFields = map[caseField][]string{
	fieldID:           {"reference id", "reference", "ref id", "ems id"},
	fieldDate:         {"date", "call date"},
	fieldCategory:     {"case category", "category", "status"},
	fieldAmbulance:    {"ambulance no", "vehicle", "amb id"},
	fieldCallTime:     {"call time"},
	fieldAnswerTime:   {"agent answer time", "answer time"},
	fieldDuration:     {"call duration", "duration"},
	fieldDispatch:     {"time dispatched", "dispatch"},
	fieldArrival:      {"time arrived scene", "arrival"},
	fieldClosure:      {"time job closed", "job closed", "closure"},
	fieldReason:       {"reason"},
	fieldOutcome:      {"refused or received", "outcome"},
	fieldRefusalNotes: {"reason of refusal", "reason"},
	fieldFacility:     {"from (address)", "address"},
}

// serialDateFloor is the smallest numeric date treated as a spreadsheet
// serial (40000 is 2009-07-06).
const serialDateFloor = 40000

// rowReader resolves logical fields of one row through the header columns.
type rowReader struct {
	cols Columns
	row  domain.Row
}

func (r rowReader) cell(f caseField) domain.Cell {
	return r.cols.Lookup(r.row, caseFields[f]...)
}

func (r rowReader) text(f caseField) string {
	return r.cell(f).String()
}

func (r rowReader) seconds(f caseField) float64 {
	return DurationSeconds(r.cell(f))
}

// MapCase turns one data row into a case record. The boolean is false when
// the row has neither a category nor a date and so is not a case.
func MapCase(cols Columns, row domain.Row, rowIndex int) (domain.CaseRecord, bool) {
	r := rowReader{cols: cols, row: row}

	id := r.text(fieldID)
	if id == "" {
		id = fmt.Sprintf("ROW-%d", rowIndex)
	}

	date := resolveDate(r.cell(fieldDate))
	category := r.text(fieldCategory)
	if category == "" && date == "" {
		return domain.CaseRecord{}, false
	}

	callTime := r.seconds(fieldCallTime)
	answerTime := r.seconds(fieldAnswerTime)
	dispatch := r.seconds(fieldDispatch)
	arrival := r.seconds(fieldArrival)
	closure := r.seconds(fieldClosure)
	reason := r.text(fieldReason)

	rec := domain.CaseRecord{
		ID:                id,
		Date:              date,
		AmbulanceID:       r.text(fieldAmbulance),
		AgentWaitTime:     waitSeconds(callTime, answerTime),
		CallDuration:      DurationMinutesOrSeconds(r.cell(fieldDuration)),
		Status:            classifyStatus(category, reason, arrival, closure),
		ResponseTime:      elapsedMinutes(dispatch, arrival),
		CycleTime:         elapsedMinutes(dispatch, closure),
		CEmONCAccepted:    classifyFacility(r.text(fieldOutcome)),
		ReferringFacility: r.text(fieldFacility),
		Notes:             r.text(fieldRefusalNotes),
	}
	if rec.AmbulanceID == "" {
		rec.AmbulanceID = domain.NoAmbulance
	}
	return rec, true
}

func resolveDate(c domain.Cell) string {
	if c.IsNumber() && c.Num > serialDateFloor {
		return SerialToISODate(c.Num)
	}
	return c.String()
}

// waitSeconds is answer minus call when the answer comes later. A missing
// call time reads as 0, so an answer on its own counts from midnight.
func waitSeconds(call, answer float64) int {
	if answer > call {
		return int(math.Round(answer - call))
	}
	return 0
}

// elapsedMinutes is the whole-minute gap from start to end, or nil when
// either end is missing or the clock does not move forward.
func elapsedMinutes(start, end float64) *int {
	if start == 0 || end == 0 || end <= start {
		return nil
	}
	m := int(math.Round((end - start) / 60))
	return &m
}

// classifyStatus derives the case outcome. Unavailability is checked on both
// the category and the reason before any success wording is considered.
func classifyStatus(category, reason string, arrival, closure float64) domain.CaseStatus {
	cat := strings.ToLower(category)
	why := strings.ToLower(reason)

	switch {
	case strings.Contains(cat, "unavailable"), strings.Contains(cat, "refused"),
		strings.Contains(why, "unavailable"), strings.Contains(why, "occupied"):
		return domain.StatusRefused
	case strings.Contains(cat, "unsuccessful"):
		return domain.StatusUnsuccessful
	case strings.Contains(cat, "success"):
		return domain.StatusSuccessful
	case strings.Contains(cat, "cancel"):
		return domain.StatusCancelled
	case arrival > 0 && closure > 0:
		return domain.StatusSuccessful
	default:
		return domain.StatusOther
	}
}

// classifyFacility reads the receiving-facility outcome; nil means unstated.
func classifyFacility(outcome string) *bool {
	o := strings.ToLower(outcome)
	var accepted bool
	switch {
	case strings.Contains(o, "refused"):
		accepted = false
	case strings.Contains(o, "received"):
		accepted = true
	default:
		return nil
	}
	return &accepted
}
