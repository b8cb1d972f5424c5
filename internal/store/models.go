package store

// Kind tags which phase counter a delta belongs to.
type Kind string

const (
	KindActive Kind = "active"
	KindRest   Kind = "rest"
)

// DayRecord is the per-day accumulation row, keyed by calendar day.
// TotalSeconds is always ActiveSeconds + RestSeconds.
type DayRecord struct {
	Day           string // YYYY-MM-DD
	ActiveSeconds int64
	RestSeconds   int64
	TotalSeconds  int64
}
