package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record exists for the requested day.
var ErrNotFound = errors.New("record not found")

// ApplyDelta adds seconds to the counter matching kind for the given day,
// creating a zeroed record first if none exists. The read-modify-write is a
// single upsert statement, so two deltas for the same day can never
// interleave. Applying the same delta twice double-counts; callers must
// deliver each elapsed second exactly once.
func (s *Store) ApplyDelta(kind Kind, seconds int64, day string) error {
	if seconds <= 0 {
		return fmt.Errorf("apply delta for %s: seconds must be positive, got %d", day, seconds)
	}

	var active, rest int64
	switch kind {
	case KindActive:
		active = seconds
	case KindRest:
		rest = seconds
	default:
		return fmt.Errorf("apply delta for %s: unknown kind %q", day, kind)
	}

	_, err := s.db.Exec(
		`INSERT INTO day_records (day, active_seconds, rest_seconds, total_seconds)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET
			active_seconds = day_records.active_seconds + excluded.active_seconds,
			rest_seconds   = day_records.rest_seconds + excluded.rest_seconds,
			total_seconds  = day_records.total_seconds + excluded.total_seconds`,
		day, active, rest, active+rest,
	)
	if err != nil {
		return fmt.Errorf("apply delta for %s: %w", day, err)
	}
	return nil
}

// GetRecord returns the record for the given day key, or ErrNotFound.
func (s *Store) GetRecord(day string) (*DayRecord, error) {
	r := &DayRecord{}
	err := s.db.QueryRow(
		`SELECT day, active_seconds, rest_seconds, total_seconds
		 FROM day_records WHERE day = ?`, day,
	).Scan(&r.Day, &r.ActiveSeconds, &r.RestSeconds, &r.TotalSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %s: %w", day, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", day, err)
	}
	return r, nil
}

// GetAllRecords returns every stored day record. Order is unspecified.
func (s *Store) GetAllRecords() ([]DayRecord, error) {
	rows, err := s.db.Query(
		`SELECT day, active_seconds, rest_seconds, total_seconds FROM day_records`,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []DayRecord
	for rows.Next() {
		var r DayRecord
		if err := rows.Scan(&r.Day, &r.ActiveSeconds, &r.RestSeconds, &r.TotalSeconds); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
