package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/okarlsen/workcycle/internal/store"
)

func ToCSV(records []store.DayRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Day", "Active (s)", "Rest (s)", "Total (s)", "Total"}); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Day,
			fmt.Sprintf("%d", r.ActiveSeconds),
			fmt.Sprintf("%d", r.RestSeconds),
			fmt.Sprintf("%d", r.TotalSeconds),
			formatDuration(r.TotalSeconds),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
