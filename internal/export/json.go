package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okarlsen/workcycle/internal/store"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Records    []jsonRecord `json:"records"`
}

type jsonRecord struct {
	Day           string `json:"day"`
	ActiveSeconds int64  `json:"active_seconds"`
	RestSeconds   int64  `json:"rest_seconds"`
	TotalSeconds  int64  `json:"total_seconds"`
	Total         string `json:"total"`
}

func ToJSON(records []store.DayRecord, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(records),
	}

	for _, r := range records {
		export.Records = append(export.Records, jsonRecord{
			Day:           r.Day,
			ActiveSeconds: r.ActiveSeconds,
			RestSeconds:   r.RestSeconds,
			TotalSeconds:  r.TotalSeconds,
			Total:         formatDuration(r.TotalSeconds),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
