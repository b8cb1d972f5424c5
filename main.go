package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/okarlsen/workcycle/internal/config"
	"github.com/okarlsen/workcycle/internal/engine"
	"github.com/okarlsen/workcycle/internal/export"
	"github.com/okarlsen/workcycle/internal/notify"
	"github.com/okarlsen/workcycle/internal/session"
	"github.com/okarlsen/workcycle/internal/store"
)

var (
	countdownStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF"))
	phaseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml (default: user config dir)")
		activeMin  = flag.Int("active", 0, "active phase length in minutes (overrides config)")
		restMin    = flag.Int("rest", 0, "rest phase length in minutes (overrides config)")
		showTotal  = flag.Bool("total", false, "print today's total and exit")
		exportJSON = flag.String("export-json", "", "write all day records to a JSON file and exit")
		exportCSV  = flag.String("export-csv", "", "write all day records to a CSV file and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *activeMin, *restMin, *showTotal, *exportJSON, *exportCSV, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, activeMin, restMin int, showTotal bool, exportJSON, exportCSV string, logger *slog.Logger) error {
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if activeMin > 0 {
		cfg.ActiveMinutes = activeMin
	}
	if restMin > 0 {
		cfg.RestMinutes = restMin
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if exportJSON != "" || exportCSV != "" {
		return runExport(s, exportJSON, exportCSV)
	}

	settings := notify.NewSettingsStore(s, logger)
	channels := notify.NewConsoleChannels(os.Stdout)
	notifier := notify.NewNotifier(settings, channels, channels, logger)

	eng := engine.New(engine.Config{
		ActiveDuration: cfg.ActiveDuration(),
		RestDuration:   cfg.RestDuration(),
		PollInterval:   cfg.PollInterval(),
	})
	ctrl := session.New(eng, s, notifier, logger)

	if showTotal {
		fmt.Println(ctrl.DailyTotalFormatted())
		return nil
	}

	return runSession(ctrl)
}

func runExport(s *store.Store, jsonPath, csvPath string) error {
	records, err := s.GetAllRecords()
	if err != nil {
		return err
	}
	if jsonPath != "" {
		if err := export.ToJSON(records, jsonPath); err != nil {
			return err
		}
	}
	if csvPath != "" {
		if err := export.ToCSV(records, csvPath); err != nil {
			return err
		}
	}
	return nil
}

func runSession(ctrl *session.Controller) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	remaining := ctrl.SubscribeRemaining(8)
	ctrl.Start()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			ctrl.Stop()
			fmt.Printf("today: %s\n", ctrl.DailyTotalFormatted())
			return nil
		case r := <-remaining:
			fmt.Printf("\r%s %s  ",
				phaseStyle.Render("remaining"),
				countdownStyle.Render(formatCountdown(r)),
			)
		}
	}
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
