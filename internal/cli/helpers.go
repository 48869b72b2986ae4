package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/andy/timebill/internal/domain"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

func successf(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ "+format, args...)))
}

// printFieldErrors renders a validation failure per field, in the
// style the rest of the CLI uses for errors.
func printFieldErrors(ferrs domain.FieldErrors) {
	fmt.Println(errorStyle.Render("Validation failed:"))
	fmt.Println("  " + ferrs.Error())
}

// parseDate parses a date string in various formats
func parseDate(s string) (time.Time, error) {
	switch s {
	case "today":
		return localDate(time.Now()), nil
	case "yesterday":
		return localDate(time.Now()).AddDate(0, 0, -1), nil
	default:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("expected format: YYYY-MM-DD, 'today', or 'yesterday'")
		}
		return t, nil
	}
}

// localDate strips the time of day, keeping the local calendar date.
func localDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
