package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"rimloc/internal/domain"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.Bold, color.FgRed).SprintFunc()
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func ok() string                { return green("[OK]") }
func warn(s string) string      { return yellow("[WARN]") + " " + s }
func hint(s string) string      { return faint(s) }
func heading(s string) string   { return cyan(s) }
func humanBytes(n int64) string { return humanize.Bytes(uint64(n)) }
func count(n int) string        { return humanize.Comma(int64(n)) }
func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// ErrorLine formats an error for the terminal.
func ErrorLine(err error) string { return red("[ERROR]") + " " + err.Error() }

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func statusColor(status string) string {
	switch status {
	case domain.StatusCompleted:
		return green(status)
	case domain.StatusFailed:
		return red(status)
	case domain.StatusSkipped:
		return faint(status)
	default:
		return yellow(status)
	}
}

func progressLine(st domain.Statistics) string {
	return fmt.Sprintf("%s/%s translated (%.1f%%), %s pending, %s skipped, %s failed",
		count(st.Completed), count(st.Total), st.Percent(), count(st.Pending), count(st.Skipped), count(st.Failed))
}

// clip shortens s to n runes on one line.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
