package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/dairui1/vibetunnel/pkg/sessions"
)

// PrintJSON writes v as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// SessionTable renders sessions in a bordered table. Rows keep the order of
// the slice.
func SessionTable(list []*sessions.Session, now time.Time) string {
	rows := make([][]string, 0, len(list))
	statuses := make([]string, 0, len(list))
	for _, s := range list {
		rec := s.Record
		if rec == nil {
			rec = &sessions.Record{}
		}
		rows = append(rows, []string{
			s.ID,
			rec.Name,
			string(rec.Status),
			formatPid(rec),
			formatAge(now, rec.StartedAt),
			strings.Join(rec.Cmdline, " "),
		})
		statuses = append(statuses, string(rec.Status))
	}

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "NAME", "STATUS", "PID/EXIT", "STARTED", "COMMAND").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == ltable.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 2 && row >= 0 && row < len(statuses) {
				return StatusStyle(statuses[row]).Padding(0, 1)
			}
			return base
		})
	return t.String()
}

// SessionDetail renders one session as aligned key/value lines.
func SessionDetail(s *sessions.Session, paths sessions.Paths) string {
	rec := s.Record
	if rec == nil {
		rec = &sessions.Record{}
	}
	key := lipgloss.NewStyle().Foreground(palette.Muted).Width(14)
	lines := []string{
		key.Render("id") + s.ID,
		key.Render("name") + rec.Name,
		key.Render("status") + StatusStyle(string(rec.Status)).Render(string(rec.Status)),
		key.Render("pid/exit") + formatPid(rec),
		key.Render("command") + strings.Join(rec.Cmdline, " "),
		key.Render("cwd") + rec.Cwd,
		key.Render("started") + formatTime(rec.StartedAt),
		key.Render("last output") + formatTime(s.LastModified),
		key.Render("dir") + italicStyle.Render(paths.Dir),
	}
	return strings.Join(lines, "\n")
}

func formatPid(rec *sessions.Record) string {
	switch {
	case rec.Status == sessions.StatusExited && rec.ExitCode != nil:
		return "exit " + strconv.Itoa(*rec.ExitCode)
	case rec.Pid != nil:
		return strconv.Itoa(*rec.Pid)
	}
	return "-"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatAge renders a coarse relative time such as "5m ago".
func formatAge(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
