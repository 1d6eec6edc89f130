package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"blogsched/internal/model"
)

var (
	okColor    = color.New(color.FgHiGreen)
	warnColor  = color.New(color.FgYellow)
	dimColor   = color.New(color.FgHiBlack)
	titleColor = color.New(color.Bold)
)

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusProposed:
		return "⏳"
	case model.StatusApproved:
		return "✅"
	case model.StatusGenerated:
		return "📝"
	case model.StatusPublished:
		return "📰"
	case model.StatusSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusApproved:
		return color.New(color.FgHiGreen)
	case model.StatusProposed:
		return color.New(color.FgYellow)
	case model.StatusGenerated, model.StatusPublished:
		return color.New(color.FgHiBlue)
	default:
		return dimColor
	}
}

func printEntry(w io.Writer, e model.ScheduleEntry) {
	fmt.Fprintf(w, "%s %s (%s)\n", statusIcon(e.Status), titleColor.Sprint(e.Date), e.DayName())
	fmt.Fprintf(w, "   Topic: %s\n", e.Topic)
	if e.Focus != "" {
		fmt.Fprintf(w, "   Focus: %s\n", e.Focus)
	}
	fmt.Fprintf(w, "   Status: %s\n", statusColor(e.Status).Sprint(string(e.Status)))
	if e.ResearchNotes != "" {
		fmt.Fprintf(w, "   Research: %s\n", e.ResearchNotes)
	}
	if n := len(e.Alternatives); n > 0 {
		fmt.Fprintf(w, "   Alternatives: %d options\n", n)
		for i, alt := range e.Alternatives {
			fmt.Fprintf(w, "     %s %s\n", dimColor.Sprintf("%d.", i+1), alt.Topic)
		}
	}
	fmt.Fprintln(w)
}

func done(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okColor.Sprint("✅ ")+fmt.Sprintf(format, args...))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
