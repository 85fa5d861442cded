package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/consync/consync/internal/plan"
)

var (
	styleCreate = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleUpdate = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	styleMove   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	styleDelete = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleSkip   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func kindStyle(k plan.Kind) lipgloss.Style {
	switch k {
	case plan.Create:
		return styleCreate
	case plan.Update:
		return styleUpdate
	case plan.Move:
		return styleMove
	case plan.Delete:
		return styleDelete
	default:
		return styleSkip
	}
}

func actionLabel(a plan.SyncAction) string {
	if node := a.Node(); node != nil && node.Document != nil {
		return node.Document.PathString()
	}
	return a.RelativePath()
}

// writePlan renders a SyncPlan the way a CLI diff preview conventionally
// does: one styled line per action, then a summary count by kind.
func writePlan(out io.Writer, p plan.SyncPlan) {
	for _, a := range p.Actions {
		style := kindStyle(a.Kind())
		fmt.Fprintf(out, "%s %s  %s\n", style.Render(string(a.Kind())), actionLabel(a), styleDim.Render(a.Reason()))
	}

	counts := p.Counts()
	summary := make([]string, 0, len(counts))
	for _, k := range []plan.Kind{plan.Create, plan.Update, plan.Move, plan.Delete, plan.Skip} {
		if n := counts[k]; n > 0 {
			summary = append(summary, kindStyle(k).Render(fmt.Sprintf("%d %s", n, strings.ToLower(string(k)))))
		}
	}
	if len(summary) == 0 {
		fmt.Fprintln(out, styleDim.Render("no changes"))
		return
	}
	fmt.Fprintln(out, strings.Join(summary, ", "))
}
