package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

// view печатает результаты команд. Цвета включаются только для терминала.
type view struct {
	out    io.Writer
	id     lipgloss.Style
	status map[model.Status]lipgloss.Style
	muted  lipgloss.Style
}

func newView(out io.Writer) *view {
	r := lipgloss.NewRenderer(out)
	statusWidth := len("[in-progress]")

	return &view{
		out: out,
		id:  r.NewStyle().Bold(true),
		status: map[model.Status]lipgloss.Style{
			model.StatusTodo:       r.NewStyle().Width(statusWidth).Foreground(lipgloss.Color("11")),
			model.StatusInProgress: r.NewStyle().Width(statusWidth).Foreground(lipgloss.Color("12")),
			model.StatusDone:       r.NewStyle().Width(statusWidth).Foreground(lipgloss.Color("10")),
		},
		muted: r.NewStyle().Faint(true),
	}
}

func (v *view) tasks(tasks []model.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(v.out, "No tasks found")
		return err
	}

	for _, t := range tasks {
		line := fmt.Sprintf("%s %s %s %s",
			v.id.Render(fmt.Sprintf("%d:", t.ID)),
			v.status[t.Status].Render("["+t.Status.String()+"]"),
			t.Description,
			v.muted.Render(timestamps(t)),
		)
		if _, err := fmt.Fprintln(v.out, line); err != nil {
			return err
		}
	}
	return nil
}

func timestamps(t model.Task) string {
	if t.UpdatedAt.IsZero() {
		return fmt.Sprintf("(created %s)", t.CreatedAt)
	}
	return fmt.Sprintf("(created %s, updated %s)", t.CreatedAt, t.UpdatedAt)
}

func (v *view) tasksJSON(tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	enc := json.NewEncoder(v.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}

func (v *view) help(commands []*command) {
	fmt.Fprintln(v.out, "The CLI task manager to work with tasks")
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "Usage: task-cli [--file path] [--log-level level] <command> [args]")
	fmt.Fprintln(v.out, "Run without a command to start the interactive prompt.")
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "Commands:")

	tw := tabwriter.NewWriter(v.out, 2, 0, 3, ' ', 0)
	for _, cmd := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.usage, cmd.summary)
	}
	tw.Flush()
}
