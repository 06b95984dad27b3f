package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Output receives all styled messages.
var Output io.Writer = os.Stderr

// Redirect sends styled output to w until the returned function is called.
func Redirect(w io.Writer) (restore func()) {
	prev := Output
	Output = w
	return func() { Output = prev }
}

// Color palette
var (
	colorPrimary = lipgloss.Color("#7C3AED") // violet

	colorSuccess = lipgloss.Color("#10B981") // emerald
	colorError   = lipgloss.Color("#EF4444") // red
	colorWarning = lipgloss.Color("#F59E0B") // amber
	colorInfo    = lipgloss.Color("#3B82F6") // blue

	colorMuted  = lipgloss.Color("#6B7280") // gray-500
	colorSubtle = lipgloss.Color("#9CA3AF") // gray-400
	colorText   = lipgloss.Color("#F9FAFB") // gray-50
)

// Styles
var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)

	styleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	stylePrimary = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	styleLabel = lipgloss.NewStyle().Foreground(colorSubtle).Width(18)
	styleValue = lipgloss.NewStyle().Foreground(colorText)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)
)

// Icons
const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "●"
	iconArrow   = "→"
	iconBullet  = "•"
)

// Prefix functions return styled prefix strings.
func SuccessPrefix() string { return styleSuccess.Render(iconSuccess) }
func ErrorPrefix() string   { return styleError.Render(iconError) }
func WarnPrefix() string    { return styleWarn.Render(iconWarning) }
func InfoPrefix() string    { return styleInfo.Render(iconInfo) }

// Success prints a success message.
func Success(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", SuccessPrefix(), fmt.Sprintf(msg, args...))
}

// Error prints an error message.
func Error(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", ErrorPrefix(), fmt.Sprintf(msg, args...))
}

// Warn prints a warning message.
func Warn(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", WarnPrefix(), fmt.Sprintf(msg, args...))
}

// Info prints an info message.
func Info(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", InfoPrefix(), fmt.Sprintf(msg, args...))
}

// Step prints a step message with indentation.
func Step(msg string, args ...any) {
	fmt.Fprintf(Output, "  %s %s\n", styleDim.Render(iconBullet), fmt.Sprintf(msg, args...))
}

// Label prints a key-value pair with consistent formatting.
func Label(key, value string) {
	fmt.Fprintf(Output, "  %s %s\n", styleLabel.Render(key), styleValue.Render(value))
}

// List prints a key followed by one indented line per item.
func List(key string, items []string) {
	if len(items) == 0 {
		Label(key, styleDim.Render("(empty)"))
		return
	}
	fmt.Fprintf(Output, "  %s\n", styleLabel.Render(key))
	for _, item := range items {
		fmt.Fprintf(Output, "    %s\n", styleValue.Render(item))
	}
}

// Header prints a section header.
func Header(title string) {
	fmt.Fprintf(Output, "\n%s\n", styleHeader.Render(title))
}

// Profile prints a configuration profile header.
func Profile(idx, total int, name, platform string) {
	title := platform
	if name != "" {
		title = name + " (" + platform + ")"
	}
	if total > 1 {
		counter := styleDim.Render(fmt.Sprintf("[%d/%d]", idx+1, total))
		fmt.Fprintf(Output, "\n%s %s\n", counter, stylePrimary.Render(title))
		return
	}
	fmt.Fprintf(Output, "\n%s %s\n", styleInfo.Render(iconArrow), stylePrimary.Render(title))
}

// Check prints the outcome of a toolchain check.
func Check(found bool, name, path string) {
	prefix := SuccessPrefix()
	if !found {
		prefix = ErrorPrefix()
	}
	fmt.Fprintf(Output, "  %s %s %s\n", prefix, styleLabel.Render(name), path)
}

// ----------------------------------------------------------------------------
// Table
// ----------------------------------------------------------------------------

// Table renders a simple table.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, cols)
}

// Render prints the table.
func (t *Table) Render() {
	fmt.Fprintf(Output, "  %s\n", styleDim.Render(t.line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	fmt.Fprintf(Output, "  %s\n", styleDim.Render(strings.Join(sep, "  ")))

	for _, row := range t.rows {
		fmt.Fprintf(Output, "  %s\n", t.line(row))
	}
}

func (t *Table) line(cols []string) string {
	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteString("  ")
		}
		if i < len(t.widths) && i < len(cols)-1 {
			fmt.Fprintf(&b, "%-*s", t.widths[i], col)
		} else {
			b.WriteString(col)
		}
	}
	return b.String()
}
