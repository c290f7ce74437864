package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dialoguegraph/pkg/pipeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // node ids, headings
	colorGreen  = lipgloss.Color("35")  // success, cache hits
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // suggested commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text, borders
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim       = lipgloss.NewStyle().Foreground(colorDim)
	styleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	styleCommand   = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey       = lipgloss.NewStyle().Foreground(colorGray).Width(12)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Lines
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleWarning.Render(iconWarning) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + styleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + styleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + styleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(styleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Export Summary
// =============================================================================

// printStats prints one summary line for an export run, e.g.
// "4 nodes · 3 edges · svg cached · 12ms".
func printStats(result *pipeline.Result) {
	fmt.Println("  " + styleDim.Render(statsLine(result)))
}

func statsLine(result *pipeline.Result) string {
	parts := []string{
		plural(result.Stats.NodeCount, "node"),
		plural(result.Stats.EdgeCount, "edge"),
	}
	if len(result.CacheHits) > 0 {
		parts = append(parts, strings.Join(result.CacheHits, ",")+" cached")
	}
	if d := result.Stats.LoadTime + result.Stats.RenderTime; d > 0 {
		parts = append(parts, d.Round(time.Millisecond).String())
	}
	return strings.Join(parts, " · ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// =============================================================================
// Tables
// =============================================================================

// renderTable renders rows under headers with a rounded border. The first
// column holds ids and is highlighted.
func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return styleHighlight
			}
			return styleValue
		}).
		Render()
}
