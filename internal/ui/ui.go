// Package ui formats the output of the interactive shell.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette of the shell.
var (
	ColorRed         = lipgloss.Color("#FF0000")
	ColorLightRed    = lipgloss.Color("#FF9696")
	ColorGreen       = lipgloss.Color("#00FF00")
	ColorLightGreen  = lipgloss.Color("#96FF96")
	ColorLightYellow = lipgloss.Color("#FFFF96")
	ColorYellow      = lipgloss.Color("#FFFF00")
	ColorLightOrange = lipgloss.Color("#FFC896")
	ColorOrange      = lipgloss.Color("#FFA500")
	ColorBrown       = lipgloss.Color("#A52A2A")
	ColorLightBlue   = lipgloss.Color("#9696FF")
	ColorLightPurple = lipgloss.Color("#C896FF")
	ColorGray        = lipgloss.Color("#969696")
	ColorWhite       = lipgloss.Color("#FFFFFF")
)

// Style returns a foreground style in color.
func Style(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color)
}

// UI writes styled messages. With color disabled styles are ignored, which
// keeps output stable for pipes and tests.
type UI struct {
	writer   io.Writer
	useColor bool
}

func NewUI(w io.Writer, useColor bool) *UI {
	return &UI{writer: w, useColor: useColor}
}

// Writer returns the underlying writer.
func (u *UI) Writer() io.Writer {
	return u.writer
}

func (u *UI) colorize(message string, style lipgloss.Style) string {
	if !u.useColor {
		return message
	}
	return style.Render(message)
}

func (u *UI) Print(message string) {
	fmt.Fprint(u.writer, message)
}

func (u *UI) Printf(format string, args ...interface{}) {
	fmt.Fprintf(u.writer, format, args...)
}

func (u *UI) Println(message string) {
	fmt.Fprintln(u.writer, message)
}

// Message prints a formatted line.
func (u *UI) Message(format string, args ...interface{}) {
	u.Println(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (u *UI) PrintColored(message string, color lipgloss.Color) {
	u.Print(u.colorize(message, Style(color)))
}

func (u *UI) PrintlnColored(message string, color lipgloss.Color) {
	u.Println(u.colorize(message, Style(color)))
}

func (u *UI) Error(message string) {
	u.Println(u.colorize("!", Style(ColorRed)) + " " + u.colorize(message, Style(ColorLightOrange)))
}

func (u *UI) Success(message string) {
	u.PrintlnColored(message, ColorLightGreen)
}

func (u *UI) Warning(message string) {
	u.Println(u.colorize("?", Style(ColorLightRed)) + " " + u.colorize(message, Style(ColorLightYellow)))
}

func (u *UI) Info(message string) {
	u.PrintlnColored(message, ColorGray)
}

// Prompt builds the shell prompt from the target and the chart type.
func (u *UI) Prompt(target, chartType string) string {
	var b strings.Builder
	if target != "" {
		b.WriteString(u.colorize(target, Style(ColorLightBlue)))
		if chartType != "" {
			b.WriteString(u.colorize(" @ ", Style(ColorWhite)))
			b.WriteString(u.colorize(chartType, Style(ColorLightPurple)))
		}
		b.WriteString(" ")
	}
	b.WriteString(u.colorize("> ", Style(ColorGreen)))
	return b.String()
}
