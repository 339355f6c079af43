package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	groupStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keysStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// printer writes command output, styled only when w is a terminal.
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, styled: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *printer) printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

// table prints rows in aligned columns. Each column may carry a style,
// applied after padding is computed so escape codes never skew widths.
func (p *printer) table(headers []string, styles []lipgloss.Style, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, styleFor func(int) lipgloss.Style) {
		var b strings.Builder
		for i, cell := range cells {
			pad := ""
			if i < len(cells)-1 {
				pad = strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2)
			}
			b.WriteString(p.style(styleFor(i), cell))
			b.WriteString(pad)
		}
		p.println(strings.TrimRight(b.String(), " "))
	}

	line(headers, func(int) lipgloss.Style { return headerStyle })
	for _, row := range rows {
		line(row, func(i int) lipgloss.Style {
			if i < len(styles) {
				return styles[i]
			}
			return lipgloss.NewStyle()
		})
	}
}
