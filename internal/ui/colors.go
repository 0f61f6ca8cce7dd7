package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/edbx/internal/waveform"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style

	// waveform bands, drawn low to high
	low  lipgloss.Style
	mid  lipgloss.Style
	high lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		low:   NewStyle("#3B82F6"),
		mid:   NewStyle(s),
		high:  NewStyle(w),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

var blocks = []rune("▁▂▃▄▅▆▇█")

// level maps a band value onto one of the block glyphs.
func level(v uint8) rune {
	return blocks[int(v)*len(blocks)/256]
}

// Sparkline draws one glyph per bar, coloured by its loudest band. An empty preview
// renders as a dim placeholder.
func Sparkline(bars []waveform.Bar) string {
	if len(bars) == 0 {
		return styles.help.Render("no waveform")
	}

	var b strings.Builder
	for _, bar := range bars {
		peak, style := bar.Low, styles.low
		if bar.Mid > peak {
			peak, style = bar.Mid, styles.mid
		}
		if bar.High > peak {
			peak, style = bar.High, styles.high
		}
		b.WriteString(style.Render(string(level(peak))))
	}
	return b.String()
}
