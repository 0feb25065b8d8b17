package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/mpq/internal/models"
)

var styles = newPalette()

// palette holds the named styles of the watcher. Colors adapt to light and dark terminals.
type palette struct {
	header  lipgloss.Style
	version lipgloss.Style
	playing lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	dim     lipgloss.Style
}

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func newPalette() *palette {
	return &palette{
		header:  lipgloss.NewStyle().Bold(true).Foreground(adaptive("#5A3FC0", "#7D56F4")).PaddingLeft(2),
		version: lipgloss.NewStyle().Foreground(adaptive("#04915E", "#04B575")),
		playing: lipgloss.NewStyle().Bold(true).Foreground(adaptive("#04915E", "#04B575")),
		err:     lipgloss.NewStyle().Bold(true).Foreground(adaptive("#C00000", "#FF5F5F")).Padding(1, 2),
		warn:    lipgloss.NewStyle().Foreground(adaptive("#B36B00", "#FFA500")).PaddingLeft(2),
		dim:     lipgloss.NewStyle().Italic(true).Foreground(adaptive("#9A9A9A", "#626262")).PaddingLeft(2),
	}
}

// status renders the one-line queue summary above the list.
func (p *palette) status(st models.QueueStatus) string {
	current := "stopped"
	if st.CurrentID != 0 {
		current = fmt.Sprintf("playing #%d", st.CurrentID)
	}
	return p.header.Render("mpq") + " " +
		p.version.Render(fmt.Sprintf("v%d.%d", st.Epoch, st.Version)) + " " +
		p.dim.Render(fmt.Sprintf("%d entries • %s", st.Length, current))
}
