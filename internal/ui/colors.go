package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/klix/internal/events"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	banner lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		banner: NewBold("#FFFFFF").Background(lipgloss.Color(e)).Padding(0, 1),
	}
}

// Kind picks the style used for an event kind's label.
func (p *Palette) Kind(k events.Kind) lipgloss.Style {
	switch k {
	case events.WebhookIssued, events.Registration:
		return p.ok
	case events.WebhookFailed, events.CredentialFailed:
		return p.err
	case events.WebhookSkipped:
		return p.warn
	default:
		return p.help
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
