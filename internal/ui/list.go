package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
)

var (
	_ list.Item = entryItem{}
)

// entryItem wraps [models.QueueItem] to implement [list.Item].
type entryItem struct {
	item    models.QueueItem
	playing bool
}

func (i entryItem) FilterValue() string {
	if i.item.Track == nil {
		return ""
	}
	return i.item.Track.DisplayName()
}

func (i entryItem) Title() string {
	name := i.FilterValue()
	if name == "" {
		name = "…"
	}
	if i.playing {
		return styles.playing.Render("▶ " + name)
	}
	return name
}

func (i entryItem) Description() string {
	parts := []string{fmt.Sprintf("#%d", i.item.ID)}
	if t := i.item.Track; t != nil {
		if t.Album != "" {
			parts = append(parts, t.Album)
		}
		if t.Duration > 0 {
			parts = append(parts, shared.FormatDuration(t.Duration))
		}
	}
	if i.item.Priority > 0 {
		parts = append(parts, fmt.Sprintf("prio %d", i.item.Priority))
	}
	return strings.Join(parts, " • ")
}

func entryItems(items []models.QueueItem, current uint32) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = entryItem{item: it, playing: current != 0 && it.ID == current}
	}
	return out
}
