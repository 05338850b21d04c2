package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/klix/internal/events"
	"github.com/dustin/go-humanize"
)

var (
	_ list.Item = eventItem{}
)

// eventItem wraps [events.Event] to implement [list.Item].
type eventItem struct {
	event events.Event
	now   time.Time
}

func (i eventItem) FilterValue() string {
	return string(i.event.Kind) + " " + i.event.Message + " " + i.fields()
}

func (i eventItem) Title() string {
	label := styles.Kind(i.event.Kind).Render(string(i.event.Kind))
	if i.event.Message == "" {
		return label
	}
	return fmt.Sprintf("%s • %s", label, i.event.Message)
}

func (i eventItem) Description() string {
	desc := fmt.Sprintf("#%d %s", i.event.Sequence, humanize.RelTime(i.event.Time, i.now, "ago", "from now"))
	if f := i.fields(); f != "" {
		desc = fmt.Sprintf("%s • %s", desc, f)
	}
	return desc
}

// fields renders the event metadata as sorted key=value pairs.
func (i eventItem) fields() string {
	keys := slices.Sorted(maps.Keys(i.event.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+i.event.Fields[k])
	}
	return strings.Join(parts, " ")
}
