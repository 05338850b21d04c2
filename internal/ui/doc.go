// Package ui implements a live terminal monitor for dispatch events using bubbletea's Elm architecture.
//
// The monitor has two views:
//  1. [EventListView] : Newest-first list of bus events with per-kind counters
//  2. [DetailView] : All metadata of the selected event
//
// A credential-failure event raises a banner that stays until the list is cleared, so an expired API key is
// noticed even when the event itself scrolls away.
//
// Events arrive on a channel, either a local [events.Bus] subscription or a remote server's websocket stream
// opened with [Dial]. The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving
// messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
