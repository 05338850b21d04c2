package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/klix/internal/events"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEventReceived MsgKind = iota
	MsgStreamClosed
)

// eventReceivedMsg is the constructor for [MsgEventReceived]
func eventReceivedMsg(evt events.Event) Msg {
	return Msg{kind: MsgEventReceived, data: evt}
}

// streamClosedMsg is the constructor for [MsgStreamClosed]
func streamClosedMsg() Msg {
	return Msg{kind: MsgStreamClosed}
}
