package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mpq/internal/models"
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
	MsgChangesFetched MsgKind = iota
	MsgQueueIdle
	MsgCommandDone
)

type changesFetched struct {
	changes models.ChangeSet
	err     error
}

type queueIdle struct {
	status models.QueueStatus
	err    error
}

type commandDone struct {
	name string
	err  error
}

// changesFetchedMsg is the constructor for [MsgChangesFetched]
func changesFetchedMsg(cs models.ChangeSet, err error) Msg {
	return Msg{kind: MsgChangesFetched, data: changesFetched{cs, err}}
}

// queueIdleMsg is the constructor for [MsgQueueIdle]
func queueIdleMsg(st models.QueueStatus, err error) Msg {
	return Msg{kind: MsgQueueIdle, data: queueIdle{st, err}}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(name string, err error) Msg {
	return Msg{kind: MsgCommandDone, data: commandDone{name, err}}
}
