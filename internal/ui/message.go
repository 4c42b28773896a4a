package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotctl/internal/models"
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
	MsgSessionCreated MsgKind = iota
	MsgStatusPolled
	MsgPairingComplete
	MsgTick
)

type sessionCreated struct {
	session *models.QRSession
	qr      string
	err     error
}

type statusPolled struct {
	id     string
	status *models.QRStatus
	err    error
}

// sessionCreatedMsg is the constructor for [MsgSessionCreated]
func sessionCreatedMsg(session *models.QRSession, qr string, err error) Msg {
	return Msg{kind: MsgSessionCreated, data: sessionCreated{session, qr, err}}
}

// statusPolledMsg is the constructor for [MsgStatusPolled]. id ties the answer to the session it was asked for.
func statusPolledMsg(id string, status *models.QRStatus, err error) Msg {
	return Msg{kind: MsgStatusPolled, data: statusPolled{id, status, err}}
}

// pairingCompleteMsg is the constructor for [MsgPairingComplete]
func pairingCompleteMsg(err error) Msg {
	return Msg{kind: MsgPairingComplete, data: err}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(id string) Msg {
	return Msg{kind: MsgTick, data: id}
}
