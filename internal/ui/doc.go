// Package ui implements the terminal pairing screen using bubbletea's Elm architecture.
//
// The TUI walks through a QR pairing session against a running server:
//  1. [GeneratingView] : ask the server for a pairing session
//  2. [WaitingView] : show the QR code in the terminal and poll until the phone has sent credentials
//  3. [CompletingView] : pull the credentials into the server config
//  4. [DoneView], [ExpiredView], [ErrorView] : terminal states
//
// The [Model] implements the standard Init/Update/View pattern, receiving messages via the Msg union type. Polling is
// driven by tea.Tick, so nothing runs in the background once the program exits.
package ui
