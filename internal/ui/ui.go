package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/setup"
	"github.com/desertthunder/spotctl/internal/shared"
)

// DefaultPollInterval is how often the session status is checked while waiting.
const DefaultPollInterval = 2 * time.Second

// ErrCancelled is returned by [Model.Result] when the user quits before pairing finished.
var ErrCancelled = errors.New("pairing cancelled")

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GeneratingView ViewState = iota
	WaitingView
	CompletingView
	DoneView
	ExpiredView
	ErrorView
)

// PairingClient is the part of the server API the pairing screen needs. [services.APIService] implements it.
type PairingClient interface {
	GeneratePairing(ctx context.Context) (*models.QRSession, error)
	PairingStatus(ctx context.Context, id string) (*models.QRStatus, error)
	CompletePairing(ctx context.Context, id string) error
}

var _ PairingClient = (*services.APIService)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	client   PairingClient
	view     ViewState
	interval time.Duration
	session  *models.QRSession
	qr       string
	status   *models.QRStatus
	err      error
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a pairing screen. A non-positive interval uses [DefaultPollInterval].
func NewModel(ctx context.Context, client PairingClient, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Model{
		ctx:      ctx,
		client:   client,
		view:     GeneratingView,
		interval: interval,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the spinner and requests a pairing session.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.generate())
}

// State returns the current view.
func (m *Model) State() ViewState {
	return m.view
}

// Result reports how pairing ended once the program has exited.
func (m *Model) Result() error {
	switch m.view {
	case DoneView:
		return nil
	case ExpiredView:
		return shared.ErrSessionNotFound
	case ErrorView:
		return m.err
	default:
		return ErrCancelled
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgSessionCreated:
			return m.onSessionCreated(msg.data.(sessionCreated))
		case MsgTick:
			if !m.current(msg.data.(string)) {
				return m, nil
			}
			return m, m.poll(m.session.SessionID)
		case MsgStatusPolled:
			return m.onStatus(msg.data.(statusPolled))
		case MsgPairingComplete:
			if err, _ := msg.data.(error); err != nil {
				m.fail(err)
				return m, nil
			}
			m.view = DoneView
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		switch m.view {
		case WaitingView, ExpiredView, ErrorView:
			m.reset()
			return m, m.generate()
		}
	}
	return m, nil
}

func (m *Model) onSessionCreated(d sessionCreated) (tea.Model, tea.Cmd) {
	if d.err != nil {
		m.fail(d.err)
		return m, nil
	}
	m.session = d.session
	m.qr = d.qr
	m.status = &models.QRStatus{Status: string(setup.StatusPending), ExpiresIn: d.session.ExpiresIn}
	m.view = WaitingView
	return m, m.tick(d.session.SessionID)
}

func (m *Model) onStatus(d statusPolled) (tea.Model, tea.Cmd) {
	if !m.current(d.id) {
		return m, nil
	}

	switch {
	case d.err != nil && isNotFound(d.err):
		m.view = ExpiredView
		return m, nil
	case d.err != nil:
		m.fail(d.err)
		return m, nil
	case d.status.CredentialsReceived:
		m.status = d.status
		m.view = CompletingView
		return m, m.complete(d.id)
	case d.status.ExpiresIn <= 0:
		m.view = ExpiredView
		return m, nil
	}

	m.status = d.status
	return m, m.tick(d.id)
}

// current reports whether id belongs to the session being waited on.
func (m *Model) current(id string) bool {
	return m.view == WaitingView && m.session != nil && m.session.SessionID == id
}

func (m *Model) reset() {
	m.view = GeneratingView
	m.session = nil
	m.qr = ""
	m.status = nil
	m.err = nil
}

func (m *Model) fail(err error) {
	m.err = err
	m.view = ErrorView
}

func isNotFound(err error) bool {
	var apiErr *services.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (m *Model) generate() tea.Cmd {
	return func() tea.Msg {
		session, err := m.client.GeneratePairing(m.ctx)
		if err != nil {
			return sessionCreatedMsg(nil, "", err)
		}
		qr, err := setup.Terminal(session.SetupURL)
		return sessionCreatedMsg(session, qr, err)
	}
}

func (m *Model) tick(id string) tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg(id) })
}

func (m *Model) poll(id string) tea.Cmd {
	return func() tea.Msg {
		status, err := m.client.PairingStatus(m.ctx, id)
		return statusPolledMsg(id, status, err)
	}
}

func (m *Model) complete(id string) tea.Cmd {
	return func() tea.Msg {
		return pairingCompleteMsg(m.client.CompletePairing(m.ctx, id))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case GeneratingView:
		return fmt.Sprintf("%s Creating pairing session…\n", m.spinner.View())
	case WaitingView:
		return m.renderWaiting()
	case CompletingView:
		return fmt.Sprintf("%s Credentials received, saving…\n", m.spinner.View())
	case DoneView:
		return styles.ok.Render("✓ Credentials saved.") + "\n" +
			styles.help.Render("Run `spotctl auth login` to authorize playback.") + "\n"
	case ExpiredView:
		return fmt.Sprintf("%s\n\n%s\n", styles.warn.Render("Pairing session expired."), m.help.ShortHelpView(m.keys.ShortHelp()))
	case ErrorView:
		return fmt.Sprintf("%s\n\n%s\n", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), m.help.ShortHelpView(m.keys.ShortHelp()))
	default:
		return ""
	}
}

func (m *Model) renderWaiting() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Scan with your phone to enter Spotify credentials"))
	b.WriteString("\n")
	b.WriteString(styles.code.Render(strings.TrimRight(m.qr, "\n")))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Or open %s\n\n", m.session.SetupURL)

	left := time.Duration(m.status.ExpiresIn) * time.Second
	fmt.Fprintf(&b, "%s Waiting for credentials (expires in %s)\n\n", m.spinner.View(), left)
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	b.WriteString("\n")
	return b.String()
}
