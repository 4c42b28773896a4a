// Package web holds the embedded browser pages served by the playback proxy.
//
// Two pages exist:
//   - index.html: the control panel (setup, authorization, now playing, transport controls). It is static and talks
//     to the JSON API with fetch.
//   - setup.html: the mobile credential form opened from a pairing QR code, rendered per session with html/template.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templates embed.FS

// SetupPage is the data for the mobile credential form.
type SetupPage struct {
	SessionID string
	ExpiresIn int
	// Error replaces the form with a message, e.g. for expired sessions.
	Error string
}

// Pages renders the embedded templates.
type Pages struct {
	index []byte
	setup *template.Template
}

// Load parses the embedded templates.
func Load() (*Pages, error) {
	index, err := templates.ReadFile("templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read index page: %w", err)
	}

	setup, err := template.ParseFS(templates, "templates/setup.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse setup page: %w", err)
	}
	return &Pages{index: index, setup: setup}, nil
}

// MustLoad is [Load] for package initialization; the templates are compiled in, so failure is a build defect.
func MustLoad() *Pages {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
}

// Index writes the control panel.
func (p *Pages) Index(w io.Writer) error {
	_, err := w.Write(p.index)
	return err
}

// Setup renders the credential form into w. Rendering is buffered so a template error never leaves a partial page.
func (p *Pages) Setup(w io.Writer, data SetupPage) error {
	var buf bytes.Buffer
	if err := p.setup.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render setup page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
