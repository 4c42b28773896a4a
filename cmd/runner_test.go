package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	tu "github.com/desertthunder/spotctl/internal/testing"
	"github.com/desertthunder/spotctl/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// request is a call seen by the stub server.
type request struct {
	Method string
	Path   string
	Body   string
}

// stubServer answers API calls from a route table keyed by "METHOD /path".
type stubServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []request
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newStubServer(t *testing.T) *stubServer {
	t.Helper()
	s := &stubServer{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		fn, ok := s.routes[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"success":true}`))
			return
		}
		fn(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) on(pattern string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[pattern] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func (s *stubServer) last() request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return request{}
	}
	return s.requests[len(s.requests)-1]
}

type harness struct {
	runner *Runner
	output *bytes.Buffer
	dir    string
	opened []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{output: &bytes.Buffer{}, dir: t.TempDir()}
	h.runner = NewRunner(RunnerOpts{
		Logger: shared.NewLogger(io.Discard),
		Output: h.output,
		OpenBrowser: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
	})
	return h
}

func (h *harness) configPath() string { return filepath.Join(h.dir, "config.json") }
func (h *harness) cachePath() string  { return filepath.Join(h.dir, "token.json") }

// run executes args against a fresh command tree, pointing the global flags at the harness directory.
func (h *harness) run(t *testing.T, serverURL string, args ...string) error {
	t.Helper()
	h.runner.api = nil
	app := &cli.Command{
		Name:     "spotctl",
		Flags:    h.runner.globalFlags(),
		Before:   h.runner.before,
		Commands: h.runner.register(),
	}
	full := append([]string{
		"spotctl",
		"--config", h.configPath(),
		"--token-cache", h.cachePath(),
		"--log-level", "error",
		"--server", serverURL,
	}, args...)
	return app.Run(context.Background(), full)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			env := &shared.Env{ConfigPath: "x.toml", UpstreamTimeout: time.Second}
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Env:        env,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
			})

			if runner.env != env {
				t.Error("expected env to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil env uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.env == nil {
				t.Fatal("expected default env to be set")
			}
			if runner.env.ConfigPath != shared.DefaultConfigPath {
				t.Errorf("expected default config path, got %s", runner.env.ConfigPath)
			}
			if runner.env.ServerURL != services.DefaultServerURL {
				t.Errorf("expected default server url, got %s", runner.env.ServerURL)
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient outlives the upstream timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Env: &shared.Env{UpstreamTimeout: 3 * time.Second},
			})

			if runner.httpClient.Timeout != 3*time.Second+serverGrace {
				t.Errorf("unexpected client timeout %v", runner.httpClient.Timeout)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln appends a newline", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "done\n" {
				t.Errorf("expected 'done\\n', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "config", "auth", "pair", "player", "api"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})

	t.Run("before", func(t *testing.T) {
		t.Run("rejects unknown log level", func(t *testing.T) {
			h := newHarness(t)
			app := &cli.Command{Name: "spotctl", Flags: h.runner.globalFlags(), Before: h.runner.before}

			err := app.Run(context.Background(), []string{"spotctl", "--log-level", "loud"})
			if err == nil {
				t.Fatal("expected an error for an unknown level")
			}
		})

		t.Run("builds the API client from --server", func(t *testing.T) {
			h := newHarness(t)
			srv := newStubServer(t)
			srv.on("GET /api/setup/status", http.StatusOK, models.NewSetupStatus(true, true))

			if err := h.run(t, srv.URL, "auth", "status"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.runner.api.BaseURL() != srv.URL {
				t.Errorf("expected base URL %s, got %s", srv.URL, h.runner.api.BaseURL())
			}
		})
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("Init", func(t *testing.T) {
		h := newHarness(t)
		cache := filepath.Join(h.dir, "tokens.db")

		app := func() error {
			h.runner.api = nil
			root := &cli.Command{Name: "spotctl", Flags: h.runner.globalFlags(), Before: h.runner.before, Commands: h.runner.register()}
			return root.Run(context.Background(), []string{
				"spotctl", "--config", h.configPath(), "--token-cache", cache, "config", "init",
			})
		}

		if err := app(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, h.configPath())
		tu.AssertFileExists(t, cache)

		config, err := shared.LoadConfig(h.configPath())
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if *config != *shared.DefaultConfig() {
			t.Errorf("expected default config, got %+v", config)
		}

		if err := app(); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected an error for an existing file, got %v", err)
		}
	})

	t.Run("Init Reset", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "", "config", "init"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c := shared.DefaultConfig()
		c.ClientID, c.ClientSecret, c.Port = "client-a", "secret-a", 9000
		if err := shared.SaveConfig(h.configPath(), c); err != nil {
			t.Fatal(err)
		}
		err := services.NewFileTokenStore(h.cachePath()).Put(context.Background(), &models.TokenRecord{
			ClientID: "client-a",
			Token:    &oauth2.Token{AccessToken: "cached", Expiry: time.Now().Add(time.Hour)},
		})
		if err != nil {
			t.Fatal(err)
		}

		if err := h.run(t, "", "config", "init", "--reset"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		config, err := shared.LoadConfig(h.configPath())
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if *config != *shared.DefaultConfig() {
			t.Errorf("expected default config after reset, got %+v", config)
		}
		tu.AssertFileMissing(t, h.cachePath())
	})

	t.Run("Show Masks Secret", func(t *testing.T) {
		h := newHarness(t)
		config := shared.DefaultConfig()
		config.ClientID = "id"
		config.ClientSecret = "very-secret"
		if err := shared.SaveConfig(h.configPath(), config); err != nil {
			t.Fatal(err)
		}

		if err := h.run(t, "", "config", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var shown shared.Config
		if err := json.Unmarshal(h.output.Bytes(), &shown); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, h.output.String())
		}
		if shown.ClientSecret != shared.MaskedSecret || shown.ClientID != "id" {
			t.Errorf("unexpected config %+v", shown)
		}
		if strings.Contains(h.output.String(), "very-secret") {
			t.Error("secret leaked to output")
		}
	})

	t.Run("Set", func(t *testing.T) {
		t.Run("Requires A Flag", func(t *testing.T) {
			h := newHarness(t)
			if err := h.run(t, "", "config", "set"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Credential Change Clears Token", func(t *testing.T) {
			h := newHarness(t)
			store := services.NewFileTokenStore(h.cachePath())
			rec := &models.TokenRecord{ClientID: "old", Token: &oauth2.Token{AccessToken: "a"}}
			if err := store.Put(context.Background(), rec); err != nil {
				t.Fatal(err)
			}

			err := h.run(t, "", "config", "set", "--client-id", "new-id", "--client-secret", "new-secret", "--port", "9000")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			config, err := shared.LoadConfig(h.configPath())
			if err != nil {
				t.Fatal(err)
			}
			if config.ClientID != "new-id" || config.ClientSecret != "new-secret" || config.Port != 9000 {
				t.Errorf("unexpected config %+v", config)
			}
			tu.AssertFileMissing(t, h.cachePath())
			if strings.Contains(h.output.String(), "new-secret") {
				t.Error("secret leaked to output")
			}
		})

		t.Run("Listen Change Keeps Token", func(t *testing.T) {
			h := newHarness(t)
			config := shared.DefaultConfig()
			config.ClientID, config.ClientSecret = "id", "secret"
			if err := shared.SaveConfig(h.configPath(), config); err != nil {
				t.Fatal(err)
			}
			store := services.NewFileTokenStore(h.cachePath())
			rec := &models.TokenRecord{ClientID: "id", Token: &oauth2.Token{AccessToken: "a"}}
			if err := store.Put(context.Background(), rec); err != nil {
				t.Fatal(err)
			}

			if err := h.run(t, "", "config", "set", "--host", "127.0.0.1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tu.AssertFileExists(t, h.cachePath())
		})

		t.Run("Rejects Bad Port", func(t *testing.T) {
			h := newHarness(t)
			err := h.run(t, "", "config", "set", "--port", "70000")
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("Clear", func(t *testing.T) {
		h := newHarness(t)
		config := shared.DefaultConfig()
		config.ClientID, config.ClientSecret = "id", "secret"
		if err := shared.SaveConfig(h.configPath(), config); err != nil {
			t.Fatal(err)
		}

		if err := h.run(t, "", "config", "clear"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		loaded, err := shared.LoadConfig(h.configPath())
		if err != nil {
			t.Fatal(err)
		}
		if loaded.HasCredentials() {
			t.Errorf("expected credentials to be cleared, got %+v", loaded)
		}
		if !strings.Contains(h.output.String(), "Credentials cleared") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})
}

func TestAuthCommands(t *testing.T) {
	authURL := "https://accounts.spotify.com/authorize?client_id=id"

	t.Run("URL", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/auth/url", http.StatusOK, models.AuthURL{URL: &authURL})

		if err := h.run(t, srv.URL, "auth", "url"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(h.output.String()) != authURL {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("URL Not Configured", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/auth/url", http.StatusUnauthorized, models.ErrorBody{Detail: "spotify credentials not configured"})

		err := h.run(t, srv.URL, "auth", "url")
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected a 401 APIError, got %v", err)
		}
		if !isUserError(err) {
			t.Error("API errors are user errors")
		}
	})

	t.Run("Login Opens Browser", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/auth/url", http.StatusOK, models.AuthURL{URL: &authURL})
		srv.on("GET /api/setup/status", http.StatusOK, models.NewSetupStatus(true, true))

		if err := h.run(t, srv.URL, "auth", "login"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(h.opened) != 1 || h.opened[0] != authURL {
			t.Errorf("expected the browser to open %s, got %v", authURL, h.opened)
		}
		if !strings.Contains(h.output.String(), "Authentication successful") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("Login Already Authenticated", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/auth/url", http.StatusOK, models.AuthURL{Authenticated: true})

		if err := h.run(t, srv.URL, "auth", "login"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(h.opened) != 0 {
			t.Error("browser must not open when already authenticated")
		}
	})

	t.Run("Wait Times Out", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/setup/status", http.StatusOK, models.NewSetupStatus(true, false))
		h.runner.api = services.NewAPIService(srv.URL, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		if err := h.runner.waitAuthenticated(ctx, 5*time.Millisecond); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Status", func(t *testing.T) {
		tests := []struct {
			name   string
			status models.SetupStatus
			want   string
		}{
			{"Needs Setup", models.NewSetupStatus(false, false), "No Spotify credentials"},
			{"Needs Auth", models.NewSetupStatus(true, false), "Not authenticated"},
			{"Ready", models.NewSetupStatus(true, true), "✓ Authenticated"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)
				srv := newStubServer(t)
				srv.on("GET /api/setup/status", http.StatusOK, tt.status)

				if err := h.run(t, srv.URL, "auth", "status"); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !strings.Contains(h.output.String(), tt.want) {
					t.Errorf("expected %q in %q", tt.want, h.output.String())
				}
			})
		}
	})
}

func TestPlayerCommands(t *testing.T) {
	t.Run("Now", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/playback", http.StatusOK, models.Playback{
			IsPlaying:  true,
			TrackName:  "Song",
			ArtistName: "Artist",
			AlbumName:  "Album",
			DurationMS: 185000,
			ProgressMS: 61000,
			Volume:     40,
			Repeat:     "off",
		})

		if err := h.run(t, srv.URL, "player", "now"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := h.output.String()
		for _, want := range []string{"▶ Playing", "Song", "Artist · Album", "1:01 / 3:05", "volume 40%"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("No Active Device", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/playback", http.StatusNotFound, models.ErrorBody{Detail: "no active device"})

		err := h.run(t, srv.URL, "player", "now")
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.Detail != "no active device" {
			t.Errorf("expected the server detail, got %v", err)
		}
	})

	t.Run("Sends Commands", func(t *testing.T) {
		tests := []struct {
			args []string
			path string
			body string
		}{
			{[]string{"play"}, "/api/play", "{}"},
			{[]string{"pause"}, "/api/pause", "{}"},
			{[]string{"next"}, "/api/next", "{}"},
			{[]string{"prev"}, "/api/previous", "{}"},
			{[]string{"volume", "55"}, "/api/volume", `{"volume":55}`},
			{[]string{"shuffle", "on"}, "/api/shuffle", `{"state":true}`},
			{[]string{"shuffle", "false"}, "/api/shuffle", `{"state":false}`},
			{[]string{"repeat", "TRACK"}, "/api/repeat", `{"state":"track"}`},
			{[]string{"seek", "30000"}, "/api/seek", `{"position_ms":30000}`},
		}

		for _, tt := range tests {
			t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
				h := newHarness(t)
				srv := newStubServer(t)

				if err := h.run(t, srv.URL, append([]string{"player"}, tt.args...)...); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got := srv.last()
				if got.Method != http.MethodPost || got.Path != tt.path || got.Body != tt.body {
					t.Errorf("expected POST %s %s, got %s %s %s", tt.path, tt.body, got.Method, got.Path, got.Body)
				}
			})
		}
	})

	t.Run("Validates Locally", func(t *testing.T) {
		tests := []struct {
			args []string
			want error
		}{
			{[]string{"volume"}, shared.ErrMissingArgument},
			{[]string{"volume", "loud"}, shared.ErrInvalidArgument},
			{[]string{"volume", "101"}, shared.ErrInvalidArgument},
			{[]string{"shuffle"}, shared.ErrMissingArgument},
			{[]string{"shuffle", "maybe"}, shared.ErrInvalidArgument},
			{[]string{"repeat"}, shared.ErrMissingArgument},
			{[]string{"repeat", "forever"}, shared.ErrInvalidArgument},
			{[]string{"seek", "-1"}, shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
				h := newHarness(t)
				srv := newStubServer(t)

				err := h.run(t, srv.URL, append([]string{"player"}, tt.args...)...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if got := srv.last(); got.Method != "" {
					t.Errorf("no request should be sent, got %s %s", got.Method, got.Path)
				}
			})
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("Get Pretty", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /healthz", http.StatusOK, map[string]string{"status": "ok"})

		if err := h.run(t, srv.URL, "api", "get", "healthz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(h.output.String(), `"status": "ok"`) {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("Get Compact", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /healthz", http.StatusOK, map[string]string{"status": "ok"})

		if err := h.run(t, srv.URL, "api", "get", "--json", "/healthz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.output.String() != `{"status":"ok"}`+"\n" {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("Get Error Status", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)
		srv.on("GET /api/playback", http.StatusUnauthorized, models.ErrorBody{Detail: "not authenticated"})

		err := h.run(t, srv.URL, "api", "get", "/api/playback")
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected a 401 APIError, got %v", err)
		}
	})

	t.Run("Missing Path", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "", "api", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Post", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)

		if err := h.run(t, srv.URL, "api", "post", "--data", `{"volume":10}`, "/api/volume"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := srv.last(); got.Body != `{"volume":10}` || got.Path != "/api/volume" {
			t.Errorf("unexpected request %+v", got)
		}
	})

	t.Run("Post Invalid JSON", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)

		err := h.run(t, srv.URL, "api", "post", "--data", `{volume`, "/api/volume")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		h := newHarness(t)
		srv := newStubServer(t)

		if err := h.run(t, srv.URL, "api", "delete", "/api/config"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := srv.last(); got.Method != http.MethodDelete || got.Path != "/api/config" {
			t.Errorf("unexpected request %+v", got)
		}
	})
}

func TestFormatMS(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{61000, "1:01"},
		{3600000, "60:00"},
	}
	for _, tt := range tests {
		if got := formatMS(tt.ms); got != tt.want {
			t.Errorf("formatMS(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestIsUserError(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want bool
	}{
		{"api error", fmt.Errorf("request failed: %w", &services.APIError{StatusCode: 404, Detail: "Session not found"}), true},
		{"invalid argument", shared.ErrInvalidArgument, true},
		{"missing argument", shared.ErrMissingArgument, true},
		{"invalid credentials", shared.ErrInvalidCredentials, true},
		{"session not found", shared.ErrSessionNotFound, true},
		{"session used", shared.ErrSessionUsed, true},
		{"session not ready", shared.ErrSessionNotReady, true},
		{"login timeout", fmt.Errorf("%w: still not authenticated after 2m0s", shared.ErrTimeout), true},
		{"cancelled", ui.ErrCancelled, true},
		{"broken environment", errors.New("failed to open token cache: disk I/O error"), false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUserError(tt.err); got != tt.want {
				t.Errorf("isUserError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
