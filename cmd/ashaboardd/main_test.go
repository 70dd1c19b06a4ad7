package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashaboard/ashaboard/pkg/config"
	"github.com/ashaboard/ashaboard/pkg/ranking"
)

const villageYAML = `
workers:
  - id: ASHA001
    name: Meera Devi
    status: active
cases:
  - id: C1
    patient_name: Sunita Devi
    issue: fever
    worker_id: ASHA001
    status: pending
    date: "2024-01-15"
    village: Rampur
  - id: C2
    patient_name: Ravi Kumar
    issue: diarrhea
    worker_id: ASHA001
    status: resolved
    date: "2024-01-14"
    village: Gokul
sources:
  - id: W1
    name: Village Well
    status: warning
    last_tested: "2024-01-14"
    village: Gokul
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fileSeedConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "village.yaml")
	if err := os.WriteFile(path, []byte(villageYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Seed.Kind = config.SeedFile
	cfg.Seed.Path = path
	return cfg
}

func TestNewServerSeedsRegistry(t *testing.T) {
	cfg := fileSeedConfig(t)
	srv, err := newServer(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("newServer() error: %v", err)
	}
	defer srv.Close()

	var access bytes.Buffer
	ts := httptest.NewServer(srv.Handler(&access))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var board ranking.Board
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("entries = %+v", board.Entries)
	}
	if board.Entries[0].Village != "Gokul" || board.Entries[0].Score != 2 {
		t.Errorf("first entry = %+v, want Gokul with score 2", board.Entries[0])
	}
	if board.Entries[1].Village != "Rampur" || board.Entries[1].Score != 1 {
		t.Errorf("second entry = %+v, want Rampur with score 1", board.Entries[1])
	}

	if !strings.Contains(access.String(), "GET /api/leaderboard") {
		t.Errorf("access log missing request line: %q", access.String())
	}
}

func TestNewServerReloadUsesSeed(t *testing.T) {
	cfg := fileSeedConfig(t)
	srv, err := newServer(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("newServer() error: %v", err)
	}
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler(io.Discard))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/admin/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("reload status = %d, want 200", resp.StatusCode)
	}
	if v := srv.reg.Version(); v < 2 {
		t.Errorf("registry version after reload = %d, want at least 2", v)
	}
}

func TestNewServerWithoutSeed(t *testing.T) {
	srv, err := newServer(context.Background(), config.DefaultConfig(), discardLogger())
	if err != nil {
		t.Fatalf("newServer() error: %v", err)
	}
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler(io.Discard))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/admin/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("reload without seed status = %d, want 409", resp.StatusCode)
	}
}

func TestNewServerRejectsInvalidSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("cases:\n  - id: C1\n    status: closed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Seed.Kind = config.SeedFile
	cfg.Seed.Path = path

	if _, err := newServer(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected error for invalid seed data")
	}
}

func TestOpenLoaderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.SeedConfig{Kind: "ftp"}
	if _, err := openLoader(ctx, cfg, discardLogger()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "text", false},
		{"debug", "json", false},
		{"WARN", "", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tc := range tests {
		t.Run(tc.level+"/"+tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tc.level, tc.format)
			if (err != nil) != tc.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			logger.Error("reload failed", "k", "v")
			if !strings.Contains(buf.String(), "reload failed") {
				t.Errorf("logger output = %q", buf.String())
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ASHABOARD_ADDR", ":9191")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":7070\"\ncache:\n  size: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Server.Addr != ":9191" {
		t.Errorf("addr = %q, env should override file", cfg.Server.Addr)
	}
	if cfg.Cache.Size != 4 {
		t.Errorf("cache size = %d", cfg.Cache.Size)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("seed:\n  kind: ftp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(bad); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("loadConfig(bad) error = %v", err)
	}
}
