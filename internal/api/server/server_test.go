package server

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/remiblancher/qcert/internal/cert"
)

func TestU_Config_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"[Unit] valid", func(c *Config) {}, false},
		{"[Unit] missing cert", func(c *Config) { c.CertFile = "" }, true},
		{"[Unit] missing key", func(c *Config) { c.KeyFile = "" }, true},
		{"[Unit] bad port", func(c *Config) { c.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CertFile = "cert.pem"
			cfg.KeyFile = "priv_key.pem"
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestU_Config_Address(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9000
	if got := cfg.Address(); got != "127.0.0.1:9000" {
		t.Errorf("Address() = %q", got)
	}
}

func TestU_New_MissingCertificate(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.CertFile = filepath.Join(dir, "cert.pem")
	cfg.KeyFile = filepath.Join(dir, "priv_key.pem")

	if _, err := New(cfg, "test", zerolog.Nop()); err == nil {
		t.Fatal("New() should fail without a certificate")
	}
}

func TestF_Server_ServeAndShutdown(t *testing.T) {
	dir := t.TempDir()
	m := cert.NewManager()
	if err := m.SetSubjectData("CN", "server.test"); err != nil {
		t.Fatal(err)
	}
	if err := m.Install(dir, "", ""); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.CertFile, cfg.KeyFile = cert.Paths(dir, "", "")
	srv, err := New(cfg, "test", zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		cancel()
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
