package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/remiblancher/qcert/internal/api/dto"
	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cert"
	"github.com/remiblancher/qcert/internal/x509util"
)

// =============================================================================
// Generate Tests
// =============================================================================

func TestF_Generate_Basic(t *testing.T) {
	tc := newTestContext(t)

	out, err := executeCommand(rootCmd, "generate",
		"--dir", tc.tempDir,
		"--valid-for", "30",
		"--subject", "C=US",
		"--subject", "CN=gen.test",
		"--san", "DNS:gen.test",
		"--san", "IP:127.0.0.1",
	)
	assertNoError(t, err)
	assertContains(t, out, "Generated certificate serial 1000")

	m := tc.load()
	r := m.Record()
	if got := r.Validity(); got != 30*24*time.Hour {
		t.Errorf("validity = %v, want 30 days", got)
	}
	want := []string{"C", "CN"}
	var got []string
	for _, a := range r.Subject.Attributes() {
		got = append(got, a.Label())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subject order mismatch (-want +got):\n%s", diff)
	}
	if san, _ := r.SubjectAltName(); san != "DNS:gen.test, IP:127.0.0.1" {
		t.Errorf("SAN = %q", san)
	}
}

func TestF_Generate_CustomFileNames(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "generate",
		"--dir", tc.tempDir, "--cert-file", "a.crt", "--key-file", "a.key", "-s", "CN=x")
	assertNoError(t, err)

	for _, name := range []string{"a.crt", "a.key"} {
		if _, err := os.Stat(tc.path(name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestF_Generate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"[Functional] Generate: unknown field", []string{"--subject", "favoriteColor=blue"}},
		{"[Functional] Generate: malformed subject flag", []string{"--subject", "CN"}},
		{"[Functional] Generate: invalid SAN", []string{"--san", "FOO:bar"}},
		{"[Functional] Generate: zero validity", []string{"--valid-for", "0"}},
		{"[Functional] Generate: validity past year 9999", []string{"--valid-for", "3000000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestContext(t)
			args := append([]string{"generate", "--dir", tc.tempDir}, tt.args...)
			_, err := executeCommand(rootCmd, args...)
			assertError(t, err)

			if _, statErr := os.Stat(tc.path(cert.DefaultCertFile)); !errors.Is(statErr, os.ErrNotExist) {
				t.Error("certificate written despite error")
			}
		})
	}
}

func TestF_Generate_CreatesNestedDir(t *testing.T) {
	tc := newTestContext(t)
	dir := tc.path(filepath.Join("a", "b", "tls"))

	_, err := executeCommand(rootCmd, "generate", "--dir", dir, "-s", "CN=nested")
	assertNoError(t, err)

	if _, err := os.Stat(filepath.Join(dir, cert.DefaultCertFile)); err != nil {
		t.Errorf("certificate not written: %v", err)
	}
}

func TestF_Generate_DirIsFile(t *testing.T) {
	tc := newTestContext(t)
	file := tc.writeFile("occupied", "x")

	_, err := executeCommand(rootCmd, "generate", "--dir", file, "-s", "CN=x")
	assertError(t, err)
	assertContains(t, err.Error(), "failed to generate certificate")
}

func TestF_Generate_FromConfig(t *testing.T) {
	tc := newTestContext(t)
	installDir := tc.path("tls")
	cfgPath := tc.writeFile("qcert.yaml", `
install_dir: `+installDir+`
valid_for: 10
subject:
  O: Example
  CN: cfg.test
  san: ["DNS:cfg.test"]
`)

	_, err := executeCommand(rootCmd, "--config", cfgPath, "generate", "--subject", "OU=Ops")
	assertNoError(t, err)

	m := cert.NewManager()
	certPath, keyPath := cert.Paths(installDir, "", "")
	assertNoError(t, m.Load(certPath, keyPath))
	r := m.Record()
	if got := r.Validity(); got != 10*24*time.Hour {
		t.Errorf("validity = %v, want 10 days", got)
	}
	if v, _ := r.Subject.Get("OU"); v != "Ops" {
		t.Errorf("OU = %q, want Ops", v)
	}
	if v, _ := r.Subject.Get("CN"); v != "cfg.test" {
		t.Errorf("CN = %q, want cfg.test", v)
	}
}

func TestF_Generate_FlagOverridesConfig(t *testing.T) {
	tc := newTestContext(t)
	cfgPath := tc.writeFile("qcert.toml", `
install_dir = "`+tc.path("from-config")+`"
valid_for = 10

[subject]
CN = "toml.test"
`)

	_, err := executeCommand(rootCmd, "--config", cfgPath, "generate", "--dir", tc.tempDir, "--valid-for", "20")
	assertNoError(t, err)

	r := tc.load().Record()
	if got := r.Validity(); got != 20*24*time.Hour {
		t.Errorf("validity = %v, want 20 days", got)
	}
	if _, err := os.Stat(tc.path("from-config")); !errors.Is(err, os.ErrNotExist) {
		t.Error("config install_dir used despite --dir")
	}
}

func TestF_Generate_InvalidConfig(t *testing.T) {
	tc := newTestContext(t)
	cfgPath := tc.writeFile("bad.yaml", "valid_for: -1\nsubject:\n  nope: x\n")

	_, err := executeCommand(rootCmd, "--config", cfgPath, "generate", "--dir", tc.tempDir)
	assertError(t, err)
	assertContains(t, err.Error(), "invalid config")
}

// =============================================================================
// Install Tests
// =============================================================================

func TestF_Install_Basic(t *testing.T) {
	tc := newTestContext(t)
	dir := filepath.Join(tc.tempDir, "nested", "tls")

	out, err := executeCommand(rootCmd, "install", "--dir", dir, "--subject", "commonName=install.test", "--san", "URI:urn:example:x")
	assertNoError(t, err)
	assertContains(t, out, "Installed certificate serial 1000")

	m := cert.NewManager()
	certPath, keyPath := cert.Paths(dir, "", "")
	assertNoError(t, m.Load(certPath, keyPath))
	if got := m.Record().Validity(); got != cert.DefaultValidFor*24*time.Hour {
		t.Errorf("validity = %v, want 365 days", got)
	}

	info, err := os.Stat(keyPath)
	assertNoError(t, err)
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key mode = %o, want 600", perm)
	}
}

func TestF_Install_UnknownField(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "install", "--dir", tc.tempDir, "--subject", "shoeSize=42")
	assertError(t, err)
	if !errors.Is(err, cert.ErrUnknownSubjectField) {
		t.Errorf("error = %v, want ErrUnknownSubjectField", err)
	}
}

// =============================================================================
// Info Tests
// =============================================================================

func TestF_Info_Table(t *testing.T) {
	tc := newTestContext(t)
	_, err := executeCommand(rootCmd, "install", "--dir", tc.tempDir, "-s", "CN=info.test", "--san", "DNS:info.test")
	assertNoError(t, err)

	resetFlags()
	certPath, keyPath := cert.Paths(tc.tempDir, "", "")
	out, err := executeCommand(rootCmd, "info", "--cert", certPath, "--key", keyPath)
	assertNoError(t, err)

	for _, want := range []string{"info.test", "1000", x509util.ExtSubjectAltName, "DNS:info.test", "rsa-2048", "SHA256-RSA", "valid"} {
		assertContains(t, out, want)
	}
}

func TestF_Info_JSON(t *testing.T) {
	tc := newTestContext(t)
	_, err := executeCommand(rootCmd, "install", "--dir", tc.tempDir, "-s", "CN=json.test")
	assertNoError(t, err)

	resetFlags()
	certPath, keyPath := cert.Paths(tc.tempDir, "", "")
	out, err := executeCommand(rootCmd, "info", "--cert", certPath, "--key", keyPath, "--json")
	assertNoError(t, err)

	var info dto.CertificateInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	want := []dto.AttributeInfo{{Name: "CN", Value: "json.test"}}
	if diff := cmp.Diff(want, info.Subject); diff != "" {
		t.Errorf("subject mismatch (-want +got):\n%s", diff)
	}
	if info.State != "signed" || info.Serial != "1000" {
		t.Errorf("state %q serial %q", info.State, info.Serial)
	}
}

func TestF_Info_KeyMismatch(t *testing.T) {
	tc := newTestContext(t)
	a, b := tc.path("a"), tc.path("b")
	_, err := executeCommand(rootCmd, "install", "--dir", a)
	assertNoError(t, err)
	resetFlags()
	_, err = executeCommand(rootCmd, "install", "--dir", b)
	assertNoError(t, err)

	resetFlags()
	certA, _ := cert.Paths(a, "", "")
	_, keyB := cert.Paths(b, "", "")
	_, err = executeCommand(rootCmd, "info", "--cert", certA, "--key", keyB)
	if !errors.Is(err, cert.ErrKeyMismatch) {
		t.Fatalf("error = %v, want ErrKeyMismatch", err)
	}
}

func TestF_Info_MissingFile(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "info", "--cert", tc.path("none.pem"), "--key", tc.path("none.key"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want ErrNotExist", err)
	}
}

// =============================================================================
// Renew Tests
// =============================================================================

func TestF_Renew_KeepsValidity(t *testing.T) {
	tc := newTestContext(t)
	_, err := executeCommand(rootCmd, "generate", "--dir", tc.tempDir, "--valid-for", "12", "-s", "CN=renew.test")
	assertNoError(t, err)
	before := tc.load()

	resetFlags()
	certPath, keyPath := cert.Paths(tc.tempDir, "", "")
	out, err := executeCommand(rootCmd, "renew", "--cert", certPath, "--key", keyPath)
	assertNoError(t, err)
	assertContains(t, out, "Renewed certificate serial 1001")

	after := tc.load()
	if got := after.Record().Validity(); got != 12*24*time.Hour {
		t.Errorf("validity = %v, want 12 days", got)
	}
	if !after.KeyPair().Matches(before.KeyPair().PublicKey) {
		t.Error("renew replaced the key")
	}
}

func TestF_Renew_ValidFor(t *testing.T) {
	tc := newTestContext(t)
	_, err := executeCommand(rootCmd, "install", "--dir", tc.tempDir, "-s", "CN=renew.test")
	assertNoError(t, err)

	resetFlags()
	certPath, keyPath := cert.Paths(tc.tempDir, "", "")
	_, err = executeCommand(rootCmd, "renew", "--cert", certPath, "--key", keyPath, "--valid-for", "7")
	assertNoError(t, err)

	r := tc.load().Record()
	if got := r.Validity(); got != 7*24*time.Hour {
		t.Errorf("validity = %v, want 7 days", got)
	}
	if r.SerialNumber.Int64() != 1001 {
		t.Errorf("serial = %s, want 1001", r.SerialNumber)
	}

	resetFlags()
	_, err = executeCommand(rootCmd, "renew", "--cert", certPath, "--key", keyPath, "--valid-for", "-3")
	if !errors.Is(err, cert.ErrInvalidValidity) {
		t.Errorf("error = %v, want ErrInvalidValidity", err)
	}
}

// =============================================================================
// Serve Tests
// =============================================================================

func TestF_Serve_MissingCertificate(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "serve", "--cert", tc.path("none.pem"), "--key", tc.path("none.key"))
	assertError(t, err)
}

// =============================================================================
// Audit Tests
// =============================================================================

func TestF_Audit_Lifecycle(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "generate", "--dir", tc.tempDir, "-s", "CN=audit.test")
	assertNoError(t, err)

	resetFlags()
	certPath, keyPath := cert.Paths(tc.tempDir, "", "")
	_, err = executeCommand(rootCmd, "--audit-log", logPath, "renew", "--cert", certPath, "--key", keyPath)
	assertNoError(t, err)

	events, err := audit.ReadEvents(logPath)
	assertNoError(t, err)
	var types []audit.EventType
	for _, e := range events {
		types = append(types, e.EventType)
	}
	want := []audit.EventType{audit.EventKeyGenerated, audit.EventCertGenerated, audit.EventCertRenewed}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	resetFlags()
	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertNoError(t, err)
	assertContains(t, out, "VERIFICATION PASSED")
	assertContains(t, out, "Total events: 3")

	resetFlags()
	out, err = executeCommand(rootCmd, "audit", "tail", "--log", logPath, "-n", "1")
	assertNoError(t, err)
	assertContains(t, out, string(audit.EventCertRenewed))
	if strings.Contains(out, string(audit.EventCertGenerated)) {
		t.Errorf("tail -n 1 printed older events:\n%s", out)
	}

	resetFlags()
	out, err = executeCommand(rootCmd, "audit", "tail", "--log", logPath, "--json")
	assertNoError(t, err)
	var tailed []audit.Event
	if err := json.Unmarshal([]byte(out), &tailed); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(tailed) != 3 {
		t.Errorf("tailed %d events, want 3", len(tailed))
	}
}

func TestF_Audit_FailureRecorded(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "generate", "--dir", tc.tempDir, "--valid-for", "0")
	assertError(t, err)
	// A failed run skips PersistentPostRunE.
	assertNoError(t, audit.Close())

	events, err := audit.ReadEvents(logPath)
	assertNoError(t, err)
	if len(events) != 1 || events[0].Result != audit.ResultFailure {
		t.Fatalf("events = %+v, want one failure", events)
	}
	if events[0].Context.Reason == "" {
		t.Error("failure reason not recorded")
	}
}

func TestF_Audit_Verify_Tampered(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")

	_, err := executeCommand(rootCmd, "--audit-log", logPath, "install", "--dir", tc.tempDir)
	assertNoError(t, err)

	data, err := os.ReadFile(logPath)
	assertNoError(t, err)
	tampered := strings.Replace(string(data), `"serial":"1000"`, `"serial":"9999"`, 1)
	if tampered == string(data) {
		t.Fatal("no serial found in audit log")
	}
	assertNoError(t, os.WriteFile(logPath, []byte(tampered), 0o600))

	resetFlags()
	out, err := executeCommand(rootCmd, "audit", "verify", "--log", logPath)
	assertError(t, err)
	assertContains(t, out, "VERIFICATION FAILED")
}

func TestF_Audit_Tail_Empty(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.writeFile("audit.jsonl", "")

	out, err := executeCommand(rootCmd, "audit", "tail", "--log", logPath)
	assertNoError(t, err)
	assertContains(t, out, "Audit log is empty")
}

func TestF_Audit_Verify_LogNotFound(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "audit", "verify", "--log", tc.path("nonexistent.jsonl"))
	assertError(t, err)
}

func TestF_InvalidLogLevel(t *testing.T) {
	newTestContext(t)

	_, err := executeCommand(rootCmd, "--log-level", "loud", "audit", "tail", "--log", "x")
	assertError(t, err)
}
