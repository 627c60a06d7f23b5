package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cert"
)

// executeCommand executes a Cobra command with the given args and returns output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.Execute()
	return buf.String(), err
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

// newTestContext creates a test context with a temp directory and resets
// all command flags, which cobra keeps between executions.
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	resetFlags()
	t.Setenv(EnvAuditLog, "")
	t.Cleanup(func() { _ = audit.Close() })
	return &testContext{t: t, tempDir: t.TempDir()}
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name, content string) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// load reads back the certificate installed in the temp directory.
func (tc *testContext) load() *cert.Manager {
	tc.t.Helper()
	m := cert.NewManager()
	certPath, keyPath := cert.Paths(tc.tempDir, "", "")
	if err := m.Load(certPath, keyPath); err != nil {
		tc.t.Fatalf("Load() error = %v", err)
	}
	return m
}

func resetFlags() {
	configPath, auditLogPath, logLevel = "", "", "info"
	genLoc, genValidFor, genSubjects, genSANs = location{}, cert.DefaultValidFor, nil, nil
	installLoc, installSubjects, installSANs = location{}, nil, nil
	infoCert, infoKey, infoJSON = "", "", false
	renewCert, renewKey, renewValidFor = "", "", 0
	serveCert, serveKey, serveHost, servePort = "", "", "", 8080
	auditLogFile, auditTailNum, auditShowJSON = "", 10, false

	var resetChanged func(*cobra.Command)
	resetChanged = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			resetChanged(sub)
		}
	}
	resetChanged(rootCmd)
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func assertContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output does not contain %q:\n%s", want, output)
	}
}
