// Command qcert manages a self-signed X.509 certificate and its RSA key.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/config"
	"github.com/remiblancher/qcert/internal/logger"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// EnvAuditLog is read when --audit-log is not set.
const EnvAuditLog = "QCERT_AUDIT_LOG"

// Global flags
var (
	configPath   string
	auditLogPath string
	logLevel     string
)

var log = logger.New("qcert")

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qcert",
	Short: "Self-signed X.509 certificate lifecycle manager",
	Long: `qcert generates, installs, inspects and renews a self-signed X.509
certificate and its RSA private key, and can serve it over HTTP.

Subject fields use short or long attribute names (CN, commonName, O, ...).
Subject alternative names use the OpenSSL form, e.g. "DNS:example.org".

Examples:
  # Install a certificate valid for 365 days
  qcert install --dir ./tls --subject CN=example.org --san DNS:example.org

  # Generate one valid for 30 days
  qcert generate --dir ./tls --valid-for 30 --subject CN=example.org

  # Inspect and renew it
  qcert info --cert ./tls/cert.pem --key ./tls/priv_key.pem
  qcert renew --cert ./tls/cert.pem --key ./tls/priv_key.pem`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.SetLogLevel(logLevel); err != nil {
			return err
		}

		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv(EnvAuditLog)
		}
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Configuration file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set "+EnvAuditLog+" env var)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error, disabled)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(renewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
}

// loadConfig returns the --config file, or the defaults with environment
// overrides when no file is given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(configPath)
}
