package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/api/service"
	"github.com/remiblancher/qcert/internal/cert"
	"github.com/remiblancher/qcert/internal/cli"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display certificate information",
	Long: `Load a certificate and its key and display the subject, issuer,
serial, validity, extensions and status.

Examples:
  qcert info --cert ./tls/cert.pem --key ./tls/priv_key.pem
  qcert info --config qcert.yaml --json`,
	RunE: runInfo,
}

var (
	infoCert string
	infoKey  string
	infoJSON bool
)

func init() {
	infoCmd.Flags().StringVar(&infoCert, "cert", "", "Certificate file (default from config)")
	infoCmd.Flags().StringVar(&infoKey, "key", "", "Private key file (default from config)")
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	certPath, keyPath, err := certKeyPaths(infoCert, infoKey)
	if err != nil {
		return err
	}

	m := cert.NewManager()
	if err := m.Load(certPath, keyPath); err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}

	now := time.Now()
	keyAlg := m.KeyPair().Algorithm.String()
	if infoJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(service.CertificateInfo(m.Record(), m.State(), keyAlg, now))
	}

	cli.RenderCertificate(cmd.OutOrStdout(), m.Record(), keyAlg, now)
	return nil
}
