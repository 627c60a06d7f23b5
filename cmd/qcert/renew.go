package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cert"
)

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Renew a certificate in place",
	Long: `Load a certificate and its key, increment the serial number, restart
the validity window now and write both files back.

The validity keeps its current length unless --valid-for is given.

Examples:
  qcert renew --cert ./tls/cert.pem --key ./tls/priv_key.pem
  qcert renew --cert ./tls/cert.pem --key ./tls/priv_key.pem --valid-for 90`,
	RunE: runRenew,
}

var (
	renewCert     string
	renewKey      string
	renewValidFor int
)

func init() {
	renewCmd.Flags().StringVar(&renewCert, "cert", "", "Certificate file (default from config)")
	renewCmd.Flags().StringVar(&renewKey, "key", "", "Private key file (default from config)")
	renewCmd.Flags().IntVar(&renewValidFor, "valid-for", 0, "New validity in days (default: keep current)")
}

func runRenew(cmd *cobra.Command, args []string) error {
	certPath, keyPath, err := certKeyPaths(renewCert, renewKey)
	if err != nil {
		return err
	}

	m := cert.NewManager()
	if err := m.Load(certPath, keyPath); err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}

	var validFor *int
	if cmd.Flags().Changed("valid-for") {
		validFor = &renewValidFor
	}

	err = m.Renew(validFor)
	if err == nil {
		err = m.Save("", certPath, keyPath)
	}
	if auditErr := audit.LogCertRenewed(audit.RecordDetails(certPath, m.Record()), err); auditErr != nil {
		return auditErr
	}
	if err != nil {
		return fmt.Errorf("failed to renew certificate: %w", err)
	}

	log.Debug().Str("cert", certPath).Str("serial", m.Record().SerialNumber.String()).Msg("certificate renewed")
	printSummary(cmd, "Renewed", m, certPath, keyPath)
	return nil
}
