package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cert"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a fresh certificate valid for 365 days",
	Long: `Create the install directory, generate a certificate valid for
365 days and write it with its private key.

Existing files are overwritten.

Examples:
  qcert install --dir /etc/myapp/tls --subject CN=myapp.local --san DNS:myapp.local`,
	RunE: runInstall,
}

var (
	installLoc      location
	installSubjects []string
	installSANs     []string
)

func init() {
	addLocationFlags(installCmd, &installLoc)
	installCmd.Flags().StringArrayVarP(&installSubjects, "subject", "s", nil, "Subject field KEY=VALUE (repeatable)")
	installCmd.Flags().StringArrayVar(&installSANs, "san", nil, "Subject alternative name, e.g. DNS:example.org (repeatable)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := installLoc.resolve(cmd, cfg)
	if err != nil {
		return err
	}
	flagFields, err := subjectFields(installSubjects, installSANs)
	if err != nil {
		return err
	}

	m := cert.NewManager()
	for _, f := range append(cfg.Fields(), flagFields...) {
		if err := m.SetSubjectData(f.Key, f.Value); err != nil {
			return fmt.Errorf("invalid subject: %w", err)
		}
	}

	certPath, keyPath := loc.paths()
	err = m.Install(loc.dir, loc.certFile, loc.keyFile)
	if auditErr := audit.LogCertInstalled(audit.RecordDetails(certPath, m.Record()), err); auditErr != nil {
		return auditErr
	}
	if err != nil {
		return fmt.Errorf("failed to install certificate: %w", err)
	}

	log.Debug().Str("dir", loc.dir).Msg("certificate installed")
	printSummary(cmd, "Installed", m, certPath, keyPath)
	return nil
}
