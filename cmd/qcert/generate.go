package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/audit"
	"github.com/remiblancher/qcert/internal/cert"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and save a self-signed certificate",
	Long: `Generate a new self-signed certificate with the given subject and
validity, then write it and its private key to the install directory.

Subject fields from --config are applied first, then --subject flags in
order, then --san. Generation stops at the first invalid field.

Examples:
  qcert generate --dir ./tls --valid-for 30 --subject C=US --subject CN=example.org
  qcert generate --config qcert.yaml --san DNS:example.org --san DNS:www.example.org`,
	RunE: runGenerate,
}

var (
	genLoc      location
	genValidFor int
	genSubjects []string
	genSANs     []string
)

func init() {
	addLocationFlags(generateCmd, &genLoc)
	generateCmd.Flags().IntVar(&genValidFor, "valid-for", cert.DefaultValidFor, "Validity in days")
	generateCmd.Flags().StringArrayVarP(&genSubjects, "subject", "s", nil, "Subject field KEY=VALUE (repeatable)")
	generateCmd.Flags().StringArrayVar(&genSANs, "san", nil, "Subject alternative name, e.g. DNS:example.org (repeatable)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := genLoc.resolve(cmd, cfg)
	if err != nil {
		return err
	}
	flagFields, err := subjectFields(genSubjects, genSANs)
	if err != nil {
		return err
	}
	fields := append(cfg.Fields(), flagFields...)

	validFor := cfg.ValidFor
	if cmd.Flags().Changed("valid-for") {
		validFor = genValidFor
	}

	certPath, keyPath := loc.paths()
	m := cert.NewManager()
	err = m.Create(loc.dir, loc.certFile, loc.keyFile, fields, validFor)
	if err == nil {
		if auditErr := audit.LogKeyGenerated(keyPath, m.KeyPair().Algorithm.String()); auditErr != nil {
			return auditErr
		}
	}
	if auditErr := audit.LogCertGenerated(audit.RecordDetails(certPath, m.Record()), err); auditErr != nil {
		return auditErr
	}
	if err != nil {
		log.Debug().Err(err).Str("dir", loc.dir).Msg("generate failed")
		return fmt.Errorf("failed to generate certificate: %w", err)
	}

	log.Debug().Str("cert", certPath).Str("serial", m.Record().SerialNumber.String()).Msg("certificate generated")
	printSummary(cmd, "Generated", m, certPath, keyPath)
	return nil
}
