package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/cert"
	"github.com/remiblancher/qcert/internal/cli"
	"github.com/remiblancher/qcert/internal/config"
)

// location is where a certificate and its key live.
type location struct {
	dir      string
	certFile string
	keyFile  string
}

// addLocationFlags registers --dir, --cert-file and --key-file.
func addLocationFlags(cmd *cobra.Command, loc *location) {
	cmd.Flags().StringVarP(&loc.dir, "dir", "d", "", "Install directory (default from config, or \".\")")
	cmd.Flags().StringVar(&loc.certFile, "cert-file", "", "Certificate file name (default \""+cert.DefaultCertFile+"\")")
	cmd.Flags().StringVar(&loc.keyFile, "key-file", "", "Private key file name (default \""+cert.DefaultKeyFile+"\")")
}

// resolve merges the flags over cfg. Flags win.
func (l location) resolve(cmd *cobra.Command, cfg *config.Config) (location, error) {
	out := location{certFile: cfg.CertFile, keyFile: cfg.KeyFile}

	dir, err := cfg.InstallPath()
	if err != nil {
		return out, err
	}
	out.dir = dir
	if cmd.Flags().Changed("dir") {
		out.dir = l.dir
	}
	if cmd.Flags().Changed("cert-file") {
		out.certFile = l.certFile
	}
	if cmd.Flags().Changed("key-file") {
		out.keyFile = l.keyFile
	}
	return out, nil
}

// paths returns the certificate and key paths.
func (l location) paths() (string, string) {
	return cert.Paths(l.dir, l.certFile, l.keyFile)
}

// subjectFields converts --subject and --san flags into Generate fields.
// All SANs are combined into one field.
func subjectFields(subjects, sans []string) ([]cert.Field, error) {
	fields := make([]cert.Field, 0, len(subjects)+1)
	for _, s := range subjects {
		key, value, err := cli.ParseSubjectFlag(s)
		if err != nil {
			return nil, err
		}
		fields = append(fields, cert.Field{Key: key, Value: value})
	}
	if len(sans) > 0 {
		fields = append(fields, cert.Field{Key: "san", Value: append([]string(nil), sans...)})
	}
	return fields, nil
}

// certKeyPaths returns --cert and --key, defaulting to the configured
// install location.
func certKeyPaths(certPath, keyPath string) (string, string, error) {
	if certPath != "" && keyPath != "" {
		return certPath, keyPath, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	dir, err := cfg.InstallPath()
	if err != nil {
		return "", "", err
	}
	defCert, defKey := cert.Paths(dir, cfg.CertFile, cfg.KeyFile)
	if certPath == "" {
		certPath = defCert
	}
	if keyPath == "" {
		keyPath = defKey
	}
	return filepath.Clean(certPath), filepath.Clean(keyPath), nil
}

// printSummary writes a one-line result for a written certificate.
func printSummary(cmd *cobra.Command, action string, m *cert.Manager, certPath, keyPath string) {
	r := m.Record()
	fmt.Fprintf(cmd.OutOrStdout(), "%s certificate serial %s, valid until %s\n",
		action, r.SerialNumber, r.NotAfter.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(cmd.OutOrStdout(), "  Certificate: %s\n", certPath)
	fmt.Fprintf(cmd.OutOrStdout(), "  Private key: %s\n", keyPath)
}
