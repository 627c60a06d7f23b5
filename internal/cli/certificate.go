// Package cli holds the terminal rendering shared by the qcert commands.
package cli

import (
	"crypto/x509"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/remiblancher/qcert/internal/cert"
)

// ExpiringWindow is how close to expiry a certificate is reported as expiring.
const ExpiringWindow = 30 * 24 * time.Hour

// Status returns "valid", "expiring" or "expired" for a validity window.
func Status(notAfter, now time.Time) string {
	switch {
	case now.After(notAfter):
		return "expired"
	case notAfter.Sub(now) < ExpiringWindow:
		return "expiring"
	default:
		return "valid"
	}
}

// Expiry describes when notAfter falls relative to now, e.g. "11 months from now".
func Expiry(notAfter, now time.Time) string {
	return humanize.RelTime(notAfter, now, "ago", "from now")
}

// CertificateRows returns the field/value rows describing a record.
func CertificateRows(r cert.Record, keyAlgorithm string, now time.Time) [][]string {
	rows := [][]string{
		{"Subject", r.Subject.String()},
		{"Issuer", r.Issuer.String()},
	}
	if r.SerialNumber != nil {
		rows = append(rows, []string{"Serial", r.SerialNumber.String()})
	}
	if !r.NotBefore.IsZero() {
		rows = append(rows,
			[]string{"Not Before", r.NotBefore.UTC().Format(time.RFC3339)},
			[]string{"Not After", fmt.Sprintf("%s (%s)", r.NotAfter.UTC().Format(time.RFC3339), Expiry(r.NotAfter, now))},
			[]string{"Validity", fmt.Sprintf("%s days", humanize.Comma(r.ValiditySeconds()/86400))},
		)
	}
	for _, ext := range r.Extensions {
		name := ext.Name
		if ext.Critical {
			name += " (critical)"
		}
		rows = append(rows, []string{name, ext.Value})
	}
	if keyAlgorithm != "" {
		rows = append(rows, []string{"Key", keyAlgorithm})
	}
	if r.SignatureAlgorithm != x509.UnknownSignatureAlgorithm {
		rows = append(rows, []string{"Signature", r.SignatureAlgorithm.String()})
	}
	if !r.NotBefore.IsZero() {
		rows = append(rows, []string{"Status", FormatStatus(Status(r.NotAfter, now))})
	}
	return rows
}

// RenderCertificate writes a table describing a record to w.
func RenderCertificate(w io.Writer, r cert.Record, keyAlgorithm string, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(CertificateRows(r, keyAlgorithm, now))
	table.Render()
}

// ParseSubjectFlag splits a KEY=VALUE flag value.
func ParseSubjectFlag(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid subject field %q (expected KEY=VALUE)", s)
	}
	return key, value, nil
}
