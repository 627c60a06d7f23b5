package cert

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/remiblancher/qcert/internal/x509util"
)

// State is the signing state of a record.
type State int

const (
	// StateEmpty is a fresh manager: no fields, no key, no certificate.
	StateEmpty State = iota

	// StateConfigured means the record was modified since it was last signed.
	StateConfigured

	// StateSigned means the certificate reflects the record.
	StateSigned
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConfigured:
		return "configured"
	case StateSigned:
		return "signed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Extension is a certificate extension in its textual form.
//
// The subjectAltName extension has Name "subjectAltName" and a value such as
// "DNS:example.org, URI:urn:x". Other extensions read from a certificate keep
// their registered name (or dotted OID) and a hex-encoded DER value.
type Extension struct {
	Name     string
	Critical bool
	Value    string
}

// IsSubjectAltName reports whether the extension is the string-form SAN.
func (e Extension) IsSubjectAltName() bool {
	return strings.EqualFold(e.Name, x509util.ExtSubjectAltName)
}

func (e Extension) oid() (asn1.ObjectIdentifier, error) {
	if e.IsSubjectAltName() {
		return x509util.OIDExtSubjectAltName, nil
	}
	return x509util.ExtensionOID(e.Name)
}

// Record holds the fields that make up a certificate.
type Record struct {
	Subject x509util.Name
	Issuer  x509util.Name

	// SerialNumber is nil or zero until first generation.
	SerialNumber *big.Int

	// Validity window, UTC, whole seconds.
	NotBefore time.Time
	NotAfter  time.Time

	Extensions []Extension

	// SignatureAlgorithm is set only while the record is signed.
	SignatureAlgorithm x509.SignatureAlgorithm
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := r
	c.Subject = r.Subject.Clone()
	c.Issuer = r.Issuer.Clone()
	if r.SerialNumber != nil {
		c.SerialNumber = new(big.Int).Set(r.SerialNumber)
	}
	c.Extensions = append([]Extension(nil), r.Extensions...)
	return c
}

// SubjectAltName returns the SAN string, if set.
func (r Record) SubjectAltName() (string, bool) {
	for _, ext := range r.Extensions {
		if ext.IsSubjectAltName() {
			return ext.Value, true
		}
	}
	return "", false
}

// Validity returns NotAfter - NotBefore. Windows longer than about 292
// years saturate; use ValiditySeconds for those.
func (r Record) Validity() time.Duration {
	return r.NotAfter.Sub(r.NotBefore)
}

// ValiditySeconds returns the length of the validity window in seconds.
func (r Record) ValiditySeconds() int64 {
	return r.NotAfter.Unix() - r.NotBefore.Unix()
}

func (r Record) hasValidity() bool {
	return !r.NotBefore.IsZero() && r.NotAfter.After(r.NotBefore)
}

// setSubjectAltName stores san in the single SAN slot, replacing any
// existing SAN extension in place.
func (r *Record) setSubjectAltName(san string) {
	ext := Extension{Name: x509util.ExtSubjectAltName, Value: san}

	out := r.Extensions[:0]
	placed := false
	for _, e := range r.Extensions {
		if oid, err := e.oid(); err == nil && oid.Equal(x509util.OIDExtSubjectAltName) {
			if !placed {
				out = append(out, ext)
				placed = true
			}
			continue
		}
		out = append(out, e)
	}
	if !placed {
		out = append(out, ext)
	}
	r.Extensions = out
}

// pkixExtension converts a non-SAN extension back to DER form.
func (e Extension) pkixExtension() (pkix.Extension, error) {
	oid, err := e.oid()
	if err != nil {
		return pkix.Extension{}, err
	}
	value, err := hex.DecodeString(e.Value)
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("extension %s: invalid hex value: %w", e.Name, err)
	}
	return pkix.Extension{Id: oid, Critical: e.Critical, Value: value}, nil
}

// recordFromCertificate rebuilds a signed record from a parsed certificate.
func recordFromCertificate(c *x509.Certificate) Record {
	r := Record{
		Subject:            x509util.NameFromPKIX(c.Subject),
		Issuer:             x509util.NameFromPKIX(c.Issuer),
		SerialNumber:       new(big.Int).Set(c.SerialNumber),
		NotBefore:          c.NotBefore.UTC(),
		NotAfter:           c.NotAfter.UTC(),
		SignatureAlgorithm: c.SignatureAlgorithm,
	}

	for _, ext := range c.Extensions {
		if ext.Id.Equal(x509util.OIDExtSubjectAltName) {
			if names, err := x509util.UnmarshalSAN(ext.Value); err == nil {
				r.Extensions = append(r.Extensions, Extension{
					Name:     x509util.ExtSubjectAltName,
					Critical: ext.Critical,
					Value:    x509util.FormatSAN(names),
				})
				continue
			}
			// Entries we cannot render stay opaque under the dotted OID.
			r.Extensions = append(r.Extensions, Extension{
				Name:     ext.Id.String(),
				Critical: ext.Critical,
				Value:    hex.EncodeToString(ext.Value),
			})
			continue
		}
		r.Extensions = append(r.Extensions, Extension{
			Name:     x509util.ExtensionName(ext.Id),
			Critical: ext.Critical,
			Value:    hex.EncodeToString(ext.Value),
		})
	}
	return r
}

// ValidTimespan returns the length of a certificate's validity window.
func ValidTimespan(c *x509.Certificate) time.Duration {
	if c == nil {
		return 0
	}
	return c.NotAfter.Sub(c.NotBefore)
}

// MaxNotAfter is the latest instant a certificate can encode
// (GeneralizedTime 99991231235959Z).
var MaxNotAfter = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// maxValidFor bounds validFor before any date arithmetic.
const maxValidFor = 10000 * 366

// addDays returns t plus n calendar days. The result must not pass
// MaxNotAfter.
func addDays(t time.Time, n int) (time.Time, error) {
	if n <= 0 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidValidity, n)
	}
	if n > maxValidFor {
		return time.Time{}, fmt.Errorf("%w: %d days is past %s", ErrInvalidValidity, n, MaxNotAfter.Format(time.RFC3339))
	}
	return checkNotAfter(t.AddDate(0, 0, n))
}

// addSeconds returns t plus secs seconds. The result must not pass
// MaxNotAfter.
func addSeconds(t time.Time, secs int64) (time.Time, error) {
	if secs <= 0 {
		return time.Time{}, fmt.Errorf("%w: %d seconds", ErrInvalidValidity, secs)
	}
	if secs > MaxNotAfter.Unix()-t.Unix() {
		return time.Time{}, fmt.Errorf("%w: window of %d seconds is past %s", ErrInvalidValidity, secs, MaxNotAfter.Format(time.RFC3339))
	}
	return time.Unix(t.Unix()+secs, 0).UTC(), nil
}

func checkNotAfter(t time.Time) (time.Time, error) {
	if t.After(MaxNotAfter) {
		return time.Time{}, fmt.Errorf("%w: notAfter %s is past %s", ErrInvalidValidity,
			t.Format(time.RFC3339), MaxNotAfter.Format(time.RFC3339))
	}
	return t, nil
}
