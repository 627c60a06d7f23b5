package audit

import (
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"github.com/remiblancher/qcert/internal/cert"
)

var (
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex

	enabled bool
)

// Init installs w as the global audit writer. A nil writer disables
// audit logging.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}

	globalWriter = w
	enabled = true
	return nil
}

// InitFile initializes the global audit logger with a file writer.
// An empty path disables audit logging.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}

	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global audit writer.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	enabled = false
	return err
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes an audit event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	return w.Write(event)
}

// MustLog writes an audit event and returns an error suitable for
// failing the parent operation if audit logging fails.
//
//	if err := audit.MustLog(event); err != nil {
//	    return err // Operation fails if audit fails
//	}
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// CertDetails describes the certificate an event refers to.
type CertDetails struct {
	Path      string
	Serial    string
	Subject   string
	SAN       string
	Algorithm string
	NotBefore time.Time
	NotAfter  time.Time
}

// CertEvent builds a certificate event. A non-nil opErr marks it as a
// failure and records the reason.
func CertEvent(eventType EventType, d CertDetails, opErr error) *Event {
	result := ResultSuccess
	ctx := Context{
		Algorithm: d.Algorithm,
		SAN:       d.SAN,
	}
	if !d.NotBefore.IsZero() {
		ctx.NotBefore = d.NotBefore.UTC().Format(time.RFC3339)
		ctx.NotAfter = d.NotAfter.UTC().Format(time.RFC3339)
	}
	if opErr != nil {
		result = ResultFailure
		ctx.Reason = opErr.Error()
	}

	return NewEvent(eventType, result).
		WithObject(Object{
			Type:    "certificate",
			Serial:  d.Serial,
			Subject: d.Subject,
			Path:    d.Path,
		}).
		WithContext(ctx)
}

// LogCertGenerated logs a certificate generation.
func LogCertGenerated(d CertDetails, opErr error) error {
	return MustLog(CertEvent(EventCertGenerated, d, opErr))
}

// LogCertInstalled logs a certificate installation.
func LogCertInstalled(d CertDetails, opErr error) error {
	return MustLog(CertEvent(EventCertInstalled, d, opErr))
}

// LogCertLoaded logs a certificate load.
func LogCertLoaded(d CertDetails, opErr error) error {
	return MustLog(CertEvent(EventCertLoaded, d, opErr))
}

// LogCertRenewed logs a certificate renewal.
func LogCertRenewed(d CertDetails, opErr error) error {
	return MustLog(CertEvent(EventCertRenewed, d, opErr))
}

// LogKeyGenerated logs the creation of a private key. The key itself is
// never logged.
func LogKeyGenerated(path, algorithm string) error {
	event := NewEvent(EventKeyGenerated, ResultSuccess).
		WithObject(Object{
			Type: "key",
			Path: path,
		}).
		WithContext(Context{
			Algorithm: algorithm,
		})

	return MustLog(event)
}

// RecordDetails summarizes a certificate record for an audit event.
func RecordDetails(path string, r cert.Record) CertDetails {
	d := CertDetails{
		Path:      path,
		Subject:   r.Subject.String(),
		NotBefore: r.NotBefore,
		NotAfter:  r.NotAfter,
	}
	if r.SerialNumber != nil {
		d.Serial = r.SerialNumber.String()
	}
	if san, ok := r.SubjectAltName(); ok {
		d.SAN = san
	}
	if r.SignatureAlgorithm != x509.UnknownSignatureAlgorithm {
		d.Algorithm = r.SignatureAlgorithm.String()
	}
	return d
}
