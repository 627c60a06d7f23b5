package cert

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/remiblancher/qcert/internal/codec"
	pkicrypto "github.com/remiblancher/qcert/internal/crypto"
	"github.com/remiblancher/qcert/internal/x509util"
)

const (
	// DefaultValidFor is the validity, in days, used by Install.
	DefaultValidFor = 365

	// DefaultCertFile and DefaultKeyFile are the file names used when the
	// caller passes empty names.
	DefaultCertFile = "cert.pem"
	DefaultKeyFile  = "priv_key.pem"

	// InitialSerial is assigned on the first generation.
	InitialSerial = 1000
)

// File modes for installed files.
const (
	dirMode  = 0o755
	certMode = 0o644
	keyMode  = 0o600
)

// Field is one subject field passed to Generate. Value is a string, or a
// []string for subjectAltName.
type Field struct {
	Key   string
	Value any
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeyProvider sets the key pair provider. Defaults to software RSA.
func WithKeyProvider(p pkicrypto.KeyPairProvider) Option {
	return func(m *Manager) { m.keys = p }
}

// WithCodec sets the certificate codec.
func WithCodec(c codec.CertificateCodec) Option {
	return func(m *Manager) { m.codec = c }
}

// WithFileSystem sets the filesystem used by Install, Save and Load.
func WithFileSystem(fs FileSystem) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDigest sets the signature digest. Defaults to SHA-256.
func WithDigest(h crypto.Hash) Option {
	return func(m *Manager) { m.digest = h }
}

// Manager manages one self-signed certificate and its RSA key.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	record Record
	state  State
	key    *pkicrypto.KeyPair
	cert   *x509.Certificate

	keys   pkicrypto.KeyPairProvider
	codec  codec.CertificateCodec
	fs     FileSystem
	now    func() time.Time
	digest crypto.Hash
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		keys:   pkicrypto.NewSoftwareKeyProvider(),
		codec:  codec.New(),
		fs:     OSFileSystem{},
		now:    time.Now,
		digest: crypto.SHA256,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record returns a copy of the current record.
func (m *Manager) Record() Record { return m.record.Clone() }

// Certificate returns the signed certificate, or nil if the record is not
// signed.
func (m *Manager) Certificate() *x509.Certificate { return m.cert }

// KeyPair returns the key pair, or nil before the first signing or load.
func (m *Manager) KeyPair() *pkicrypto.KeyPair { return m.key }

// State returns the signing state.
func (m *Manager) State() State { return m.state }

// Signed reports whether the certificate reflects the record.
func (m *Manager) Signed() bool { return m.state == StateSigned }

// SetSubjectData sets one subject field.
//
// The keys "san" and "subjectAltName" (any case) set the Subject Alternative
// Name from a string or a []string, which is joined with ", ". Any other key
// must be a known attribute name in short ("CN") or long ("commonName") form.
// On error the record is left unchanged.
func (m *Manager) SetSubjectData(key string, value any) error {
	return m.setSubjectData("set_subject_data", key, value)
}

func (m *Manager) setSubjectData(op, key string, value any) error {
	if strings.EqualFold(key, "san") || strings.EqualFold(key, x509util.ExtSubjectAltName) {
		san, err := sanValue(value)
		if err != nil {
			return &Error{Op: op, Key: key, Err: err}
		}
		if _, err := x509util.ParseSAN(san); err != nil {
			return &Error{Op: op, Key: key, Err: err}
		}
		m.record.setSubjectAltName(san)
		m.modified()
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return &Error{Op: op, Key: key, Err: fmt.Errorf("%w: %T", ErrInvalidValue, value)}
	}
	if err := m.record.Subject.Set(key, s); err != nil {
		switch {
		case errors.Is(err, x509util.ErrUnknownAttribute):
			return &Error{Op: op, Key: key, Err: ErrUnknownSubjectField}
		case errors.Is(err, x509util.ErrInvalidAttributeValue):
			return &Error{Op: op, Key: key, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
		default:
			return &Error{Op: op, Key: key, Err: err}
		}
	}
	m.modified()
	return nil
}

func sanValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []string:
		return x509util.JoinSAN(v), nil
	case []any:
		entries := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return "", fmt.Errorf("%w: SAN entry of type %T", ErrInvalidValue, e)
			}
			entries = append(entries, s)
		}
		return x509util.JoinSAN(entries), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidValue, value)
	}
}

// modified records that the certificate no longer reflects the record.
func (m *Manager) modified() {
	m.state = StateConfigured
	m.cert = nil
	m.record.SignatureAlgorithm = x509.UnknownSignatureAlgorithm
}

// Generate applies fields in order, sets the validity window to validFor
// calendar days from now, copies the subject to the issuer and signs.
// validFor must be positive and must not push notAfter past MaxNotAfter.
//
// Fields are applied one at a time: the first invalid field aborts
// generation, and fields before it stay applied.
func (m *Manager) Generate(fields []Field, validFor int) error {
	const op = "generate"

	notBefore := m.currentTime()
	notAfter, err := addDays(notBefore, validFor)
	if err != nil {
		return newError(op, err)
	}
	for _, f := range fields {
		if err := m.setSubjectData(op, f.Key, f.Value); err != nil {
			return err
		}
	}

	if m.record.SerialNumber == nil || m.record.SerialNumber.Sign() == 0 {
		m.record.SerialNumber = big.NewInt(InitialSerial)
	}
	m.record.NotBefore = notBefore
	m.record.NotAfter = notAfter
	m.record.Issuer = m.record.Subject.Clone()
	m.modified()

	return m.sign(op)
}

// Renew increments the serial number, restarts the validity window now and
// re-signs. The window keeps its previous length unless validFor is given.
func (m *Manager) Renew(validFor *int) error {
	const op = "renew"

	if !m.key.IsValid() {
		return newError(op, ErrNoKey)
	}
	if !m.record.hasValidity() || m.record.SerialNumber == nil {
		return newError(op, ErrNotGenerated)
	}

	notBefore := m.currentTime()
	var notAfter time.Time
	var err error
	if validFor != nil {
		notAfter, err = addDays(notBefore, *validFor)
	} else {
		notAfter, err = addSeconds(notBefore, m.record.ValiditySeconds())
	}
	if err != nil {
		return newError(op, err)
	}

	m.record.SerialNumber = new(big.Int).Add(m.record.SerialNumber, big.NewInt(1))
	m.record.NotBefore = notBefore
	m.record.NotAfter = notAfter
	m.modified()

	return m.sign(op)
}

// sign signs the record with the manager's key, generating an RSA key
// first if none is set. It does nothing if the record is already signed.
func (m *Manager) sign(op string) error {
	if m.state == StateSigned {
		return nil
	}

	if !m.key.IsSet() {
		kp, err := m.keys.GenerateKey(pkicrypto.DefaultAlgorithm)
		if err != nil {
			return newError(op, fmt.Errorf("failed to generate key: %w", err))
		}
		m.key = kp
	}

	sigAlg, err := pkicrypto.SignatureAlgorithm(m.digest)
	if err != nil {
		return newError(op, err)
	}

	builder := x509util.NewCertificateBuilder().
		Subject(m.record.Subject).
		SerialNumber(m.record.SerialNumber).
		Validity(m.record.NotBefore, m.record.NotAfter).
		SignatureAlgorithm(sigAlg)
	for _, ext := range m.record.Extensions {
		if ext.IsSubjectAltName() {
			builder.SubjectAltName(ext.Value, ext.Critical)
			continue
		}
		pe, err := ext.pkixExtension()
		if err != nil {
			return newError(op, err)
		}
		builder.AddExtension(pe)
	}

	template, err := builder.Build()
	if err != nil {
		return newError(op, err)
	}

	issuer := x509util.IssuerTemplate(m.record.Issuer, m.key.PublicKey)
	cert, err := m.codec.Sign(template, issuer, m.key, m.digest)
	if err != nil {
		return newError(op, fmt.Errorf("failed to sign certificate: %w", err))
	}

	m.cert = cert
	m.record.SignatureAlgorithm = cert.SignatureAlgorithm
	m.state = StateSigned
	return nil
}

// Install creates installDir, regenerates the certificate with the default
// validity and writes it with its key. Empty file names select the defaults.
// Filesystem errors are returned unchanged and partial writes are not
// cleaned up.
func (m *Manager) Install(installDir, certFile, keyFile string) error {
	if err := m.fs.MkdirAll(installDir, dirMode); err != nil {
		return err
	}
	if err := m.Generate(nil, DefaultValidFor); err != nil {
		return err
	}
	return m.Save(installDir, certFile, keyFile)
}

// Create creates installDir, generates a certificate from fields valid for
// validFor days and writes it with its key. Unlike Install, the caller
// chooses the fields and validity. Filesystem errors are returned
// unchanged.
func (m *Manager) Create(installDir, certFile, keyFile string, fields []Field, validFor int) error {
	if err := m.fs.MkdirAll(installDir, dirMode); err != nil {
		return err
	}
	if err := m.Generate(fields, validFor); err != nil {
		return err
	}
	return m.Save(installDir, certFile, keyFile)
}

// Save writes the signed certificate and its key to installDir without
// regenerating them.
func (m *Manager) Save(installDir, certFile, keyFile string) error {
	const op = "save"

	if !m.Signed() {
		return newError(op, ErrNotSigned)
	}
	certPath, keyPath := Paths(installDir, certFile, keyFile)

	certPEM, err := m.codec.EncodeCertificatePEM(m.cert)
	if err != nil {
		return newError(op, err)
	}
	keyPEM, err := m.codec.EncodePrivateKeyPEM(m.key)
	if err != nil {
		return newError(op, err)
	}

	if err := m.fs.WriteFile(certPath, certPEM, certMode); err != nil {
		return err
	}
	return m.fs.WriteFile(keyPath, keyPEM, keyMode)
}

// Load replaces the manager's state with the certificate and key read from
// certFile and keyFile. The key must match the certificate. On error the
// manager is unchanged.
//
// Codec errors are returned as the Err of an *Error whose Key names the
// file, without further wrapping.
func (m *Manager) Load(certFile, keyFile string) error {
	const op = "load"

	certPEM, err := m.fs.ReadFile(certFile)
	if err != nil {
		return newError(op, fmt.Errorf("failed to read certificate: %w", err))
	}
	cert, err := m.codec.DecodeCertificatePEM(certPEM)
	if err != nil {
		return &Error{Op: op, Key: certFile, Err: err}
	}

	keyPEM, err := m.fs.ReadFile(keyFile)
	if err != nil {
		return newError(op, fmt.Errorf("failed to read private key: %w", err))
	}
	kp, err := m.codec.DecodePrivateKeyPEM(keyPEM)
	if err != nil {
		return &Error{Op: op, Key: keyFile, Err: err}
	}

	if !kp.Matches(cert.PublicKey) {
		return newError(op, ErrKeyMismatch)
	}

	m.record = recordFromCertificate(cert)
	m.key = kp
	m.cert = cert
	m.state = StateSigned
	return nil
}

// Paths returns the certificate and key paths for an install directory.
func Paths(installDir, certFile, keyFile string) (string, string) {
	if certFile == "" {
		certFile = DefaultCertFile
	}
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	return filepath.Join(installDir, certFile), filepath.Join(installDir, keyFile)
}

func (m *Manager) currentTime() time.Time {
	return m.now().UTC().Truncate(time.Second)
}
