package x509util

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

// CertificateRequest holds the parameters for creating a certificate.
type CertificateRequest struct {
	Subject Name

	// Validity period
	NotBefore time.Time
	NotAfter  time.Time

	SerialNumber *big.Int

	SignatureAlgorithm x509.SignatureAlgorithm

	// Extensions, emitted in order.
	Extensions []pkix.Extension
}

// CertificateBuilder materializes a CertificateRequest into an
// x509.Certificate template.
type CertificateBuilder struct {
	request *CertificateRequest
	err     error
}

// NewCertificateBuilder creates a new certificate builder.
func NewCertificateBuilder() *CertificateBuilder {
	return &CertificateBuilder{
		request: &CertificateRequest{},
	}
}

// Subject sets the certificate subject.
func (b *CertificateBuilder) Subject(name Name) *CertificateBuilder {
	b.request.Subject = name.Clone()
	return b
}

// Validity sets the certificate validity period.
func (b *CertificateBuilder) Validity(notBefore, notAfter time.Time) *CertificateBuilder {
	b.request.NotBefore = notBefore
	b.request.NotAfter = notAfter
	return b
}

// SerialNumber sets the serial number.
func (b *CertificateBuilder) SerialNumber(sn *big.Int) *CertificateBuilder {
	if sn != nil {
		b.request.SerialNumber = new(big.Int).Set(sn)
	}
	return b
}

// SignatureAlgorithm sets the signature algorithm.
func (b *CertificateBuilder) SignatureAlgorithm(alg x509.SignatureAlgorithm) *CertificateBuilder {
	b.request.SignatureAlgorithm = alg
	return b
}

// AddExtension adds a raw extension.
func (b *CertificateBuilder) AddExtension(ext pkix.Extension) *CertificateBuilder {
	b.request.Extensions = append(b.request.Extensions, ext)
	return b
}

// SubjectAltName adds a subjectAltName extension from its string form.
func (b *CertificateBuilder) SubjectAltName(san string, critical bool) *CertificateBuilder {
	names, err := ParseSAN(san)
	if err != nil {
		b.setErr(err)
		return b
	}
	value, err := MarshalSAN(names)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.AddExtension(pkix.Extension{
		Id:       OIDExtSubjectAltName,
		Critical: critical,
		Value:    value,
	})
}

func (b *CertificateBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build creates an x509.Certificate template from the request.
func (b *CertificateBuilder) Build() (*x509.Certificate, error) {
	if b.err != nil {
		return nil, b.err
	}

	req := b.request
	if req.SerialNumber == nil || req.SerialNumber.Sign() <= 0 {
		return nil, fmt.Errorf("serial number must be positive")
	}
	if !req.NotAfter.After(req.NotBefore) {
		return nil, fmt.Errorf("notAfter (%s) must be after notBefore (%s)",
			req.NotAfter.Format(time.RFC3339), req.NotBefore.Format(time.RFC3339))
	}

	return &x509.Certificate{
		SerialNumber:       new(big.Int).Set(req.SerialNumber),
		Subject:            req.Subject.ToPKIX(),
		NotBefore:          req.NotBefore,
		NotAfter:           req.NotAfter,
		SignatureAlgorithm: req.SignatureAlgorithm,
		ExtraExtensions:    append([]pkix.Extension(nil), req.Extensions...),
	}, nil
}

// IssuerTemplate returns a parent certificate carrying only the issuer
// name and public key, for signing a certificate whose issuer is kept
// independently of its subject.
func IssuerTemplate(issuer Name, pub any) *x509.Certificate {
	return &x509.Certificate{
		Subject:   issuer.ToPKIX(),
		PublicKey: pub,
	}
}
