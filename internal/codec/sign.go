package codec

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	pkicrypto "github.com/remiblancher/qcert/internal/crypto"
)

// Sign creates and signs a certificate from template.
func (PEMCodec) Sign(template, issuer *x509.Certificate, kp *pkicrypto.KeyPair, digest crypto.Hash) (*x509.Certificate, error) {
	if template == nil {
		return nil, fmt.Errorf("certificate template is nil")
	}
	if !kp.IsSet() {
		return nil, fmt.Errorf("key pair is not set")
	}

	sigAlg, err := pkicrypto.SignatureAlgorithm(digest)
	if err != nil {
		return nil, err
	}

	tmpl := *template
	tmpl.SignatureAlgorithm = sigAlg

	// If self-signed, issuer is the template itself
	if issuer == nil {
		issuer = &tmpl
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, issuer, kp.PublicKey, kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created certificate: %w", err)
	}
	return cert, nil
}
