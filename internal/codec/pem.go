// Package codec serializes certificates and RSA keys to and from PEM and
// signs certificate templates.
package codec

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	pkicrypto "github.com/remiblancher/qcert/internal/crypto"
)

// PEM block types.
const (
	PEMTypeCertificate   = "CERTIFICATE"
	PEMTypePrivateKey    = "PRIVATE KEY"
	PEMTypeRSAPrivateKey = "RSA PRIVATE KEY"
)

// Codec errors. Use errors.Is() to check for these through the error chain.
var (
	// ErrNoPEMBlock indicates the input contains no PEM block.
	ErrNoPEMBlock = errors.New("no PEM block found")

	// ErrUnexpectedPEMType indicates a PEM block of the wrong type.
	ErrUnexpectedPEMType = errors.New("unexpected PEM block type")

	// ErrUnsupportedKey indicates a key that is not RSA.
	ErrUnsupportedKey = errors.New("unsupported private key type")
)

// CertificateCodec converts certificates and keys between their in-memory
// and PEM forms and signs certificate templates.
type CertificateCodec interface {
	EncodeCertificatePEM(cert *x509.Certificate) ([]byte, error)
	EncodePrivateKeyPEM(kp *pkicrypto.KeyPair) ([]byte, error)
	DecodeCertificatePEM(data []byte) (*x509.Certificate, error)
	DecodePrivateKeyPEM(data []byte) (*pkicrypto.KeyPair, error)

	// Sign signs template with kp. A nil issuer makes the certificate
	// self-signed with the template's own subject.
	Sign(template, issuer *x509.Certificate, kp *pkicrypto.KeyPair, digest crypto.Hash) (*x509.Certificate, error)
}

// PEMCodec is the standard CertificateCodec.
type PEMCodec struct{}

// Ensure PEMCodec implements CertificateCodec.
var _ CertificateCodec = PEMCodec{}

// New returns the standard codec.
func New() PEMCodec {
	return PEMCodec{}
}

// EncodeCertificatePEM encodes a signed certificate.
func (PEMCodec) EncodeCertificatePEM(cert *x509.Certificate) ([]byte, error) {
	if cert == nil || len(cert.Raw) == 0 {
		return nil, fmt.Errorf("certificate is not signed")
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypeCertificate,
		Bytes: cert.Raw,
	}), nil
}

// EncodePrivateKeyPEM encodes the private key as PKCS#8.
func (PEMCodec) EncodePrivateKeyPEM(kp *pkicrypto.KeyPair) ([]byte, error) {
	if !kp.IsSet() {
		return nil, fmt.Errorf("key pair is not set")
	}
	der, err := x509.MarshalPKCS8PrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypePrivateKey,
		Bytes: der,
	}), nil
}

// DecodeCertificatePEM decodes the first certificate in data.
func (PEMCodec) DecodeCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}
	if block.Type != PEMTypeCertificate {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedPEMType, block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

// DecodePrivateKeyPEM decodes the first private key in data.
// PKCS#8 and PKCS#1 RSA keys are accepted.
func (PEMCodec) DecodePrivateKeyPEM(data []byte) (*pkicrypto.KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	var priv *rsa.PrivateKey
	switch block.Type {
	case PEMTypePrivateKey:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
		}
		priv = rsaKey

	case PEMTypeRSAPrivateKey:
		rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA key: %w", err)
		}
		priv = rsaKey

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedPEMType, block.Type)
	}

	kp, err := pkicrypto.NewKeyPair(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	return kp, nil
}
