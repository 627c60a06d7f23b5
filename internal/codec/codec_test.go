package codec

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	pkicrypto "github.com/remiblancher/qcert/internal/crypto"
)

func generateTestKey(t *testing.T) *pkicrypto.KeyPair {
	t.Helper()
	kp, err := pkicrypto.GenerateKeyPair(pkicrypto.AlgRSA2048)
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	return kp
}

func testTemplate() *x509.Certificate {
	now := time.Now().UTC().Truncate(time.Second)
	return &x509.Certificate{
		SerialNumber: big.NewInt(1000),
		Subject:      pkix.Name{CommonName: "codec.example"},
		NotBefore:    now,
		NotAfter:     now.Add(time.Hour),
	}
}

// =============================================================================
// [Unit] Sign Tests
// =============================================================================

func TestU_Sign_SelfSigned(t *testing.T) {
	kp := generateTestKey(t)

	cert, err := New().Sign(testTemplate(), nil, kp, crypto.SHA256)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if cert.SignatureAlgorithm != x509.SHA256WithRSA {
		t.Errorf("SignatureAlgorithm = %v, want SHA256WithRSA", cert.SignatureAlgorithm)
	}
	if cert.Issuer.CommonName != "codec.example" {
		t.Errorf("Issuer CN = %q", cert.Issuer.CommonName)
	}
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		t.Errorf("CheckSignature() error = %v", err)
	}
	if !kp.Matches(cert.PublicKey) {
		t.Error("certificate public key does not match key pair")
	}
}

func TestU_Sign_Errors(t *testing.T) {
	kp := generateTestKey(t)
	c := New()

	if _, err := c.Sign(nil, nil, kp, crypto.SHA256); err == nil {
		t.Error("Sign(nil template) should fail")
	}
	if _, err := c.Sign(testTemplate(), nil, &pkicrypto.KeyPair{}, crypto.SHA256); err == nil {
		t.Error("Sign(unset key) should fail")
	}
	if _, err := c.Sign(testTemplate(), nil, kp, crypto.MD5); err == nil {
		t.Error("Sign(MD5) should fail")
	}
}

// =============================================================================
// [Unit] PEM Tests
// =============================================================================

func TestU_CertificatePEM_RoundTrip(t *testing.T) {
	kp := generateTestKey(t)
	c := New()

	cert, err := c.Sign(testTemplate(), nil, kp, crypto.SHA256)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	data, err := c.EncodeCertificatePEM(cert)
	if err != nil {
		t.Fatalf("EncodeCertificatePEM() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "-----BEGIN CERTIFICATE-----") {
		t.Errorf("unexpected PEM header: %q", string(data[:30]))
	}

	decoded, err := c.DecodeCertificatePEM(data)
	if err != nil {
		t.Fatalf("DecodeCertificatePEM() error = %v", err)
	}
	if !decoded.Equal(cert) {
		t.Error("decoded certificate differs from original")
	}
}

func TestU_EncodeCertificatePEM_Unsigned(t *testing.T) {
	if _, err := New().EncodeCertificatePEM(testTemplate()); err == nil {
		t.Error("EncodeCertificatePEM(unsigned) should fail")
	}
}

func TestU_PrivateKeyPEM_RoundTrip(t *testing.T) {
	kp := generateTestKey(t)
	c := New()

	data, err := c.EncodePrivateKeyPEM(kp)
	if err != nil {
		t.Fatalf("EncodePrivateKeyPEM() error = %v", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != PEMTypePrivateKey {
		t.Fatalf("expected a %s block", PEMTypePrivateKey)
	}

	decoded, err := c.DecodePrivateKeyPEM(data)
	if err != nil {
		t.Fatalf("DecodePrivateKeyPEM() error = %v", err)
	}
	if !decoded.IsValid() {
		t.Error("decoded key should be valid")
	}
	if !decoded.PrivateKey.Equal(kp.PrivateKey) {
		t.Error("decoded key differs from original")
	}
}

func TestU_DecodePrivateKeyPEM_PKCS1(t *testing.T) {
	kp := generateTestKey(t)
	data := pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypeRSAPrivateKey,
		Bytes: x509.MarshalPKCS1PrivateKey(kp.PrivateKey),
	})

	decoded, err := New().DecodePrivateKeyPEM(data)
	if err != nil {
		t.Fatalf("DecodePrivateKeyPEM() error = %v", err)
	}
	if decoded.Algorithm != pkicrypto.AlgRSA2048 {
		t.Errorf("Algorithm = %s", decoded.Algorithm)
	}
}

func TestU_Decode_Errors(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa.GenerateKey() error = %v", err)
	}
	ecDER, err := x509.MarshalPKCS8PrivateKey(ecKey)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey() error = %v", err)
	}
	ecPEM := pem.EncodeToMemory(&pem.Block{Type: PEMTypePrivateKey, Bytes: ecDER})
	garbagePEM := pem.EncodeToMemory(&pem.Block{Type: PEMTypeCertificate, Bytes: []byte("garbage")})

	c := New()

	tests := []struct {
		name    string
		decode  func() error
		wantErr error
	}{
		{
			name:    "[Unit] Decode: certificate without PEM",
			decode:  func() error { _, err := c.DecodeCertificatePEM([]byte("not pem")); return err },
			wantErr: ErrNoPEMBlock,
		},
		{
			name:    "[Unit] Decode: key block where certificate expected",
			decode:  func() error { _, err := c.DecodeCertificatePEM(ecPEM); return err },
			wantErr: ErrUnexpectedPEMType,
		},
		{
			name:    "[Unit] Decode: key without PEM",
			decode:  func() error { _, err := c.DecodePrivateKeyPEM(nil); return err },
			wantErr: ErrNoPEMBlock,
		},
		{
			name:    "[Unit] Decode: certificate block where key expected",
			decode:  func() error { _, err := c.DecodePrivateKeyPEM(garbagePEM); return err },
			wantErr: ErrUnexpectedPEMType,
		},
		{
			name:    "[Unit] Decode: ECDSA key",
			decode:  func() error { _, err := c.DecodePrivateKeyPEM(ecPEM); return err },
			wantErr: ErrUnsupportedKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := c.DecodeCertificatePEM(garbagePEM); err == nil {
		t.Error("DecodeCertificatePEM(garbage DER) should fail")
	}
}
