// Package crypto provides the key material used by the certificate manager.
// Only RSA keys are supported.
package crypto

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"strings"
)

// AlgorithmID identifies a key algorithm.
type AlgorithmID string

// Supported key algorithms.
const (
	AlgRSA2048 AlgorithmID = "rsa-2048"
	AlgRSA4096 AlgorithmID = "rsa-4096"
)

// DefaultAlgorithm is the key algorithm used for freshly generated certificates.
const DefaultAlgorithm = AlgRSA2048

// algorithmInfo holds metadata about an algorithm.
type algorithmInfo struct {
	KeySizeBits int
	Description string
}

var algorithms = map[AlgorithmID]algorithmInfo{
	AlgRSA2048: {
		KeySizeBits: 2048,
		Description: "RSA 2048-bit",
	},
	AlgRSA4096: {
		KeySizeBits: 4096,
		Description: "RSA 4096-bit",
	},
}

// IsValid returns true if the algorithm is supported.
func (a AlgorithmID) IsValid() bool {
	_, ok := algorithms[a]
	return ok
}

// KeySize returns the modulus size in bits, or 0 for unknown algorithms.
func (a AlgorithmID) KeySize() int {
	return algorithms[a].KeySizeBits
}

// Description returns a human-readable description.
func (a AlgorithmID) Description() string {
	if info, ok := algorithms[a]; ok {
		return info.Description
	}
	return "unknown"
}

func (a AlgorithmID) String() string {
	return string(a)
}

// ParseAlgorithm parses an algorithm name such as "rsa-2048".
func ParseAlgorithm(s string) (AlgorithmID, error) {
	alg := AlgorithmID(strings.ToLower(strings.TrimSpace(s)))
	if !alg.IsValid() {
		return "", fmt.Errorf("unknown algorithm: %s", s)
	}
	return alg, nil
}

// AlgorithmForBits maps an RSA modulus size to its AlgorithmID.
func AlgorithmForBits(bits int) (AlgorithmID, error) {
	for id, info := range algorithms {
		if info.KeySizeBits == bits {
			return id, nil
		}
	}
	return "", fmt.Errorf("unsupported RSA key size: %d", bits)
}

// SignatureAlgorithm returns the X.509 signature algorithm for RSA PKCS#1 v1.5
// with the given digest.
func SignatureAlgorithm(digest crypto.Hash) (x509.SignatureAlgorithm, error) {
	switch digest {
	case crypto.SHA256:
		return x509.SHA256WithRSA, nil
	case crypto.SHA384:
		return x509.SHA384WithRSA, nil
	case crypto.SHA512:
		return x509.SHA512WithRSA, nil
	default:
		return x509.UnknownSignatureAlgorithm, fmt.Errorf("unsupported digest: %v", digest)
	}
}
