package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
)

// KeyPair holds an RSA public/private key pair.
// The zero value is an unset key pair.
type KeyPair struct {
	Algorithm  AlgorithmID
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// IsSet reports whether key material has been generated or loaded.
func (kp *KeyPair) IsSet() bool {
	return kp != nil && kp.Algorithm != "" && kp.PrivateKey != nil
}

// IsValid performs a structural and mathematical check of the key pair.
func (kp *KeyPair) IsValid() bool {
	if !kp.IsSet() {
		return false
	}
	if err := kp.PrivateKey.Validate(); err != nil {
		return false
	}
	return kp.PublicKey != nil && kp.PublicKey.Equal(&kp.PrivateKey.PublicKey)
}

// Signer returns the private key as a crypto.Signer.
func (kp *KeyPair) Signer() crypto.Signer {
	if kp == nil || kp.PrivateKey == nil {
		return nil
	}
	return kp.PrivateKey
}

// Matches reports whether pub is the public half of this key pair.
func (kp *KeyPair) Matches(pub crypto.PublicKey) bool {
	if !kp.IsSet() {
		return false
	}
	return kp.PrivateKey.PublicKey.Equal(pub)
}

// NewKeyPair wraps an existing RSA private key.
func NewKeyPair(priv *rsa.PrivateKey) (*KeyPair, error) {
	if priv == nil {
		return nil, fmt.Errorf("private key is nil")
	}
	alg, err := AlgorithmForBits(priv.N.BitLen())
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Algorithm:  alg,
		PrivateKey: priv,
		PublicKey:  &priv.PublicKey,
	}, nil
}

// GenerateKeyPair generates a new key pair for the specified algorithm.
//
// Example:
//
//	kp, err := crypto.GenerateKeyPair(crypto.AlgRSA2048)
//	if err != nil {
//	    log.Fatal(err)
//	}
func GenerateKeyPair(alg AlgorithmID) (*KeyPair, error) {
	return GenerateKeyPairWithRand(rand.Reader, alg)
}

// GenerateKeyPairWithRand generates a key pair using the provided random source.
func GenerateKeyPairWithRand(random io.Reader, alg AlgorithmID) (*KeyPair, error) {
	if !alg.IsValid() {
		return nil, fmt.Errorf("unsupported algorithm: %s", alg)
	}

	priv, err := rsa.GenerateKey(random, alg.KeySize())
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key: %w", alg, err)
	}

	return &KeyPair{
		Algorithm:  alg,
		PrivateKey: priv,
		PublicKey:  &priv.PublicKey,
	}, nil
}
