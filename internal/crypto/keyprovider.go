package crypto

import (
	"crypto/rand"
	"io"
)

// KeyPairProvider generates key pairs for the certificate manager.
type KeyPairProvider interface {
	// GenerateKey generates a new key pair for alg.
	GenerateKey(alg AlgorithmID) (*KeyPair, error)
}

// SoftwareKeyProvider implements KeyPairProvider with in-process key generation.
type SoftwareKeyProvider struct {
	random io.Reader
}

// Ensure SoftwareKeyProvider implements KeyPairProvider.
var _ KeyPairProvider = (*SoftwareKeyProvider)(nil)

// NewSoftwareKeyProvider creates a provider reading entropy from crypto/rand.
func NewSoftwareKeyProvider() *SoftwareKeyProvider {
	return &SoftwareKeyProvider{random: rand.Reader}
}

// NewSoftwareKeyProviderWithRand creates a provider with a custom random source.
func NewSoftwareKeyProviderWithRand(random io.Reader) *SoftwareKeyProvider {
	return &SoftwareKeyProvider{random: random}
}

// GenerateKey generates a new key pair.
func (p *SoftwareKeyProvider) GenerateKey(alg AlgorithmID) (*KeyPair, error) {
	random := p.random
	if random == nil {
		random = rand.Reader
	}
	return GenerateKeyPairWithRand(random, alg)
}
