package model

import (
	"os"
	"strings"
	"sync"
)

// CertRequest describes a self-signed certificate to generate.
type CertRequest struct {
	CommonName   string
	Organization string
	SANs         []string
	ValidityDays int
}

// CertificateBundle holds a generated key pair. The private key is also
// present on disk under Dir until Destroy is called.
type CertificateBundle struct {
	Key      []byte
	Cert     []byte
	Subject  string
	SANs     []string
	KeyPath  string
	CertPath string
	Dir      string

	once sync.Once
}

// Destroy zeroes the in-memory key and removes the temporary directory.
// It is safe to call more than once.
func (b *CertificateBundle) Destroy() error {
	if b == nil {
		return nil
	}
	var err error
	b.once.Do(func() {
		for i := range b.Key {
			b.Key[i] = 0
		}
		if b.Dir != "" {
			err = os.RemoveAll(b.Dir)
		}
	})
	return err
}

// WildcardSANs returns the subject alternative names for a wildcard subject:
// the wildcard itself and its apex domain.
func WildcardSANs(wildcard string) []string {
	apex := strings.TrimPrefix(wildcard, "*.")
	if apex == wildcard {
		return []string{wildcard}
	}
	return []string{wildcard, apex}
}
