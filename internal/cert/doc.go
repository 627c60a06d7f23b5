// Package cert manages the lifecycle of a self-signed X.509 certificate and
// its RSA private key.
//
// A Manager accumulates subject fields, generates and signs a certificate,
// writes it to PEM files, loads it back and renews it:
//
//	m := cert.NewManager()
//	if err := m.SetSubjectData("CN", "example.org"); err != nil {
//		return err
//	}
//	if err := m.SetSubjectData("san", []string{"DNS:example.org"}); err != nil {
//		return err
//	}
//	if err := m.Install("/etc/myapp/tls", "", ""); err != nil {
//		return err
//	}
//
// The record moves through StateEmpty, StateConfigured and StateSigned. Any
// change to a signed record makes it Configured again, and Generate and Renew
// always end with a signature over the current record. Load jumps straight
// to StateSigned.
//
// The package performs no logging; callers report errors.
package cert
