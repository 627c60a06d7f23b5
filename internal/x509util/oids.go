// Package x509util provides utilities for X.509 certificate handling:
// subject attribute names, Subject Alternative Name encoding, and
// certificate template building.
package x509util

import (
	"encoding/asn1"
	"fmt"
	"strconv"
	"strings"
)

// Standard X.509 extension OIDs.
var (
	// Key Usage extension
	OIDExtKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 15}

	// Extended Key Usage extension
	OIDExtExtKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}

	// Basic Constraints extension
	OIDExtBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}

	// Subject Alternative Name extension
	OIDExtSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

	// Authority Key Identifier extension
	OIDExtAuthorityKeyId = asn1.ObjectIdentifier{2, 5, 29, 35}

	// Subject Key Identifier extension
	OIDExtSubjectKeyId = asn1.ObjectIdentifier{2, 5, 29, 14}
)

// ExtSubjectAltName is the extension name used for SAN entries.
const ExtSubjectAltName = "subjectAltName"

var extensionNames = []struct {
	name string
	oid  asn1.ObjectIdentifier
}{
	{ExtSubjectAltName, OIDExtSubjectAltName},
	{"basicConstraints", OIDExtBasicConstraints},
	{"keyUsage", OIDExtKeyUsage},
	{"extendedKeyUsage", OIDExtExtKeyUsage},
	{"subjectKeyIdentifier", OIDExtSubjectKeyId},
	{"authorityKeyIdentifier", OIDExtAuthorityKeyId},
}

// ExtensionName returns the OpenSSL-style name of an extension OID,
// or its dotted form when the OID has no registered name.
func ExtensionName(oid asn1.ObjectIdentifier) string {
	for _, e := range extensionNames {
		if e.oid.Equal(oid) {
			return e.name
		}
	}
	return oid.String()
}

// ExtensionOID resolves an extension name (or dotted OID) to its OID.
func ExtensionOID(name string) (asn1.ObjectIdentifier, error) {
	for _, e := range extensionNames {
		if strings.EqualFold(e.name, name) {
			return e.oid, nil
		}
	}
	return ParseOID(name)
}

// OIDEqual compares two OIDs for equality.
func OIDEqual(a, b asn1.ObjectIdentifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ParseOID parses a dotted-decimal OID such as "2.5.4.3".
func ParseOID(s string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid OID: %q", s)
	}
	oid := make(asn1.ObjectIdentifier, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid OID: %q", s)
		}
		oid[i] = n
	}
	return oid, nil
}
