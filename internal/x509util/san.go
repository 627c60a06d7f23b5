package x509util

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ErrInvalidSAN is returned for malformed Subject Alternative Name entries.
var ErrInvalidSAN = errors.New("invalid subject alternative name")

// SANType identifies the kind of a GeneralName.
type SANType string

// Supported GeneralName kinds, named as in OpenSSL configuration strings.
const (
	SANDNS   SANType = "DNS"
	SANURI   SANType = "URI"
	SANEmail SANType = "email"
	SANIP    SANType = "IP"
)

// GeneralName tags (RFC 5280, section 4.2.1.6).
const (
	tagEmail = 1
	tagDNS   = 2
	tagURI   = 6
	tagIP    = 7
)

// GeneralName is one entry of a Subject Alternative Name extension.
type GeneralName struct {
	Type  SANType
	Value string
}

func (g GeneralName) String() string {
	return string(g.Type) + ":" + g.Value
}

// JoinSAN joins SAN entries the way they are stored on a record.
func JoinSAN(entries []string) string {
	return strings.Join(entries, ", ")
}

// ParseSAN parses an OpenSSL-style SAN string such as
// "DNS:example.org, URI:spiffe://x, IP:10.0.0.1".
func ParseSAN(s string) ([]GeneralName, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidSAN)
	}

	var names []GeneralName
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		kind, value, ok := strings.Cut(part, ":")
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: %q must have the form TYPE:value", ErrInvalidSAN, part)
		}

		gn := GeneralName{Value: strings.TrimSpace(value)}
		switch strings.ToUpper(strings.TrimSpace(kind)) {
		case "DNS":
			gn.Type = SANDNS
		case "URI":
			gn.Type = SANURI
		case "EMAIL":
			gn.Type = SANEmail
		case "IP", "IP ADDRESS":
			gn.Type = SANIP
		default:
			return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidSAN, kind)
		}

		if err := ValidateGeneralName(gn); err != nil {
			return nil, err
		}
		names = append(names, gn)
	}
	return names, nil
}

// FormatSAN renders entries back to the stored string form.
func FormatSAN(names []GeneralName) string {
	parts := make([]string, len(names))
	for i, gn := range names {
		parts[i] = gn.String()
	}
	return JoinSAN(parts)
}

// ValidateGeneralName checks a single entry.
// DNS names must be valid IDNA host names; wildcards are only accepted
// in the left-most label and never directly on a public suffix.
func ValidateGeneralName(gn GeneralName) error {
	switch gn.Type {
	case SANDNS:
		_, err := dnsToASCII(gn.Value)
		return err
	case SANURI:
		if _, err := url.Parse(gn.Value); err != nil {
			return fmt.Errorf("%w: URI %q: %v", ErrInvalidSAN, gn.Value, err)
		}
	case SANEmail:
		at := strings.LastIndex(gn.Value, "@")
		if at <= 0 || at == len(gn.Value)-1 {
			return fmt.Errorf("%w: email %q", ErrInvalidSAN, gn.Value)
		}
	case SANIP:
		if net.ParseIP(gn.Value) == nil {
			return fmt.Errorf("%w: IP %q", ErrInvalidSAN, gn.Value)
		}
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidSAN, gn.Type)
	}
	return nil
}

// dnsToASCII converts a DNS name to its ASCII (punycode) form.
func dnsToASCII(name string) (string, error) {
	host := name
	wildcard := strings.HasPrefix(host, "*.")
	if wildcard {
		host = host[2:]
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: DNS %q: %v", ErrInvalidSAN, name, err)
	}

	if wildcard {
		suffix, icann := publicsuffix.PublicSuffix(ascii)
		if icann && suffix == ascii {
			return "", fmt.Errorf("%w: wildcard on public suffix not allowed: %q", ErrInvalidSAN, name)
		}
		ascii = "*." + ascii
	}
	return ascii, nil
}

// MarshalSAN encodes entries as the DER value of a subjectAltName
// extension, preserving their order.
func MarshalSAN(names []GeneralName) ([]byte, error) {
	var b cryptobyte.Builder
	var encErr error

	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, gn := range names {
			switch gn.Type {
			case SANDNS:
				ascii, err := dnsToASCII(gn.Value)
				if err != nil {
					encErr = err
					return
				}
				b.AddASN1(cbasn1.Tag(tagDNS).ContextSpecific(), func(b *cryptobyte.Builder) {
					b.AddBytes([]byte(ascii))
				})
			case SANURI:
				b.AddASN1(cbasn1.Tag(tagURI).ContextSpecific(), func(b *cryptobyte.Builder) {
					b.AddBytes([]byte(gn.Value))
				})
			case SANEmail:
				b.AddASN1(cbasn1.Tag(tagEmail).ContextSpecific(), func(b *cryptobyte.Builder) {
					b.AddBytes([]byte(gn.Value))
				})
			case SANIP:
				ip := net.ParseIP(gn.Value)
				if ip == nil {
					encErr = fmt.Errorf("%w: IP %q", ErrInvalidSAN, gn.Value)
					return
				}
				if v4 := ip.To4(); v4 != nil {
					ip = v4
				}
				b.AddASN1(cbasn1.Tag(tagIP).ContextSpecific(), func(b *cryptobyte.Builder) {
					b.AddBytes(ip)
				})
			default:
				encErr = fmt.Errorf("%w: unsupported type %q", ErrInvalidSAN, gn.Type)
				return
			}
		}
	})

	if encErr != nil {
		return nil, encErr
	}
	return b.Bytes()
}

// UnmarshalSAN decodes the DER value of a subjectAltName extension.
func UnmarshalSAN(der []byte) ([]GeneralName, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: malformed GeneralNames sequence", ErrInvalidSAN)
	}

	var names []GeneralName
	for !seq.Empty() {
		var value cryptobyte.String
		var tag cbasn1.Tag
		if !seq.ReadAnyASN1(&value, &tag) {
			return nil, fmt.Errorf("%w: malformed GeneralName", ErrInvalidSAN)
		}

		switch tag {
		case cbasn1.Tag(tagDNS).ContextSpecific():
			names = append(names, GeneralName{Type: SANDNS, Value: string(value)})
		case cbasn1.Tag(tagURI).ContextSpecific():
			names = append(names, GeneralName{Type: SANURI, Value: string(value)})
		case cbasn1.Tag(tagEmail).ContextSpecific():
			names = append(names, GeneralName{Type: SANEmail, Value: string(value)})
		case cbasn1.Tag(tagIP).ContextSpecific():
			if len(value) != net.IPv4len && len(value) != net.IPv6len {
				return nil, fmt.Errorf("%w: IP address of %d bytes", ErrInvalidSAN, len(value))
			}
			names = append(names, GeneralName{Type: SANIP, Value: net.IP(value).String()})
		default:
			return nil, fmt.Errorf("%w: unsupported GeneralName tag %d", ErrInvalidSAN, tag&0x1f)
		}
	}
	return names, nil
}
