package x509util

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAttribute is returned for subject attribute names outside the
	// supported set.
	ErrUnknownAttribute = errors.New("unknown subject attribute")

	// ErrInvalidAttributeValue is returned when a value is not acceptable for
	// its attribute (e.g. a country code that is not two letters).
	ErrInvalidAttributeValue = errors.New("invalid subject attribute value")
)

// AttributeType describes a distinguished name attribute by its short
// and long OpenSSL names.
type AttributeType struct {
	Short string
	Long  string
	OID   asn1.ObjectIdentifier
}

// attributeTypes is the fixed set of subject attributes that can be set.
var attributeTypes = []AttributeType{
	{"C", "countryName", asn1.ObjectIdentifier{2, 5, 4, 6}},
	{"ST", "stateOrProvinceName", asn1.ObjectIdentifier{2, 5, 4, 8}},
	{"L", "localityName", asn1.ObjectIdentifier{2, 5, 4, 7}},
	{"O", "organizationName", asn1.ObjectIdentifier{2, 5, 4, 10}},
	{"OU", "organizationalUnitName", asn1.ObjectIdentifier{2, 5, 4, 11}},
	{"CN", "commonName", asn1.ObjectIdentifier{2, 5, 4, 3}},
	{"emailAddress", "emailAddress", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}},
	{"serialNumber", "serialNumber", asn1.ObjectIdentifier{2, 5, 4, 5}},
	{"street", "streetAddress", asn1.ObjectIdentifier{2, 5, 4, 9}},
	{"postalCode", "postalCode", asn1.ObjectIdentifier{2, 5, 4, 17}},
	{"title", "title", asn1.ObjectIdentifier{2, 5, 4, 12}},
	{"SN", "surname", asn1.ObjectIdentifier{2, 5, 4, 4}},
	{"GN", "givenName", asn1.ObjectIdentifier{2, 5, 4, 42}},
	{"initials", "initials", asn1.ObjectIdentifier{2, 5, 4, 43}},
	{"dnQualifier", "dnQualifier", asn1.ObjectIdentifier{2, 5, 4, 46}},
	{"pseudonym", "pseudonym", asn1.ObjectIdentifier{2, 5, 4, 65}},
	{"DC", "domainComponent", asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}},
	{"UID", "userId", asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}},
}

// LookupAttribute resolves a short or long attribute name, case-insensitively.
func LookupAttribute(key string) (AttributeType, bool) {
	key = strings.TrimSpace(key)
	for _, at := range attributeTypes {
		if strings.EqualFold(at.Short, key) || strings.EqualFold(at.Long, key) {
			return at, true
		}
	}
	return AttributeType{}, false
}

// attributeTypeByOID returns the registered type for oid.
func attributeTypeByOID(oid asn1.ObjectIdentifier) (AttributeType, bool) {
	for _, at := range attributeTypes {
		if at.OID.Equal(oid) {
			return at, true
		}
	}
	return AttributeType{}, false
}

// AttributeTypes returns the supported attribute types.
func AttributeTypes() []AttributeType {
	out := make([]AttributeType, len(attributeTypes))
	copy(out, attributeTypes)
	return out
}

// Attribute is a single subject or issuer attribute.
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value string
}

// Label returns the short name of the attribute, or its dotted OID.
func (a Attribute) Label() string {
	if at, ok := attributeTypeByOID(a.Type); ok {
		return at.Short
	}
	return a.Type.String()
}

// Name is an ordered distinguished name with unique attribute types.
// Attributes keep their insertion order; setting an existing type
// replaces its value in place.
type Name struct {
	attrs []Attribute
}

// Set assigns value to the attribute named key.
func (n *Name) Set(key, value string) error {
	at, ok := LookupAttribute(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, key)
	}
	if at.Short == "C" && len(value) != 2 {
		return fmt.Errorf("%w: countryName must be a two-letter code, got %q", ErrInvalidAttributeValue, value)
	}
	n.setOID(at.OID, value)
	return nil
}

func (n *Name) setOID(oid asn1.ObjectIdentifier, value string) {
	for i := range n.attrs {
		if n.attrs[i].Type.Equal(oid) {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attribute{Type: oid, Value: value})
}

// Get returns the value for a short name, long name or dotted OID.
func (n Name) Get(key string) (string, bool) {
	var oid asn1.ObjectIdentifier
	if at, ok := LookupAttribute(key); ok {
		oid = at.OID
	} else if parsed, err := ParseOID(key); err == nil {
		oid = parsed
	} else {
		return "", false
	}
	for _, a := range n.attrs {
		if a.Type.Equal(oid) {
			return a.Value, true
		}
	}
	return "", false
}

// Len returns the number of attributes.
func (n Name) Len() int { return len(n.attrs) }

// IsEmpty reports whether the name has no attributes.
func (n Name) IsEmpty() bool { return len(n.attrs) == 0 }

// Attributes returns a copy of the attributes in order.
func (n Name) Attributes() []Attribute {
	out := make([]Attribute, len(n.attrs))
	for i, a := range n.attrs {
		out[i] = Attribute{Type: append(asn1.ObjectIdentifier(nil), a.Type...), Value: a.Value}
	}
	return out
}

// Clone returns a deep copy.
func (n Name) Clone() Name {
	return Name{attrs: n.Attributes()}
}

// Equal reports whether both names carry the same attributes in the same order.
func (n Name) Equal(o Name) bool {
	if len(n.attrs) != len(o.attrs) {
		return false
	}
	for i := range n.attrs {
		if !n.attrs[i].Type.Equal(o.attrs[i].Type) || n.attrs[i].Value != o.attrs[i].Value {
			return false
		}
	}
	return true
}

// Map returns the attributes keyed by short name.
func (n Name) Map() map[string]string {
	m := make(map[string]string, len(n.attrs))
	for _, a := range n.attrs {
		m[a.Label()] = a.Value
	}
	return m
}

// String renders the name as "C=US, CN=example.org".
func (n Name) String() string {
	parts := make([]string, 0, len(n.attrs))
	for _, a := range n.attrs {
		parts = append(parts, a.Label()+"="+a.Value)
	}
	return strings.Join(parts, ", ")
}

// ToPKIX converts the name to a pkix.Name that marshals the attributes
// in order, one per RDN.
func (n Name) ToPKIX() pkix.Name {
	var name pkix.Name
	for _, a := range n.attrs {
		name.ExtraNames = append(name.ExtraNames, pkix.AttributeTypeAndValue{
			Type:  a.Type,
			Value: a.Value,
		})
	}
	return name
}

// NameFromPKIX builds a Name from a parsed pkix.Name, keeping every
// attribute in encoded order, including types outside the supported set.
func NameFromPKIX(p pkix.Name) Name {
	var n Name
	for _, atv := range p.Names {
		value, ok := atv.Value.(string)
		if !ok {
			value = fmt.Sprint(atv.Value)
		}
		n.setOID(atv.Type, value)
	}
	return n
}
