package dto

// AttributeInfo is one subject or issuer attribute, in certificate order.
type AttributeInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExtensionInfo is one certificate extension in textual form.
type ExtensionInfo struct {
	Name     string `json:"name"`
	Critical bool   `json:"critical"`
	Value    string `json:"value"`
}

// CertificateInfo describes the served certificate.
type CertificateInfo struct {
	Subject            []AttributeInfo `json:"subject"`
	Issuer             []AttributeInfo `json:"issuer"`
	Serial             string          `json:"serial"`
	Validity           ValidityInfo    `json:"validity"`
	ValidForSeconds    int64           `json:"valid_for_seconds"`
	Extensions         []ExtensionInfo `json:"extensions,omitempty"`
	SignatureAlgorithm string          `json:"signature_algorithm"`
	KeyAlgorithm       string          `json:"key_algorithm"`
	State              string          `json:"state"`
	Expired            bool            `json:"expired"`
}

// RenewRequest is the body of POST /api/v1/certificate/renew.
type RenewRequest struct {
	// ValidFor is the new validity in days. When omitted, the current
	// validity length is kept.
	ValidFor *int `json:"valid_for,omitempty"`
}
