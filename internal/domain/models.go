package domain

import "strings"

// Domain contains core models and interfaces.

// License is the reuse status a museum reports for an artwork image.
type License string

const (
	LicensePublicDomain License = "public-domain"
	LicenseCC0          License = "cc0"
	LicenseUnknown      License = "unknown"
)

// Postable reports whether images under this license may be reposted.
func (l License) Postable() bool {
	return l == LicensePublicDomain || l == LicenseCC0
}

// ArtworkRecord is the provider-agnostic artwork representation produced by source adapters.
type ArtworkRecord struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist,omitempty"`
	Date         string  `json:"date,omitempty"`
	CreditLine   string  `json:"credit_line,omitempty"`
	ImageURL     string  `json:"image_url"`
	ObjectURL    string  `json:"object_url,omitempty"`
	SourceMuseum string  `json:"source_museum"`
	License      License `json:"license"`
}

// HasImage reports whether the record carries a usable image URL.
func (r ArtworkRecord) HasImage() bool {
	return strings.TrimSpace(r.ImageURL) != ""
}

// QualifiedID builds the store key for a provider object id, e.g. "met:436121".
func QualifiedID(prefix, id string) string {
	return strings.TrimSpace(prefix) + ":" + strings.TrimSpace(id)
}
