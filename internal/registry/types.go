package registry

import "strings"

// ServiceIndex is a NuGet V3 service index (index.json).
type ServiceIndex struct {
	Version   string            `json:"version"`
	Resources []ServiceResource `json:"resources"`
}

// ServiceResource is one entry of a service index.
type ServiceResource struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

// Source is a package source whose registration endpoint has been resolved.
type Source struct {
	IndexURL             string
	RegistrationsBaseURL string
}

// RegistrationIndex is the registration index for one package id.
type RegistrationIndex struct {
	Count int                `json:"count"`
	Items []RegistrationPage `json:"items"`
}

// RegistrationPage groups registration leaves by version bounds. Items is
// empty when the page is not inlined and has to be fetched from ID.
type RegistrationPage struct {
	ID    string             `json:"@id"`
	Count int                `json:"count"`
	Lower string             `json:"lower"`
	Upper string             `json:"upper"`
	Items []RegistrationLeaf `json:"items"`
}

// RegistrationLeaf is one package version.
type RegistrationLeaf struct {
	ID           string       `json:"@id"`
	CatalogEntry CatalogEntry `json:"catalogEntry"`
}

// CatalogEntry is the per-version metadata of a registration leaf.
type CatalogEntry struct {
	ID              string          `json:"id"`
	Version         string          `json:"version"`
	Listed          *bool           `json:"listed,omitempty"`
	Deprecation     *Deprecation    `json:"deprecation,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// Deprecation describes why a package version is deprecated.
type Deprecation struct {
	Reasons          []string          `json:"reasons"`
	Message          string            `json:"message,omitempty"`
	AlternatePackage *AlternatePackage `json:"alternatePackage,omitempty"`
}

// AlternatePackage is the suggested replacement for a deprecated package.
type AlternatePackage struct {
	ID    string `json:"id"`
	Range string `json:"range,omitempty"`
}

// Vulnerability is a known advisory for a package version.
type Vulnerability struct {
	AdvisoryURL string `json:"advisoryUrl"`
	Severity    string `json:"severity"`
}

// PackageMetadata is what the decorators need from a source.
type PackageMetadata struct {
	ID              string          `json:"id"`
	Version         string          `json:"version"`
	Deprecation     *Deprecation    `json:"deprecation,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// IsDeprecated reports whether the version carries deprecation metadata.
func (m *PackageMetadata) IsDeprecated() bool {
	return m != nil && m.Deprecation != nil
}

// IsVulnerable reports whether the version has at least one advisory.
func (m *PackageMetadata) IsVulnerable() bool {
	return m != nil && len(m.Vulnerabilities) > 0
}

// IsHTTPSource reports whether a configured source is a remote V3 feed.
// Local folder feeds have no metadata to query.
func IsHTTPSource(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}
