package locator

import (
	"net/url"
	"strings"

	"golang.org/x/xerrors"
)

type errorString string

func (es errorString) Error() string {
	return string(es)
}

// ErrUnsupportedScheme indicates the reference uses a scheme this system
// cannot resolve
const ErrUnsupportedScheme = errorString("unsupported locator scheme")

// ErrMalformedID indicates an opaque id did not carry the expected
// type:name compound key
const ErrMalformedID = errorString("malformed opaque document id")

// Scheme classifies how a locator is resolved
type Scheme int

const (
	// SchemeIndirect is an opaque, provider-mediated reference
	SchemeIndirect Scheme = iota

	// SchemeDirect already encodes a filesystem path
	SchemeDirect
)

// Well-known provider authorities. Compared case-sensitively; anything else
// falls back to generic resolution.
const (
	AuthorityLocalStorage = "com.android.externalstorage.documents"
	AuthorityDownloads    = "com.android.providers.downloads.documents"
	AuthorityMedia        = "com.android.providers.media.documents"
)

const documentSegment = "/document/"

// Locator is an opaque external reference to a resource
type Locator struct {
	Scheme    Scheme
	Authority string
	OpaqueID  string
	Raw       string

	path string
}

// Path returns the filesystem path encoded in a direct locator
func (l Locator) Path() string {
	return l.path
}

// Parse classifies a raw reference by scheme and authority. Indirect
// locators keep the provider-specific opaque id; direct locators keep their
// decoded path component.
func Parse(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, xerrors.Errorf("parsing locator %q: %w", raw, err)
	}
	switch u.Scheme {
	case "content":
		return Locator{
			Scheme:    SchemeIndirect,
			Authority: u.Host,
			OpaqueID:  opaqueID(u.Path),
			Raw:       raw,
		}, nil
	case "file":
		return Locator{Scheme: SchemeDirect, Raw: raw, path: u.Path}, nil
	default:
		return Locator{}, xerrors.Errorf("parsing locator %q: %w", raw, ErrUnsupportedScheme)
	}
}

// opaqueID extracts the provider-specific document id from the decoded path
// component. Document references carry it after a /document/ segment; the id
// itself may contain slashes once unescaped.
func opaqueID(path string) string {
	if idx := strings.Index(path, documentSegment); idx != -1 {
		return path[idx+len(documentSegment):]
	}
	return strings.TrimPrefix(path, "/")
}

// SplitOpaqueID splits a type:name compound id on its first colon
func SplitOpaqueID(id string) (string, string, error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 {
		return "", "", xerrors.Errorf("splitting id %q: %w", id, ErrMalformedID)
	}
	return parts[0], parts[1], nil
}
