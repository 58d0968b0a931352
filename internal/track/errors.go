package track

import "errors"

// Error classes. Every error returned by this package wraps exactly one of
// these, or is an unclassified I/O failure.
var (
	// ErrConfiguration reports a missing or unusable input such as the input
	// path, document type, output path or metadata file.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedKind reports an unknown document type, a package of an
	// unsupported family, or a package whose family differs from the declared type.
	ErrUnsupportedKind = errors.New("unsupported document kind")

	// ErrMalformedPackage reports an archive that cannot be read as a package
	// of the declared kind.
	ErrMalformedPackage = errors.New("malformed package")

	// ErrInvalidTarget reports a URL that is not an absolute URI.
	ErrInvalidTarget = errors.New("invalid target URI")
)
