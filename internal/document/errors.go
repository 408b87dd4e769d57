package document

import "errors"

var (
	// ErrParse is returned when input is not well-formed JSON/YAML or does
	// not have the shape of a graph payload.
	ErrParse = errors.New("document: parse error")

	// ErrInvalid is returned when a payload parses but describes a graph
	// that breaks a structural rule (missing names, dangling references,
	// duplicates).
	ErrInvalid = errors.New("document: invalid graph payload")

	// ErrUnsupportedVersion is returned for payloads carrying a version
	// this build does not understand.
	ErrUnsupportedVersion = errors.New("document: unsupported version")

	// ErrUnknownFormat is returned by ForFormat for an unregistered format.
	ErrUnknownFormat = errors.New("document: unknown format")
)
