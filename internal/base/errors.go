// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base holds the types and helpers shared by every layer of the
// storage engine: error taxonomy, logging, key encoding, and the internal
// key comparer.
package base

import (
	"github.com/cockroachdb/errors"
)

// ErrorKind classifies a failure the way the on-disk format's readers need
// to distinguish them: a checksum mismatch is handled differently from a
// truncated file, which is handled differently from a future format
// version we simply refuse to open.
type ErrorKind int

const (
	// KindUnknown is the zero value; never attached deliberately.
	KindUnknown ErrorKind = iota
	// KindIO covers short reads, short writes, and underlying filesystem
	// failures.
	KindIO
	// KindChecksum marks a block whose stored checksum does not match
	// its decoded payload.
	KindChecksum
	// KindDecompress marks a block whose compressed payload could not be
	// inflated.
	KindDecompress
	// KindInvalidTag marks an unrecognised enum tag byte (value type,
	// compression type, ...).
	KindInvalidTag
	// KindInvalidMagic marks a file missing its expected magic bytes.
	KindInvalidMagic
	// KindUnsupportedVersion marks a file whose format version is newer
	// than this build understands.
	KindUnsupportedVersion
	// KindCorrupt is the catch-all for structurally inconsistent data
	// that doesn't fit a more specific kind above.
	KindCorrupt
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindChecksum:
		return "checksum"
	case KindDecompress:
		return "decompress"
	case KindInvalidTag:
		return "invalid_tag"
	case KindInvalidMagic:
		return "invalid_magic"
	case KindUnsupportedVersion:
		return "unsupported_version"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// kindError wraps an underlying error with the ErrorKind classification,
// preserving the chain so errors.Is/errors.As still see through to cause.
type kindError struct {
	kind  ErrorKind
	cause error
}

func (e *kindError) Error() string { return e.kind.String() + ": " + e.cause.Error() }
func (e *kindError) Unwrap() error { return e.cause }
func (e *kindError) Cause() error  { return e.cause }

// WithKind wraps err, attaching kind for later recovery via Kind(). A nil
// err returns nil.
func WithKind(err error, kind ErrorKind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: errors.WithStack(err)}
}

// NewKind builds a new error of the given kind with a formatted message,
// in the style of errors.Newf.
func NewKind(kind ErrorKind, format string, args ...interface{}) error {
	return WithKind(errors.Newf(format, args...), kind)
}

// Kind recovers the ErrorKind attached to err via WithKind/NewKind, or
// KindUnknown if none was attached.
func Kind(err error) ErrorKind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// IsKind reports whether err (or anything in its chain) carries the given
// ErrorKind.
func IsKind(err error, kind ErrorKind) bool {
	return Kind(err) == kind
}
