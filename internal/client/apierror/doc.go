// Package apierror turns failed API responses into a NormalizedError: a
// non-empty summary plus per-field errors keyed by the server's field name.
//
// Bodies are first classified into one of a closed set of shapes
// (Unparseable, EnvelopedError, PlainMessage, Opaque); every shape has a
// summary, so normalization never fails.
package apierror
