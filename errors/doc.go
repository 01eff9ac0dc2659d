// Package errors provides the structured error type shared by the rawes
// packages.
//
// Every failure surfaced by the elastic client is an *AppError carrying a
// machine-readable code. Service-level outcomes such as "document not
// found" are not errors: they come back as ordinary decoded values.
package errors
