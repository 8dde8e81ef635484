// Package dto defines the JSON contracts of the HTTP API and converts between
// them and the records of the internal services.
//
// Conversions in this package are pure: they do no I/O, never fail, and are
// safe to call from any goroutine. Optional fields are pointers; a nil pointer
// means the field was absent on the wire.
package dto
