// Package utils provides loose type conversions for decoded JSON.
//
// Source payloads are not consistently typed: the same field can arrive as a
// number, a numeric string or an object. These helpers turn such values into
// the types the catalog model uses and fall back to the zero value instead of
// failing.
package utils
