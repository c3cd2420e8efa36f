// Package conv collects tiny helper functions that are not part of the public API
// but aid internal conversions.
//
// MCP hosts deliver arguments in loosely typed shapes (numbers as strings,
// booleans as "yes", JSON numbers as json.Number), so every helper accepts
// interface{} and reports whether the coercion succeeded.
package conv
