// Package infostring reads and edits info strings: flat key/value metadata
// blobs of the form
//
//	\key1\value1\key2\value2
//
// exchanged between client and server during connection setup. Keys and
// values must not contain a backslash, a double quote or a semicolon, and
// the whole blob is bounded by MaxInfoString.
//
// All functions take and return plain strings; results never alias a
// shared scratch buffer, so any number of lookups can be held at once.
package infostring
