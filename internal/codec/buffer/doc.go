// Package buffer owns the growable byte container that encoders write into.
//
// Ownership boundary:
// - fixed width little-endian scalar writers
// - raw byte ranges and buffer concatenation
// - the content checksum shared with the integrity frame
package buffer
