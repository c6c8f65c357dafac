// Package activity defines the slice of the Bot Framework Activity wire
// schema that freshbot parses and emits.
package activity
