// Package storage defines the conversation store contract shared by the
// sqlite and postgres backends (component F), plus the output-item
// reconstruction logic that turns a captured transcoder event stream back
// into ORS items for persistence.
package storage
