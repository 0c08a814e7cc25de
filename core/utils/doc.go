// Package utils provides loose-typing helpers for values decoded from remote
// JSON, where the same field may arrive as a string, a number or a list.
package utils
