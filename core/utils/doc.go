// Package utils provides conversion helpers for loosely typed asset property
// values, as decoded from package documents into map[string]any.
package utils
