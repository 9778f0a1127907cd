// Package sink stores named output blobs: artifacts and exported images.
//
// Names are slash-separated and relative to the sink root. Read returns
// ErrNotExist for names that were never written, which the artifact merge
// policy treats as "nothing to merge".
package sink
