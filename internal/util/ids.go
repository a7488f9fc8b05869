package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewRequestID returns a short unique id used to correlate a single
// resolution request across log lines.
func NewRequestID() (string, error) {
	return gonanoid.New(12)
}

// NewArtifactID returns a unique id used to name temporary index artifacts
// while they are being written, before the atomic rename.
func NewArtifactID() (string, error) {
	return gonanoid.New()
}
