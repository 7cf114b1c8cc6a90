package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// IDSize is long enough that collisions across listings and requests are
// not a practical concern.
var IDSize = 24

func NanoID() string {
	return gonanoid.MustGenerate(nanoidAlphabet, IDSize)
}
