package client

import "math/rand/v2"

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID generates the random self-assigned identity token for one
// client session: 8 base36 characters. Identity is not verified anywhere, so
// this does not need to be cryptographic, only collision-unlikely among a
// small set of concurrent sessions.
func newSessionID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}
