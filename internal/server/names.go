package server

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases, trims, and strips accents so "José" and
// "jose " collide when checking for duplicate names in a room.
func normalizeName(name string) string {
	folded, _, err := transform.String(nameFolder, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return folded
}

func (r *Room) nameTaken(name string) bool {
	want := normalizeName(name)
	for i := range r.Players {
		if normalizeName(r.Players[i].Name) == want {
			return true
		}
	}
	return false
}
