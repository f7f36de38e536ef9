// Package wordle holds the pure rules of the word-guessing game: guess
// normalization, per-letter feedback scoring and the secret word list.
// Nothing here touches storage or the network.
package wordle

import (
	"strings"

	"github.com/wordmate-app/backend/internal/apperrors"
)

// WordLength is the fixed length of secrets and guesses.
const WordLength = 5

// Per-letter feedback classes.
const (
	Exact   = "exact"   // right letter, right position
	Present = "present" // letter occurs elsewhere in the secret
	Absent  = "absent"  // letter not in the secret (or already accounted for)
)

// Normalize uppercases a guess and validates it: exactly WordLength
// letters, A-Z only. Returns apperrors.ErrInvalidInput otherwise.
func Normalize(guess string) (string, error) {
	g := strings.ToUpper(strings.TrimSpace(guess))
	if len(g) != WordLength {
		return "", apperrors.ErrInvalidInput
	}
	for i := 0; i < len(g); i++ {
		if g[i] < 'A' || g[i] > 'Z' {
			return "", apperrors.ErrInvalidInput
		}
	}
	return g, nil
}

// Score computes per-letter feedback for a normalized guess against a
// normalized secret. Exact matches are consumed first, then each remaining
// guess letter claims at most one unconsumed occurrence in the secret, so
// duplicate letters are never over-reported.
func Score(secret, guess string) []string {
	fb := make([]string, WordLength)
	var remaining [26]int

	for i := 0; i < WordLength; i++ {
		if guess[i] == secret[i] {
			fb[i] = Exact
		} else {
			remaining[secret[i]-'A']++
		}
	}
	for i := 0; i < WordLength; i++ {
		if fb[i] == Exact {
			continue
		}
		c := guess[i] - 'A'
		if remaining[c] > 0 {
			remaining[c]--
			fb[i] = Present
		} else {
			fb[i] = Absent
		}
	}
	return fb
}

// IsWin reports whether a normalized guess equals the secret.
func IsWin(secret, guess string) bool {
	return secret == guess
}
