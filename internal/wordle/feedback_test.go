package wordle

import (
	"math/rand"
	"testing"
)

func TestScore(t *testing.T) {
	cases := []struct {
		secret, guess string
		want          []string
	}{
		// Exact-first semantics: the S at position 0 finds no leftover S
		// because both secret S positions are consumed by exact matches.
		{"FLUSH", "SLUSH", []string{Absent, Exact, Exact, Exact, Exact}},
		// Duplicate-letter accounting: the second R in RURAL must come up
		// absent because the secret's single R was consumed at position 0.
		{"ROUND", "RURAL", []string{Exact, Present, Absent, Absent, Absent}},
		{"ROUND", "ROUND", []string{Exact, Exact, Exact, Exact, Exact}},
		{"APPLE", "PAPER", []string{Present, Present, Exact, Present, Absent}},
		{"STONE", "XXXXX", []string{Absent, Absent, Absent, Absent, Absent}},
		// Guess with a doubled letter against a single occurrence: only one
		// of the two Es may score.
		{"CRANE", "EERIE", []string{Absent, Absent, Present, Absent, Exact}},
	}
	for _, c := range cases {
		got := Score(c.secret, c.guess)
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Errorf("Score(%s, %s)[%d] = %s, want %s", c.secret, c.guess, i, got[i], c.want[i])
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	if g, err := Normalize(" slush "); err != nil || g != "SLUSH" {
		t.Errorf("Normalize(\" slush \") = %q, %v", g, err)
	}
	for _, bad := range []string{"", "FOUR", "TOOLONG", "AB1DE", "ÀBCDE"} {
		if _, err := Normalize(bad); err == nil {
			t.Errorf("Normalize(%q) should fail", bad)
		}
	}
}

func TestPickWord(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		w := PickWord(rng)
		if len(w) != WordLength {
			t.Fatalf("word %q has length %d", w, len(w))
		}
	}
}
