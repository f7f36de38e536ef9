package wordle

import "math/rand"

// Words is the fixed secret word list. Secrets are drawn uniformly from it.
var Words = []string{
	"ABOUT", "ALERT", "APPLE", "BEACH", "BRAIN", "BREAD", "BRICK", "CHAIR",
	"CHART", "CHESS", "CLOUD", "CRANE", "DANCE", "DREAM", "DRIVE", "EARTH",
	"FLAME", "FLOOR", "FLUSH", "FRUIT", "GHOST", "GLASS", "GRAPE", "GREEN",
	"HEART", "HOUSE", "LEMON", "LIGHT", "MONEY", "MUSIC", "NIGHT", "OCEAN",
	"PAINT", "PAPER", "PEARL", "PLANT", "QUEEN", "RADIO", "RIVER", "ROUND",
	"RURAL", "SHEEP", "SHINE", "SLUSH", "SMILE", "SNAKE", "SOUND", "SPACE",
	"STONE", "STORM", "SUGAR", "TABLE", "TIGER", "TRAIN", "VOICE", "WATER",
	"WHALE", "WHEAT", "WORLD", "YOUTH",
}

// PickWord draws a secret from Words using the supplied source, so callers
// (and tests) control the randomness.
func PickWord(rng *rand.Rand) string {
	return Words[rng.Intn(len(Words))]
}
