package algo

import (
	"math"
	"math/rand/v2"
	"strings"
)

// maxShowFraction bounds how much of a long name stays readable.
const maxShowFraction = 0.5

// Anonymize masks a name. Short names keep their first one or two characters;
// longer names keep the first and last two plus a few middle characters chosen
// by a generator seeded from the name, so the same input always gives the same mask.
func Anonymize(name string) string {
	runes := []rune(name)
	n := len(runes)
	switch {
	case n == 0:
		return name
	case n <= 2:
		return string(runes[0]) + "*"
	case n <= 6:
		return string(runes[:2]) + strings.Repeat("*", n-2)
	}

	toShow := max(0, int(math.Ceil(float64(n)*maxShowFraction))-4)
	chance := float64(toShow) / float64(n-4)
	seed := ConsistentHash(name)
	rng := rand.New(rand.NewPCG(seed, seed>>7|1))

	var sb strings.Builder
	sb.WriteString(string(runes[:2]))
	for _, r := range runes[2 : n-2] {
		if toShow > 0 && rng.Float64() < chance {
			sb.WriteRune(r)
			toShow--
		} else {
			sb.WriteByte('*')
		}
	}
	sb.WriteString(string(runes[n-2:]))
	return sb.String()
}
