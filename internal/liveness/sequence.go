package liveness

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Challenge is one action the subject must perform
type Challenge string

const (
	ChallengeBlink     Challenge = "blink"
	ChallengeTurnLeft  Challenge = "turn_left"
	ChallengeTurnRight Challenge = "turn_right"
)

// ParseChallenge accepts the wire names above, case-insensitively
func ParseChallenge(s string) (Challenge, error) {
	switch c := Challenge(strings.ToLower(strings.TrimSpace(s))); c {
	case ChallengeBlink, ChallengeTurnLeft, ChallengeTurnRight:
		return c, nil
	default:
		return "", fmt.Errorf("unknown challenge %q", s)
	}
}

func (c Challenge) isTurn() bool {
	return c == ChallengeTurnLeft || c == ChallengeTurnRight
}

// Sequence is an immutable ordered list of challenges. It is built once when
// a session starts and never regenerated afterwards.
type Sequence struct {
	items []Challenge
}

// NewSequence copies the given challenges into a Sequence
func NewSequence(challenges ...Challenge) (Sequence, error) {
	if len(challenges) == 0 {
		return Sequence{}, fmt.Errorf("challenge sequence is empty")
	}
	items := make([]Challenge, len(challenges))
	for i, c := range challenges {
		parsed, err := ParseChallenge(string(c))
		if err != nil {
			return Sequence{}, err
		}
		items[i] = parsed
	}
	return Sequence{items: items}, nil
}

// ParseSequence builds a Sequence from wire names
func ParseSequence(names []string) (Sequence, error) {
	challenges := make([]Challenge, 0, len(names))
	for _, n := range names {
		c, err := ParseChallenge(n)
		if err != nil {
			return Sequence{}, err
		}
		challenges = append(challenges, c)
	}
	return NewSequence(challenges...)
}

// DefaultSequence is blink, turn left, turn right
func DefaultSequence() Sequence {
	return Sequence{items: []Challenge{ChallengeBlink, ChallengeTurnLeft, ChallengeTurnRight}}
}

// Shuffled returns a reordered copy. Callers use it at most once, at session creation.
func (s Sequence) Shuffled(r *rand.Rand) Sequence {
	items := s.Challenges()
	r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	return Sequence{items: items}
}

func (s Sequence) Len() int {
	return len(s.items)
}

func (s Sequence) At(i int) Challenge {
	return s.items[i]
}

// Challenges returns a copy of the ordered challenges
func (s Sequence) Challenges() []Challenge {
	out := make([]Challenge, len(s.items))
	copy(out, s.items)
	return out
}

// Strings returns the wire names in order
func (s Sequence) Strings() []string {
	out := make([]string, len(s.items))
	for i, c := range s.items {
		out[i] = string(c)
	}
	return out
}
