package cipherctrl

// RoundPosition distinguishes the initial key addition from every later
// round when selecting round key words.
type RoundPosition uint8

const (
	// PositionInit is the initial key addition.
	PositionInit RoundPosition = iota

	// PositionRound covers the regular rounds and the final round.
	PositionRound
)

// SelectKeyWords returns the key words forming the round key. It is a pure
// function of its arguments and is re-evaluated on every tick.
//
// Key derivation never exposes real key material and always selects the zero
// words. The 192 and 256-bit schedules are staggered by one word group between
// the forward and the inverse direction, which is why their selection flips
// between the initial round and the rest.
func SelectKeyWords(mode Mode, keyLen KeyLength, op Operation,
	pos RoundPosition) KeyWords {

	if mode == ModeDeriveKey {
		return KeyWordsZero
	}

	init := pos == PositionInit

	switch keyLen {
	case KeyLen128:
		return KeyWords0123

	case KeyLen192:
		switch {
		case op == OpEncrypt && init:
			return KeyWords0123
		case op == OpDecrypt && init:
			return KeyWords2345
		case op == OpEncrypt:
			return KeyWords2345
		case op == OpDecrypt:
			return KeyWords0123
		}

	case KeyLen256:
		switch {
		case op == OpEncrypt && init:
			return KeyWords0123
		case op == OpDecrypt && init:
			return KeyWords4567
		case op == OpEncrypt:
			return KeyWords4567
		case op == OpDecrypt:
			return KeyWords0123
		}
	}

	return KeyWordsZero
}
