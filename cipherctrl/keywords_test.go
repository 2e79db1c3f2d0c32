package cipherctrl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSelectKeyWords checks the full round key word selection table.
func TestSelectKeyWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mode   Mode
		keyLen KeyLength
		op     Operation
		pos    RoundPosition
		want   KeyWords
	}{
		{"128 enc init", ModeNormal, KeyLen128, OpEncrypt,
			PositionInit, KeyWords0123},
		{"128 dec init", ModeNormal, KeyLen128, OpDecrypt,
			PositionInit, KeyWords0123},
		{"128 enc round", ModeNormal, KeyLen128, OpEncrypt,
			PositionRound, KeyWords0123},
		{"128 dec round", ModeNormal, KeyLen128, OpDecrypt,
			PositionRound, KeyWords0123},
		{"192 enc init", ModeNormal, KeyLen192, OpEncrypt,
			PositionInit, KeyWords0123},
		{"192 dec init", ModeNormal, KeyLen192, OpDecrypt,
			PositionInit, KeyWords2345},
		{"192 enc round", ModeNormal, KeyLen192, OpEncrypt,
			PositionRound, KeyWords2345},
		{"192 dec round", ModeNormal, KeyLen192, OpDecrypt,
			PositionRound, KeyWords0123},
		{"256 enc init", ModeNormal, KeyLen256, OpEncrypt,
			PositionInit, KeyWords0123},
		{"256 dec init", ModeNormal, KeyLen256, OpDecrypt,
			PositionInit, KeyWords4567},
		{"256 enc round", ModeNormal, KeyLen256, OpEncrypt,
			PositionRound, KeyWords4567},
		{"256 dec round", ModeNormal, KeyLen256, OpDecrypt,
			PositionRound, KeyWords0123},
		{"derive init", ModeDeriveKey, KeyLen256, OpDecrypt,
			PositionInit, KeyWordsZero},
		{"derive round", ModeDeriveKey, KeyLen192, OpEncrypt,
			PositionRound, KeyWordsZero},
		{"invalid key length", ModeNormal, KeyLength(64), OpEncrypt,
			PositionRound, KeyWordsZero},
		{"invalid op", ModeNormal, KeyLen256, Operation(7),
			PositionRound, KeyWordsZero},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectKeyWords(tc.mode, tc.keyLen, tc.op, tc.pos)
			require.Equal(t, tc.want, got, "got %v", got)
		})
	}
}
