package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want uint16
	}{
		{name: "zero", in: 0, want: 0},
		{name: "one", in: 1, want: 10000},
		{name: "typical", in: 0.97, want: 9700},
		{name: "rounds half up", in: 0.00005, want: 1},
		{name: "clamps above one", in: 1.7, want: 10000},
		{name: "clamps below zero", in: -0.2, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeConfidence(tt.in))
		})
	}
}

func TestDecodeConfidence_RejectsOutOfScale(t *testing.T) {
	_, err := DecodeConfidence(10001)
	require.Error(t, err)
}

func TestConfidenceRoundTrip(t *testing.T) {
	// Decoding the fixed-point encoding must land within the scale's
	// resolution of the original value.
	for x := 0.0; x <= 1.0; x += 0.0137 {
		decoded, err := DecodeConfidence(EncodeConfidence(x))
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(decoded-x), 0.0001, "x=%v", x)
	}
}

func TestParseFingerprint(t *testing.T) {
	var fp Fingerprint
	for i := range fp {
		fp[i] = byte(i)
	}

	parsed, err := ParseFingerprint(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	_, err = ParseFingerprint("zz")
	require.Error(t, err)

	_, err = ParseFingerprint(strings.Repeat("ab", 16))
	require.Error(t, err, "16 bytes is too short")
}

func TestLabelValid(t *testing.T) {
	assert.True(t, LabelReal.Valid())
	assert.True(t, LabelFake.Valid())
	assert.False(t, Label("maybe").Valid())
	assert.False(t, Label("").Valid())
}
