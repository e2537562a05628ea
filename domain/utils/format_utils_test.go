package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatShortNotation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5k"},
		{50000, "50k"},
		{-25000, "-25k"},
		{2500000, "2.50M"},
		{3000000000, "3.00B"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatShortNotation(tt.value))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1500 ₸", FormatMoney(1500))
	assert.Equal(t, "+50 ₸", FormatSignedMoney(50))
	assert.Equal(t, "-50 ₸", FormatSignedMoney(-50))
	assert.Equal(t, "0 ₸", FormatSignedMoney(0))
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0%", FormatPercent(0))
	assert.Equal(t, "33%", FormatPercent(0.3333))
	assert.Equal(t, "100%", FormatPercent(1))
}
