package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"local zero prefix", "07701234567", "+9647701234567"},
		{"double-zero country prefix", "009647701234567", "+9647701234567"},
		{"bare country code", "9647701234567", "+9647701234567"},
		{"already canonical", "+9647701234567", "+9647701234567"},
		{"bare subscriber number", "7701234567", "+9647701234567"},
		{"spaces and dashes stripped", "0770 123-4567", "+9647701234567"},
		{"parentheses stripped", "(0770) 123 4567", "+9647701234567"},
		{"foreign number untouched", "+14155550100", "+14155550100"},
		{"short unrecognized input untouched", "12345", "12345"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

// Normalizing an already-normalized number must be a no-op, since the
// canonical form flows back through login and lookup paths.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"07701234567",
		"009647701234567",
		"9647701234567",
		"+9647701234567",
		"7701234567",
		"+14155550100",
		"garbage",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}
