package detector

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		valid    bool
	}{
		{input: "08:05", expected: "08:05", valid: true},
		{input: "8:05", expected: "08:05", valid: true},
		{input: " 23:59 ", expected: "23:59", valid: true},
		{input: "00:00", expected: "00:00", valid: true},
		{input: "24:00"},
		{input: "12:60"},
		{input: "12:5"},
		{input: "1205"},
		{input: ""},
		{input: "ab:cd"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := parseClock(tt.input)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTimeWindow))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.String())
		})
	}
}

func TestTimeWindowBounds(t *testing.T) {
	w, err := newTimeWindow("08:05", "09:00")
	require.NoError(t, err)

	at := func(h, m, s int) types.Bar {
		return types.Bar{Time: time.Date(2024, 3, 4, h, m, s, 0, time.UTC)}
	}

	assert.False(t, w.contains(at(8, 4, 59)))
	assert.True(t, w.contains(at(8, 5, 0)))
	assert.True(t, w.contains(at(9, 0, 0)))
	assert.False(t, w.contains(at(9, 0, 30)))

	assert.True(t, w.containsHalfOpen(at(8, 59, 0)))
	assert.False(t, w.containsHalfOpen(at(9, 0, 0)))

	_, err = newTimeWindow("09:00", "08:05")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTimeWindow))
}

func TestTimeWindowUsesBarLocation(t *testing.T) {
	w, err := newTimeWindow("08:05", "09:00")
	require.NoError(t, err)

	cet := time.FixedZone("CET", 3600)
	local := types.Bar{Time: time.Date(2024, 3, 4, 8, 30, 0, 0, cet)}

	assert.True(t, w.contains(local))
	assert.False(t, w.contains(types.Bar{Time: local.Time.UTC()}))
}
