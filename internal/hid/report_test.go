package hid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMouseReportBytes(t *testing.T) {
	r := MouseReport{Buttons: ButtonLeft, DX: 5, DY: -5, Wheel: 1}
	assert.Equal(t, []byte{0x01, 0x05, 0xFB, 0x01}, r.Bytes())
	assert.Equal(t, []byte{0x01, 0x05, 0xFB}, r.BootBytes())
}

func TestSplitMotion(t *testing.T) {
	cases := []struct {
		name   string
		dx, dy int16
		want   int // number of reports
	}{
		{"zero", 0, 0, 1},
		{"small", 5, 0, 1},
		{"axis max", 127, -127, 1},
		{"just over", 128, 0, 2},
		{"large mixed", 1000, -300, 8},
		{"int16 min", -32768, 0, 259},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reports := SplitMotion(tc.dx, tc.dy)
			require.Len(t, reports, tc.want)

			var sx, sy int
			for _, r := range reports {
				assert.LessOrEqual(t, int(r.DX), MaxAxis)
				assert.GreaterOrEqual(t, int(r.DX), -MaxAxis)
				assert.LessOrEqual(t, int(r.DY), MaxAxis)
				assert.GreaterOrEqual(t, int(r.DY), -MaxAxis)
				sx += int(r.DX)
				sy += int(r.DY)
			}
			assert.Equal(t, int(tc.dx), sx)
			assert.Equal(t, int(tc.dy), sy)
		})
	}
}

func TestReportMapIsBalanced(t *testing.T) {
	// Every Collection (0xA1) must be closed by an End Collection (0xC0).
	depth := 0
	for i := 0; i < len(ReportMap); i++ {
		b := ReportMap[i]
		switch b {
		case 0xA1:
			depth++
			i++ // skip the one-byte collection type
			continue
		case 0xC0:
			depth--
			continue
		}
		// Short items carry 0-4 data bytes encoded in the low two bits.
		size := int(b & 0x03)
		if size == 3 {
			size = 4
		}
		i += size
	}
	assert.Equal(t, 0, depth)
}

func TestTransportError(t *testing.T) {
	assert.Nil(t, NewTransportError("submit", nil))

	err := NewTransportError("submit", ErrNotConnected)
	assert.True(t, IsTransportError(err))
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.EqualError(t, err, "hid transport: submit: no host connected")

	wrapped := fmt.Errorf("ble: %w", err)
	assert.True(t, IsTransportError(wrapped))
	assert.False(t, IsTransportError(errors.New("plain")))
}

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "disconnected", Disconnected.String())
}
