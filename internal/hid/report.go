package hid

// MaxAxis is the largest magnitude a single report can carry on one axis.
const MaxAxis = 127

// Button bits in the first report byte.
const (
	ButtonLeft   uint8 = 1 << 0
	ButtonRight  uint8 = 1 << 1
	ButtonMiddle uint8 = 1 << 2
)

// MouseReport is one input report of a 3-button wheel mouse.
type MouseReport struct {
	Buttons uint8
	DX      int8
	DY      int8
	Wheel   int8
}

// Bytes encodes the report in report-protocol layout:
//
//	0: buttons
//	1: X (relative, int8)
//	2: Y (relative, int8)
//	3: wheel (relative, int8)
func (r MouseReport) Bytes() []byte {
	return []byte{r.Buttons, byte(r.DX), byte(r.DY), byte(r.Wheel)}
}

// BootBytes encodes the report in the 3-byte boot-protocol layout.
func (r MouseReport) BootBytes() []byte {
	return []byte{r.Buttons, byte(r.DX), byte(r.DY)}
}

// SplitMotion splits a displacement into reports that each fit the 8-bit
// axis range. The reports sum to (dx, dy). A zero displacement yields a
// single empty report.
func SplitMotion(dx, dy int16) []MouseReport {
	x, y := int(dx), int(dy)
	if x == 0 && y == 0 {
		return []MouseReport{{}}
	}

	var reports []MouseReport
	for x != 0 || y != 0 {
		sx, sy := clampAxis(x), clampAxis(y)
		reports = append(reports, MouseReport{DX: int8(sx), DY: int8(sy)})
		x -= sx
		y -= sy
	}
	return reports
}

func clampAxis(v int) int {
	if v > MaxAxis {
		return MaxAxis
	}
	if v < -MaxAxis {
		return -MaxAxis
	}
	return v
}

// ReportMap is the HID report descriptor for a 3-button mouse with relative
// X, Y and wheel axes and no report ID.
var ReportMap = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xA1, 0x01, // Collection (Application)
	0x09, 0x01, //   Usage (Pointer)
	0xA1, 0x00, //   Collection (Physical)
	0x05, 0x09, //     Usage Page (Button)
	0x19, 0x01, //     Usage Minimum (Button 1)
	0x29, 0x03, //     Usage Maximum (Button 3)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x95, 0x03, //     Report Count (3)
	0x75, 0x01, //     Report Size (1)
	0x81, 0x02, //     Input (Data, Variable, Absolute)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x05, //     Report Size (5)
	0x81, 0x03, //     Input (Constant) - padding
	0x05, 0x01, //     Usage Page (Generic Desktop)
	0x09, 0x30, //     Usage (X)
	0x09, 0x31, //     Usage (Y)
	0x09, 0x38, //     Usage (Wheel)
	0x15, 0x81, //     Logical Minimum (-127)
	0x25, 0x7F, //     Logical Maximum (127)
	0x75, 0x08, //     Report Size (8)
	0x95, 0x03, //     Report Count (3)
	0x81, 0x06, //     Input (Data, Variable, Relative)
	0xC0, //   End Collection
	0xC0, // End Collection
}
