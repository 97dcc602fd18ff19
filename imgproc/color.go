package imgproc

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Channel limits of 8-bit OpenCV HSV images.
const (
	MaxHue        = 180
	MaxSaturation = 255
	MaxValue      = 255
)

// HSV is a color in OpenCV's 8-bit HSV scale.
type HSV struct {
	H int // 0 <= H <= 180, half of the hue angle in degrees
	S int // 0 <= S <= 255
	V int // 0 <= V <= 255
}

// Converts an HSV color to RGBA, where `A` is implicitly set to 255 (solid)
func (col HSV) RGBA() color.RGBA {
	h := math.Mod(float64(col.H)*2, 360)
	s := float64(col.S) / MaxSaturation
	v := float64(col.V) / MaxValue

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var rp, gp, bp float64 // R' G' B'
	switch {
	case h < 60:
		rp, gp, bp = c, x, 0
	case h < 120:
		rp, gp, bp = x, c, 0
	case h < 180:
		rp, gp, bp = 0, c, x
	case h < 240:
		rp, gp, bp = 0, x, c
	case h < 300:
		rp, gp, bp = x, 0, c
	default:
		rp, gp, bp = c, 0, x
	}

	r := uint8(math.Round((rp + m) * 255))
	g := uint8(math.Round((gp + m) * 255))
	b := uint8(math.Round((bp + m) * 255))

	return color.RGBA{r, g, b, 255}
}

// Triple holds one bound of an HSV range as [h, s, v].
type Triple [3]int

var channelMax = Triple{MaxHue, MaxSaturation, MaxValue}

// ChannelMax returns the largest valid value of channel c (0 = H, 1 = S, 2 = V).
func ChannelMax(c int) int {
	return channelMax[c]
}

// Clamp bounds every component to its channel's valid range.
func (t Triple) Clamp() Triple {
	for c := range t {
		if t[c] < 0 {
			t[c] = 0
		}
		if t[c] > channelMax[c] {
			t[c] = channelMax[c]
		}
	}
	return t
}

// Scalar converts the triple to a gocv.Scalar usable as an InRange bound.
func (t Triple) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(t[0]), float64(t[1]), float64(t[2]), 0)
}

// UnmarshalJSON only accepts an array of exactly three integers.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != len(t) {
		return fmt.Errorf("expected %d components, got %d", len(t), len(vals))
	}
	copy(t[:], vals)
	return nil
}

// Range is an inclusive lower/upper HSV bound pair. Lower <= Upper is
// expected but not enforced; an inverted channel simply matches nothing.
type Range struct {
	Lower Triple `json:"lower"`
	Upper Triple `json:"upper"`
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var aux struct {
		Lower *Triple `json:"lower"`
		Upper *Triple `json:"upper"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Lower == nil || aux.Upper == nil {
		return fmt.Errorf("range needs both lower and upper bounds")
	}
	r.Lower, r.Upper = *aux.Lower, *aux.Upper
	return nil
}

// Clamp bounds both triples to their channel ranges.
func (r Range) Clamp() Range {
	return Range{Lower: r.Lower.Clamp(), Upper: r.Upper.Clamp()}
}

// Mid returns the color halfway between the lower and upper bound.
func (r Range) Mid() HSV {
	return HSV{
		H: (r.Lower[0] + r.Upper[0]) / 2,
		S: (r.Lower[1] + r.Upper[1]) / 2,
		V: (r.Lower[2] + r.Upper[2]) / 2,
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%v-%v", r.Lower, r.Upper)
}

func (r Range) MarshalZerologObject(e *zerolog.Event) {
	e.Ints("lower", r.Lower[:]).
		Ints("upper", r.Upper[:])
}
