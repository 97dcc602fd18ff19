// Package threshold keeps the six live HSV bounds that drive segmentation
// and mirrors them onto a set of sliders.
package threshold

import (
	"github.com/rs/zerolog"

	"github.com/DaniruKun/invisibility-cloak/imgproc"
)

// Slider is a control whose position can be moved programmatically.
type Slider interface {
	SetPos(pos int)
}

// Surface creates sliders that write their position straight into value.
type Surface interface {
	Bind(name string, value *int, max int) Slider
}

// Presets looks up a named range.
type Presets interface {
	Get(name string) (imgproc.Range, bool)
}

// Values are the live slider positions.
type Values struct {
	HLower, SLower, VLower int
	HUpper, SUpper, VUpper int
}

var sliderNames = [6]string{"H Lower", "S Lower", "V Lower", "H Upper", "S Upper", "V Upper"}

type Controller struct {
	values  Values
	sliders []Slider
	active  string
	logger  zerolog.Logger
}

func NewController(logger zerolog.Logger) *Controller {
	return &Controller{logger: logger}
}

// fields returns the values in slider order.
func (c *Controller) fields() [6]*int {
	v := &c.values
	return [6]*int{&v.HLower, &v.SLower, &v.VLower, &v.HUpper, &v.SUpper, &v.VUpper}
}

// Attach binds every value to a slider on s. The sliders start at the
// current values.
func (c *Controller) Attach(s Surface) {
	c.sliders = c.sliders[:0]
	for i, field := range c.fields() {
		c.sliders = append(c.sliders, s.Bind(sliderNames[i], field, imgproc.ChannelMax(i%3)))
	}
}

// Current returns the range described by the live values.
func (c *Controller) Current() imgproc.Range {
	v := c.values
	return imgproc.Range{
		Lower: imgproc.Triple{v.HLower, v.SLower, v.VLower},
		Upper: imgproc.Triple{v.HUpper, v.SUpper, v.VUpper},
	}.Clamp()
}

// Apply overwrites the live values with r and moves the sliders to match.
func (c *Controller) Apply(r imgproc.Range) {
	r = r.Clamp()
	vals := [6]int{r.Lower[0], r.Lower[1], r.Lower[2], r.Upper[0], r.Upper[1], r.Upper[2]}

	for i, field := range c.fields() {
		*field = vals[i]
		if i < len(c.sliders) {
			c.sliders[i].SetPos(vals[i])
		}
	}
}

// Select applies the preset called name and marks it active. It reports
// false and changes nothing when the preset does not exist.
func (c *Controller) Select(name string, presets Presets) bool {
	r, ok := presets.Get(name)
	if !ok {
		c.logger.Warn().Str("preset", name).Msg("Unknown preset")
		return false
	}
	c.Apply(r)
	c.active = name
	c.logger.Info().Str("preset", name).Object("range", r).Msg("Switched preset")
	return true
}

// Active returns the name of the last selected preset.
func (c *Controller) Active() string {
	return c.active
}
