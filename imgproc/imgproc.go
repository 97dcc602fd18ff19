package imgproc

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	ErrEmptyFrame    = errors.New("empty frame")
	ErrFrameMismatch = errors.New("live and background frames differ in size or type")
)

// Composite replaces every pixel of `live` whose HSV value lies inside `r`
// with the same pixel of `background`.
// It returns the composed frame and the binary mask (255 = replaced), both
// owned by the caller. On error no Mats are allocated.
func Composite(live, background gocv.Mat, r Range) (gocv.Mat, gocv.Mat, error) {
	if live.Empty() || background.Empty() {
		return gocv.Mat{}, gocv.Mat{}, ErrEmptyFrame
	}
	if live.Rows() != background.Rows() || live.Cols() != background.Cols() || live.Type() != background.Type() {
		return gocv.Mat{}, gocv.Mat{}, ErrFrameMismatch
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(live, &hsv, gocv.ColorBGRToHSV)

	// Hue is not wrapped: a lower hue above the upper hue matches nothing
	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, r.Lower.Scalar(), r.Upper.Scalar(), &mask)

	inverse := gocv.NewMat()
	defer inverse.Close()
	gocv.BitwiseNot(mask, &inverse)

	backgroundPart := gocv.NewMat()
	defer backgroundPart.Close()
	gocv.BitwiseAndWithMask(background, background, &backgroundPart, mask)

	visiblePart := gocv.NewMat()
	defer visiblePart.Close()
	gocv.BitwiseAndWithMask(live, live, &visiblePart, inverse)

	output := gocv.NewMat()
	gocv.Add(backgroundPart, visiblePart, &output)

	return output, mask, nil
}

// Mirror flips src around the vertical axis into dst
func Mirror(src gocv.Mat, dst *gocv.Mat) {
	gocv.Flip(src, dst, 1)
}

var labelColor = color.RGBA{255, 255, 255, 0}

// DrawLabel writes text in the top left corner of img
func DrawLabel(img *gocv.Mat, text string) {
	gocv.PutText(img, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, labelColor, 2)
}

// DrawSwatch fills a small square in the top right corner of img with the
// midpoint color of r
func DrawSwatch(img *gocv.Mat, r Range) {
	const size = 30

	right := img.Cols() - 10
	rect := image.Rect(right-size, 10, right, 10+size)
	gocv.Rectangle(img, rect, r.Mid().RGBA(), -1)
	gocv.Rectangle(img, rect, labelColor, 1)
}
