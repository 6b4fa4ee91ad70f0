package scan

import (
	"image"

	"github.com/disintegration/imaging"
)

// CropRect is a crop rectangle in photo pixel space.
type CropRect struct {
	OriginX int `json:"origin_x"`
	OriginY int `json:"origin_y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// GuideRect is the on-screen alignment guide in logical screen units (origin top-left).
type GuideRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CropRegion maps the on-screen guide rectangle onto the captured photo.
// Horizontal and vertical scale factors are computed independently since the
// photo rarely shares the screen's aspect ratio. All values are floored, then
// clamped: float scaling can overshoot the photo edge by a pixel.
func CropRegion(photoW, photoH int, screenW, screenH float64, guide GuideRect) CropRect {
	sx := float64(photoW) / screenW
	sy := float64(photoH) / screenH
	r := CropRect{
		OriginX: int(guide.X * sx),
		OriginY: int(guide.Y * sy),
		Width:   int(guide.Width * sx),
		Height:  int(guide.Height * sy),
	}
	if r.OriginX < 0 {
		r.OriginX = 0
	}
	if r.OriginY < 0 {
		r.OriginY = 0
	}
	if r.OriginX > photoW {
		r.OriginX = photoW
	}
	if r.OriginY > photoH {
		r.OriginY = photoH
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if r.OriginX+r.Width > photoW {
		r.Width = photoW - r.OriginX
	}
	if r.OriginY+r.Height > photoH {
		r.Height = photoH - r.OriginY
	}
	return r
}

// Apply crops img to the region computed for the given guide/screen geometry.
func Apply(img image.Image, screenW, screenH float64, guide GuideRect) image.Image {
	b := img.Bounds()
	r := CropRegion(b.Dx(), b.Dy(), screenW, screenH, guide)
	return imaging.Crop(img, image.Rect(r.OriginX, r.OriginY, r.OriginX+r.Width, r.OriginY+r.Height))
}
