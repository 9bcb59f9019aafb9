package field

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/spatialmath"
)

const (
	// Scale is the number of pixels per field unit.
	Scale        = 4
	markerRadius = 3
	labelSize    = 11
)

var (
	background  = color.RGBA{30, 30, 30, 255}
	borderColor = color.Gray{Y: 128}
	bodyColor   = color.RGBA{200, 30, 30, 255}
	noseColor   = color.RGBA{40, 80, 230, 255}
	trailColor  = color.RGBA{120, 170, 255, 200}
	labelColor  = color.White

	font *truetype.Font
)

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Scene is everything drawn in one frame.
type Scene struct {
	Robot     spatialmath.Pose
	Powers    mecanum.MotorPowers
	Footprint float64
	Marks     []Mark
	Trail     []r2.Point
}

// Render draws the scene with the field origin at the bottom-left corner and +Y up. The robot is a
// Footprint sized square whose pose is its lower-left corner; it is rotated about its center and a
// nose line points along its +X axis. Wheel powers are printed outside each corner.
func Render(scene Scene) image.Image {
	return render(scene).Image()
}

// WritePNG renders the scene and encodes it as PNG.
func WritePNG(w io.Writer, scene Scene) error {
	return render(scene).EncodePNG(w)
}

func render(scene Scene) *gg.Context {
	const size = Units * Scale
	dc := gg.NewContext(size, size)
	dc.SetColor(background)
	dc.Clear()

	dc.Push()
	dc.InvertY()

	dc.SetColor(borderColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(0, 0, size, size)
	dc.Stroke()

	if len(scene.Trail) > 1 {
		dc.SetColor(trailColor)
		dc.SetLineWidth(1)
		dc.MoveTo(scene.Trail[0].X*Scale, scene.Trail[0].Y*Scale)
		for _, p := range scene.Trail[1:] {
			dc.LineTo(p.X*Scale, p.Y*Scale)
		}
		dc.Stroke()
	}

	for _, m := range scene.Marks {
		dc.SetColor(m.Color)
		dc.DrawCircle(m.Pose.X*Scale, m.Pose.Y*Scale, markerRadius)
		dc.Fill()
	}

	robotSize := scene.Footprint * Scale
	half := robotSize / 2
	cx := scene.Robot.X*Scale + half
	cy := scene.Robot.Y*Scale + half

	dc.Push()
	dc.RotateAbout(scene.Robot.Heading, cx, cy)
	dc.SetColor(bodyColor)
	dc.DrawRectangle(cx-half, cy-half, robotSize, robotSize)
	dc.Fill()
	dc.SetColor(noseColor)
	dc.SetLineWidth(2)
	dc.DrawLine(cx, cy, cx+half, cy)
	dc.Stroke()
	dc.Pop()

	dc.Pop()

	// labels are drawn upright in image coordinates around the unrotated footprint
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: labelSize}))
	dc.SetColor(labelColor)
	left := scene.Robot.X * Scale
	top := size - scene.Robot.Y*Scale - robotSize
	dc.DrawString(fmt.Sprintf("%.2f", scene.Powers.FL), left-35, top+12)
	dc.DrawString(fmt.Sprintf("%.2f", scene.Powers.FR), left+robotSize+5, top+12)
	dc.DrawString(fmt.Sprintf("%.2f", scene.Powers.BL), left-35, top+robotSize-5)
	dc.DrawString(fmt.Sprintf("%.2f", scene.Powers.BR), left+robotSize+5, top+robotSize-5)

	return dc
}

// ToPixel maps a field point to image coordinates.
func ToPixel(p r2.Point) image.Point {
	return image.Pt(int(p.X*Scale+0.5), int(Units*Scale-p.Y*Scale+0.5))
}
