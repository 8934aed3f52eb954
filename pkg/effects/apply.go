package effects

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// sepiaWeights is the classic sepia channel-remix matrix, rows in BGR
// order to match the capture format.
var sepiaWeights = [3][3]float32{
	{0.272, 0.534, 0.131},
	{0.349, 0.686, 0.168},
	{0.393, 0.769, 0.189},
}

var embossKernel = [3][3]float32{
	{0, -1, -1},
	{1, 0, -1},
	{1, 1, 0},
}

var sharpenKernel = [3][3]float32{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// Apply runs the full pipeline over one frame: mirror, then flip, then
// rotation, then the selected effect. The returned Mat is freshly
// allocated and owned by the caller; src is left untouched.
func Apply(src gocv.Mat, cfg Config) (gocv.Mat, error) {
	if src.Empty() || src.Rows() == 0 || src.Cols() == 0 {
		return gocv.Mat{}, &PipelineError{Reason: "empty frame"}
	}
	if !cfg.Rotation.Valid() {
		return gocv.Mat{}, &PipelineError{Reason: fmt.Sprintf("unsupported rotation %d", cfg.Rotation)}
	}

	out := src.Clone()
	if cfg.Mirror {
		flipInto(&out, 1)
	}
	if cfg.Flip {
		flipInto(&out, 0)
	}
	switch cfg.Rotation {
	case Rotate90:
		rotateInto(&out, gocv.Rotate90Clockwise)
	case Rotate180:
		rotateInto(&out, gocv.Rotate180Clockwise)
	case Rotate270:
		rotateInto(&out, gocv.Rotate90CounterClockwise)
	}

	if err := applyEffect(&out, cfg.Effect); err != nil {
		out.Close()
		return gocv.Mat{}, err
	}
	return out, nil
}

// flipInto replaces *m with its flipped copy. flipCode follows OpenCV:
// 1 flips around the vertical axis (mirror), 0 around the horizontal.
func flipInto(m *gocv.Mat, flipCode int) {
	dst := gocv.NewMat()
	gocv.Flip(*m, &dst, flipCode)
	m.Close()
	*m = dst
}

func rotateInto(m *gocv.Mat, code gocv.RotateFlag) {
	dst := gocv.NewMat()
	gocv.Rotate(*m, &dst, code)
	m.Close()
	*m = dst
}

func applyEffect(m *gocv.Mat, effect Effect) error {
	switch effect {
	case None:
		return nil
	case Blur:
		dst := gocv.NewMat()
		gocv.GaussianBlur(*m, &dst, image.Pt(15, 15), 0, 0, gocv.BorderDefault)
		m.Close()
		*m = dst
	case Edges:
		applyEdges(m)
	case Cartoon:
		applyCartoon(m)
	case Sepia:
		kernel := kernelMat(sepiaWeights)
		defer kernel.Close()
		dst := gocv.NewMat()
		gocv.Transform(*m, &dst, kernel)
		m.Close()
		*m = dst
	case Negative:
		dst := gocv.NewMat()
		gocv.BitwiseNot(*m, &dst)
		m.Close()
		*m = dst
	case Grayscale:
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(*m, &gray, gocv.ColorBGRToGray)
		dst := gocv.NewMat()
		gocv.CvtColor(gray, &dst, gocv.ColorGrayToBGR)
		m.Close()
		*m = dst
	case Emboss:
		convolveInto(m, embossKernel, 128)
	case Sharpen:
		convolveInto(m, sharpenKernel, 0)
	default:
		return &PipelineError{Reason: fmt.Sprintf("unknown effect %d", effect)}
	}
	return nil
}

// applyEdges produces a Canny edge map, broadcast back to three channels
// so downstream consumers always see the capture channel count.
func applyEdges(m *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*m, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 100, 200)

	dst := gocv.NewMat()
	gocv.CvtColor(edges, &dst, gocv.ColorGrayToBGR)
	m.Close()
	*m = dst
}

// applyCartoon combines edge-preserving smoothing with darkened edge
// outlines: bilateral-filtered color masked by an adaptive threshold of
// the median-blurred grayscale.
func applyCartoon(m *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*m, &gray, gocv.ColorBGRToGray)

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	gocv.MedianBlur(gray, &smoothed, 5)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.AdaptiveThreshold(smoothed, &edges, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, 9, 9)

	color := gocv.NewMat()
	defer color.Close()
	gocv.BilateralFilter(*m, &color, 9, 300, 300)

	dst := gocv.NewMat()
	gocv.BitwiseAndWithMask(color, color, &dst, edges)
	m.Close()
	*m = dst
}

func convolveInto(m *gocv.Mat, weights [3][3]float32, delta float64) {
	kernel := kernelMat(weights)
	defer kernel.Close()
	dst := gocv.NewMat()
	gocv.Filter2D(*m, &dst, -1, kernel, image.Pt(-1, -1), delta, gocv.BorderDefault)
	m.Close()
	*m = dst
}

func kernelMat(weights [3][3]float32) gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			kernel.SetFloatAt(row, col, weights[row][col])
		}
	}
	return kernel
}
