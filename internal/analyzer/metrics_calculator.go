package analyzer

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// parallelPixelThreshold is the pixel count above which row strips are
// processed concurrently.
const parallelPixelThreshold = 100000

// metricsCalculator implements MetricsCalculator interface with Gonum
type metricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{}
}

// Grayscale converts img to 8-bit luma (0.299R + 0.587G + 0.114B) of the
// straight, non-premultiplied color. Alpha is dropped, not composited.
func (mc *metricsCalculator) Grayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	rgbAt := straightRGBReader(img)

	mc.forStrips(bounds, func(startY, endY int) {
		for y := startY; y < endY; y++ {
			row := gray.Pix[gray.PixOffset(bounds.Min.X, y):]
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b := rgbAt(x, y)
				row[x-bounds.Min.X] = luma(r, g, b)
			}
		}
	})
	return gray
}

// luma matches color.GrayModel on opaque colors
func luma(r, g, b uint8) uint8 {
	r16, g16, b16 := uint32(r)*0x101, uint32(g)*0x101, uint32(b)*0x101
	return uint8((19595*r16 + 38470*g16 + 7471*b16 + 1<<15) >> 24)
}

// straightRGBReader returns a reader of the un-premultiplied 8-bit RGB of
// img. Fully transparent pixels keep their color where the source stores it.
func straightRGBReader(img image.Image) func(x, y int) (r, g, b uint8) {
	if src, ok := img.(*image.NRGBA); ok {
		return func(x, y int) (uint8, uint8, uint8) {
			i := src.PixOffset(x, y)
			return src.Pix[i], src.Pix[i+1], src.Pix[i+2]
		}
	}
	return func(x, y int) (uint8, uint8, uint8) {
		switch c := img.At(x, y).(type) {
		case color.NRGBA:
			return c.R, c.G, c.B
		case color.Gray:
			return c.Y, c.Y, c.Y
		default:
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			return n.R, n.G, n.B
		}
	}
}

// CalculateLaplacianVariance computes the population variance of the
// 4-neighbour Laplacian response over every pixel. Borders are reflected
// without repeating the edge pixel (…c b | a b c…). Only one row of
// responses per strip is held in memory; rows are combined with the law of
// total variance.
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[reflect101(y, height)*gray.Stride+reflect101(x, width)])
	}

	rowMeans := make([]float64, height)
	rowVars := make([]float64, height)

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	mc.forStrips(bounds, func(startY, endY int) {
		row := make([]float64, width)
		for y := startY - bounds.Min.Y; y < endY-bounds.Min.Y; y++ {
			for x := 0; x < width; x++ {
				row[x] = -4*at(x, y) + at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y)
			}
			rowMeans[y], rowVars[y] = stat.PopMeanVariance(row, nil)
		}
	})

	// Rows have equal size: total variance is the mean of the row
	// variances plus the variance of the row means.
	_, between := stat.PopMeanVariance(rowMeans, nil)
	return stat.Mean(rowVars, nil) + between
}

// reflect101 maps an out-of-range index back into [0, n).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// CalculateMeanSaturation returns the mean HSV saturation on a 0-255 scale,
// processing horizontal strips in parallel for large images.
func (mc *metricsCalculator) CalculateMeanSaturation(img image.Image) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Handle empty images
	if width == 0 || height == 0 {
		return 0
	}

	rgbAt := straightRGBReader(img)
	sumRows := func(startY, endY int) float64 {
		var sat float64
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b := rgbAt(x, y)
				_, s, _ := mc.rgbToHSV(float64(r), float64(g), float64(b))
				sat += math.Round(s * 255)
			}
		}
		return sat
	}

	total := mc.sumStrips(bounds, sumRows)
	return total / float64(width*height)
}

// CalculateBrightness computes the mean gray level with parallel processing
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Handle empty images
	if width == 0 || height == 0 {
		return 0
	}

	sumRows := func(startY, endY int) float64 {
		var total float64
		for y := startY - bounds.Min.Y; y < endY-bounds.Min.Y; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			for _, v := range row {
				total += float64(v)
			}
		}
		return total
	}

	total := mc.sumStrips(bounds, sumRows)
	return total / float64(width*height)
}

// sumStrips sums fn over the row strips of bounds. Partial results are
// added in strip order so the total does not depend on scheduling.
func (mc *metricsCalculator) sumStrips(bounds image.Rectangle, fn func(startY, endY int) float64) float64 {
	var mu sync.Mutex
	partials := map[int]float64{}
	mc.forStrips(bounds, func(startY, endY int) {
		p := fn(startY, endY)
		mu.Lock()
		partials[startY] = p
		mu.Unlock()
	})

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		total += partials[y]
	}
	return total
}

// forStrips splits bounds into horizontal strips and runs fn on each,
// concurrently for large images. fn receives absolute row coordinates.
func (mc *metricsCalculator) forStrips(bounds image.Rectangle, fn func(startY, endY int)) {
	height := bounds.Dy()
	if bounds.Dx()*height < parallelPixelThreshold {
		fn(bounds.Min.Y, bounds.Max.Y)
		return
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	var wg sync.WaitGroup
	for startY := bounds.Min.Y; startY < bounds.Max.Y; startY += rowsPerWorker {
		endY := min(startY+rowsPerWorker, bounds.Max.Y)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(startY, endY)
		}()
	}
	wg.Wait()
}

// rgbToHSV provides RGB to HSV conversion
func (mc *metricsCalculator) rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * (((g - b) / delta) + 0)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}
