package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestNewMetricsCalculator(t *testing.T) {
	calc := NewMetricsCalculator()
	if calc == nil {
		t.Error("Expected non-nil metrics calculator")
	}
}

func TestGrayscale(t *testing.T) {
	calc := NewMetricsCalculator()

	testCases := []struct {
		name     string
		fill     color.RGBA
		expected uint8
	}{
		{"Mid Gray", color.RGBA{128, 128, 128, 255}, 128},
		{"White", color.RGBA{255, 255, 255, 255}, 255},
		{"Black", color.RGBA{0, 0, 0, 255}, 0},
		{"Pure Red", color.RGBA{255, 0, 0, 255}, 76},
		{"Pure Green", color.RGBA{0, 255, 0, 255}, 150},
		{"Pure Blue", color.RGBA{0, 0, 255, 255}, 29},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gray := calc.Grayscale(createTestImage(4, 4, tc.fill))
			if got := gray.GrayAt(1, 1).Y; got != tc.expected {
				t.Errorf("Expected gray level %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestGrayscale_ReturnsGrayInputUnchanged(t *testing.T) {
	calc := NewMetricsCalculator()
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	if calc.Grayscale(gray) != gray {
		t.Error("Expected *image.Gray input to be used as is")
	}
}

func TestCalculateLaplacianVariance(t *testing.T) {
	calc := NewMetricsCalculator()

	// Create a uniform image (should have zero variance)
	gray := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			gray.Set(x, y, color.Gray{128})
		}
	}

	variance := calc.CalculateLaplacianVariance(gray)
	if variance != 0 {
		t.Errorf("Expected zero variance for uniform image, got %f", variance)
	}
}

func TestCalculateLaplacianVariance_EdgeImage(t *testing.T) {
	calc := NewMetricsCalculator()

	// Create an image with one vertical edge
	gray := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				gray.Set(x, y, color.Gray{0}) // Black half
			} else {
				gray.Set(x, y, color.Gray{255}) // White half
			}
		}
	}

	// Column 49 responds with +255 and column 50 with -255, every other
	// pixel with 0: variance = 200 * 255^2 / 10000.
	expected := 200.0 * 255 * 255 / 10000
	variance := calc.CalculateLaplacianVariance(gray)
	if math.Abs(variance-expected) > 1e-6 {
		t.Errorf("Expected variance %f, got %f", expected, variance)
	}
}

func TestCalculateLaplacianVariance_SubImageOrigin(t *testing.T) {
	calc := NewMetricsCalculator()

	parent := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if (x+y)%2 == 0 {
				parent.SetGray(x, y, color.Gray{255})
			}
		}
	}
	sub := parent.SubImage(image.Rect(10, 10, 30, 30)).(*image.Gray)

	standalone := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			standalone.SetGray(x, y, sub.GrayAt(x+10, y+10))
		}
	}

	got := calc.CalculateLaplacianVariance(sub)
	want := calc.CalculateLaplacianVariance(standalone)
	if got != want {
		t.Errorf("Expected sub-image variance %f to equal standalone %f", got, want)
	}
}

func TestCalculateLaplacianVariance_TinyImages(t *testing.T) {
	calc := NewMetricsCalculator()

	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 1, 1),
		image.Rect(0, 0, 1, 7),
		image.Rect(0, 0, 2, 2),
		image.Rect(0, 0, 0, 0),
	} {
		gray := image.NewGray(r)
		if v := calc.CalculateLaplacianVariance(gray); v != 0 {
			t.Errorf("Expected zero variance for %v, got %f", r, v)
		}
	}
}

func TestReflect101(t *testing.T) {
	testCases := []struct {
		i, n, expected int
	}{
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{2, 5, 2},
		{-1, 2, 1},
		{2, 2, 0},
		{-1, 1, 0},
		{1, 1, 0},
	}

	for _, tc := range testCases {
		if got := reflect101(tc.i, tc.n); got != tc.expected {
			t.Errorf("reflect101(%d, %d) = %d, expected %d", tc.i, tc.n, got, tc.expected)
		}
	}
}

func TestCalculateMeanSaturation(t *testing.T) {
	calc := NewMetricsCalculator()

	testCases := []struct {
		name     string
		fill     color.RGBA
		expected float64
	}{
		{"Gray Image", color.RGBA{128, 128, 128, 255}, 0},
		{"Black Image", color.RGBA{0, 0, 0, 255}, 0},
		{"Pure Red", color.RGBA{255, 0, 0, 255}, 255},
		{"Pure Blue", color.RGBA{0, 0, 255, 255}, 255},
		{"Half Saturated", color.RGBA{200, 100, 200, 255}, 128},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := createTestImage(50, 50, tc.fill)
			if got := calc.CalculateMeanSaturation(img); got != tc.expected {
				t.Errorf("Expected mean saturation %f, got %f", tc.expected, got)
			}
		})
	}
}

func TestCalculateMeanSaturation_MixedImage(t *testing.T) {
	calc := NewMetricsCalculator()

	// Left half pure red, right half gray: mean is half of 255.
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{90, 90, 90, 255})
			}
		}
	}

	if got := calc.CalculateMeanSaturation(img); got != 127.5 {
		t.Errorf("Expected mean saturation 127.5, got %f", got)
	}
}

func TestCalculateMeanSaturation_ParallelMatchesSequential(t *testing.T) {
	calc := NewMetricsCalculator()

	// 500x400 crosses the parallel threshold.
	img := createGradientImage(500, 400)
	for y := 0; y < 400; y += 3 {
		img.Set(y%500, y, color.RGBA{250, 10, 40, 255})
	}

	parallel := calc.CalculateMeanSaturation(img)

	mc := calc.(*metricsCalculator)
	var sum float64
	for y := 0; y < 400; y++ {
		for x := 0; x < 500; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			_, s, _ := mc.rgbToHSV(float64(r>>8), float64(g>>8), float64(b>>8))
			sum += math.Round(s * 255)
		}
	}
	sequential := sum / (500 * 400)

	if parallel != sequential {
		t.Errorf("Expected parallel result %f to equal sequential %f", parallel, sequential)
	}
}

func TestCalculateBrightness(t *testing.T) {
	calc := NewMetricsCalculator()

	testCases := []struct {
		name           string
		grayValue      uint8
		size           int
		expectedBright float64
	}{
		{"Black Image", 0, 50, 0.0},
		{"Gray Image", 128, 50, 128.0},
		{"White Image", 255, 50, 255.0},
		{"Large Gray Image", 150, 400, 150.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gray := image.NewGray(image.Rect(0, 0, tc.size, tc.size))
			for y := 0; y < tc.size; y++ {
				for x := 0; x < tc.size; x++ {
					gray.Set(x, y, color.Gray{tc.grayValue})
				}
			}

			brightness := calc.CalculateBrightness(gray)

			if brightness != tc.expectedBright {
				t.Errorf("Expected brightness %f, got %f", tc.expectedBright, brightness)
			}
		})
	}
}

func TestCalculateBrightness_Empty(t *testing.T) {
	calc := NewMetricsCalculator()
	if b := calc.CalculateBrightness(image.NewGray(image.Rectangle{})); b != 0 {
		t.Errorf("Expected 0 brightness for empty image, got %f", b)
	}
}

func TestMetrics_TransparentPixelsUseStraightColor(t *testing.T) {
	calc := NewMetricsCalculator()

	img := image.NewNRGBA(image.Rect(0, 0, 16, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 0})
		}
	}

	if sat := calc.CalculateMeanSaturation(img); sat != 255 {
		t.Errorf("Expected saturation 255 for transparent red, got %f", sat)
	}
	gray := calc.Grayscale(img)
	if got := gray.GrayAt(3, 3).Y; got != 76 {
		t.Errorf("Expected gray level 76 for transparent red, got %d", got)
	}
	if b := calc.CalculateBrightness(gray); b != 76 {
		t.Errorf("Expected brightness 76, got %f", b)
	}
}

func TestGrayscale_HalfTransparentMatchesOpaque(t *testing.T) {
	calc := NewMetricsCalculator()

	translucent := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	opaque := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			translucent.SetNRGBA(x, y, color.NRGBA{40, 200, 90, 128})
			opaque.SetNRGBA(x, y, color.NRGBA{40, 200, 90, 255})
		}
	}

	if a, b := calc.Grayscale(translucent).GrayAt(0, 0).Y, calc.Grayscale(opaque).GrayAt(0, 0).Y; a != b {
		t.Errorf("Expected alpha to be ignored, got %d vs %d", a, b)
	}
}

func TestCalculateLaplacianVariance_MatchesDirectComputation(t *testing.T) {
	calc := NewMetricsCalculator()

	// 600x300 crosses the parallel threshold
	const w, h = 600, 300
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.Pix[y*gray.Stride+x] = uint8((x*x + 7*y*x + 3*y) % 256)
		}
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[reflect101(y, h)*gray.Stride+reflect101(x, w)])
	}
	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := -4*at(x, y) + at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	expected := sumSq/n - mean*mean

	got := calc.CalculateLaplacianVariance(gray)
	if math.Abs(got-expected) > 1e-6*expected {
		t.Errorf("Expected variance %f, got %f", expected, got)
	}
}
