package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
)

func TestAnalyzer_GrayscaleComputedOnce(t *testing.T) {
	a := NewAnalyzer(createPatternImage(10, 10))

	g1 := a.Grayscale()
	g2 := a.Grayscale()

	if a.grayRuns != 1 {
		t.Errorf("grayscale computed %d times, want 1", a.grayRuns)
	}
	if !bytes.Equal(g1.Pix, g2.Pix) {
		t.Error("repeated Grayscale calls returned different rasters")
	}
}

func TestAnalyzer_GrayscaleReturnsCopy(t *testing.T) {
	a := NewAnalyzer(createInMemoryImage(3, 3, color.RGBA{50, 50, 50, 255}))

	g := a.Grayscale()
	for i := range g.Pix {
		g.Pix[i] = 0
	}

	if v := a.Grayscale().NRGBAAt(1, 1).R; v != 50 {
		t.Errorf("mutating a returned raster changed the cache: got %d, want 50", v)
	}
}

func TestAnalyzer_HistogramsReturnCopies(t *testing.T) {
	a := NewAnalyzer(grayImage(2, 1, 5, 5))

	h := a.LuminanceHistogram()
	h.Bins[5] = 999
	if got := a.LuminanceHistogram().Bins[5]; got != 2 {
		t.Errorf("luminance cache corrupted: got %d, want 2", got)
	}

	c := a.ChannelHistogram()
	c.Bins[5][ChannelRed] = 999
	if got := a.ChannelHistogram().Bins[5][ChannelRed]; got != 2 {
		t.Errorf("channel cache corrupted: got %d, want 2", got)
	}
}

func TestAnalyzer_SourceIsolatedFromCaller(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{10, 10, 10, 255})
	a := NewAnalyzer(img)

	img.SetNRGBA(0, 0, color.NRGBA{250, 250, 250, 255})

	if v := a.Grayscale().NRGBAAt(0, 0).R; v != 10 {
		t.Errorf("analyzer saw caller mutation: got %d, want 10", v)
	}
	if v := a.Source().NRGBAAt(0, 0).R; v != 10 {
		t.Errorf("Source: got %d, want 10", v)
	}
}

func TestAnalyzer_HistogramsTriggerGrayscaleOnce(t *testing.T) {
	a := NewAnalyzer(createPatternImage(8, 8))

	a.LuminanceHistogram()
	a.ChannelHistogram()
	a.LuminanceHistogram()
	a.ChannelHistogram()
	if _, err := a.Threshold(100); err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	a.Grayscale()

	if a.grayRuns != 1 || a.luminanceRuns != 1 || a.channelRuns != 1 {
		t.Errorf("runs: gray=%d luminance=%d channel=%d, want 1 each",
			a.grayRuns, a.luminanceRuns, a.channelRuns)
	}
}

func TestAnalyzer_ChannelHistogramComputesGrayscale(t *testing.T) {
	a := NewAnalyzer(createPatternImage(4, 4))

	if _, ok := a.GrayscaleHints(); ok {
		t.Fatal("grayscale should be absent before any access")
	}
	a.ChannelHistogram()
	if _, ok := a.GrayscaleHints(); !ok {
		t.Error("ChannelHistogram should compute the grayscale raster first")
	}
}

func TestAnalyzer_ChannelHistogramReadsSourceNotGray(t *testing.T) {
	a := NewAnalyzer(createInMemoryImage(4, 4, color.RGBA{255, 0, 0, 255}))

	h := a.ChannelHistogram()
	if h.Bins[255][ChannelRed] != 16 {
		t.Errorf("[255][red]: got %d, want 16", h.Bins[255][ChannelRed])
	}
	if h.Bins[0][ChannelGreen] != 16 || h.Bins[0][ChannelBlue] != 16 {
		t.Errorf("[0][green]=%d [0][blue]=%d, want 16 each", h.Bins[0][ChannelGreen], h.Bins[0][ChannelBlue])
	}
	// gray value of pure red is 127; it must not appear in the channel histogram
	if h.Bins[127][ChannelRed] != 0 {
		t.Error("channel histogram counted gray values")
	}
}

func TestAnalyzer_ScenarioTwoByTwo(t *testing.T) {
	a := NewAnalyzer(grayImage(2, 2, 10, 200, 10, 200))

	h := a.LuminanceHistogram()
	for v, n := range h.Bins {
		want := 0
		if v == 10 || v == 200 {
			want = 2
		}
		if n != want {
			t.Errorf("bin %d: got %d, want %d", v, n, want)
		}
	}

	out, err := a.Threshold(100)
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	for i, want := range []uint8{0, 255, 0, 255} {
		if got := out.NRGBAAt(i%2, i/2).R; got != want {
			t.Errorf("pixel %d: got %d, want %d", i, got, want)
		}
	}
}

func TestAnalyzer_HistogramSums(t *testing.T) {
	sizes := []struct{ w, h int }{{1, 1}, {5, 3}, {31, 29}}

	for _, s := range sizes {
		a := NewAnalyzer(randomImage(s.w, s.h, int64(s.w+s.h)))
		want := s.w * s.h

		if got := a.LuminanceHistogram().Total(); got != want {
			t.Errorf("%dx%d luminance total: got %d, want %d", s.w, s.h, got, want)
		}
		ch := a.ChannelHistogram()
		for c := ChannelRed; c <= ChannelBlue; c++ {
			if got := ch.Total(c); got != want {
				t.Errorf("%dx%d %s total: got %d, want %d", s.w, s.h, c, got, want)
			}
		}
	}
}

func TestAnalyzer_BindInvalidatesEverything(t *testing.T) {
	a := NewAnalyzer(createInMemoryImage(2, 2, color.RGBA{10, 10, 10, 255}))
	if a.Generation() != 1 {
		t.Fatalf("Generation after construction: got %d, want 1", a.Generation())
	}

	a.Grayscale()
	a.LuminanceHistogram()
	a.ChannelHistogram()

	a.Bind(createInMemoryImage(3, 1, color.RGBA{200, 200, 200, 255}))
	if a.Generation() != 2 {
		t.Errorf("Generation after Bind: got %d, want 2", a.Generation())
	}
	if _, ok := a.GrayscaleHints(); ok {
		t.Error("grayscale should be absent after Bind")
	}

	gray := a.Grayscale()
	if gray.Bounds().Dx() != 3 || gray.NRGBAAt(0, 0).R != 200 {
		t.Errorf("grayscale not recomputed from new raster: bounds %v value %d", gray.Bounds(), gray.NRGBAAt(0, 0).R)
	}

	lum := a.LuminanceHistogram()
	if lum.Bins[10] != 0 || lum.Bins[200] != 3 {
		t.Errorf("luminance histogram stale: [10]=%d [200]=%d", lum.Bins[10], lum.Bins[200])
	}

	ch := a.ChannelHistogram()
	if ch.Bins[10][ChannelRed] != 0 || ch.Bins[200][ChannelRed] != 3 {
		t.Errorf("channel histogram stale: [10]=%d [200]=%d", ch.Bins[10][ChannelRed], ch.Bins[200][ChannelRed])
	}

	if a.grayRuns != 1 || a.luminanceRuns != 1 || a.channelRuns != 1 {
		t.Errorf("runs after rebind: gray=%d luminance=%d channel=%d, want 1 each",
			a.grayRuns, a.luminanceRuns, a.channelRuns)
	}
}

func TestAnalyzer_BindWithoutPriorComputation(t *testing.T) {
	a := NewAnalyzer(createPatternImage(4, 4))
	a.Bind(createPatternImage(6, 6))

	if got := a.LuminanceHistogram().Total(); got != 36 {
		t.Errorf("total: got %d, want 36", got)
	}
}

func TestAnalyzer_ZeroArea(t *testing.T) {
	for _, img := range []image.Image{nil, image.NewRGBA(image.Rect(0, 0, 0, 0))} {
		a := NewAnalyzer(img)

		if !a.Grayscale().Bounds().Empty() {
			t.Error("grayscale of 0x0 raster should be 0x0")
		}
		if a.LuminanceHistogram().Max() != 0 {
			t.Error("luminance histogram of 0x0 raster should be all zero")
		}
		if a.ChannelHistogram().Max() != 0 {
			t.Error("channel histogram of 0x0 raster should be all zero")
		}
		out, err := a.Threshold(128)
		if err != nil {
			t.Fatalf("Threshold failed: %v", err)
		}
		if !out.Bounds().Empty() {
			t.Error("threshold of 0x0 raster should be 0x0")
		}
	}
}

func TestAnalyzer_GrayscaleHints(t *testing.T) {
	a := NewAnalyzer(randomImage(16, 16, 5))

	speed := Hints{Quality: QualitySpeed}
	g1 := a.Grayscale(speed)
	used, ok := a.GrayscaleHints()
	if !ok || used != speed {
		t.Errorf("GrayscaleHints: got %v %v, want %v", used, ok, speed)
	}

	// cached raster is returned regardless of the hints passed later
	g2 := a.Grayscale(Hints{Quality: QualityPrecise})
	if !bytes.Equal(g1.Pix, g2.Pix) {
		t.Error("different hints should not recompute a cached grayscale raster")
	}
	if a.grayRuns != 1 {
		t.Errorf("grayscale computed %d times, want 1", a.grayRuns)
	}
}

func TestAnalyzer_ModelFixedAtConstruction(t *testing.T) {
	red := createInMemoryImage(1, 1, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name  string
		opts  []AnalyzerOption
		model LumaModel
		want  uint8
	}{
		{"default", nil, LuminanceCIE, 127},
		{"rec601", []AnalyzerOption{WithLumaModel(LumaRec601)}, LumaRec601, 76},
		{"cie", []AnalyzerOption{WithLumaModel(LuminanceCIE)}, LuminanceCIE, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(red, tt.opts...)
			if a.Model() != tt.model {
				t.Errorf("Model: got %v, want %v", a.Model(), tt.model)
			}
			for _, q := range []Quality{QualitySpeed, QualityPrecise} {
				a.Bind(red)
				if got := a.Grayscale(Hints{Quality: q}).NRGBAAt(0, 0).R; got != tt.want {
					t.Errorf("%s: gray got %d, want %d", q, got, tt.want)
				}
			}
			if a.LuminanceHistogram().Bins[tt.want] != 1 {
				t.Error("histogram does not use the analyzer's model")
			}
		})
	}
}

func TestAnalyzer_ZeroValue(t *testing.T) {
	var a Analyzer

	if !a.Bounds().Empty() {
		t.Errorf("Bounds: got %v, want empty", a.Bounds())
	}
	if !a.Opaque() {
		t.Error("empty raster should report opaque")
	}
	if a.Model() != LuminanceCIE {
		t.Errorf("Model: got %v, want cie", a.Model())
	}
	if !a.Source().Bounds().Empty() || !a.Grayscale().Bounds().Empty() {
		t.Error("zero analyzer should hand out 0x0 rasters")
	}
	if a.LuminanceHistogram().Total() != 0 || a.ChannelHistogram().Max() != 0 {
		t.Error("zero analyzer histograms should be empty")
	}
	if _, err := a.SamplePixel(0, 0); err == nil {
		t.Error("SamplePixel on a zero analyzer should fail")
	}
	if _, err := a.Threshold(10); err != nil {
		t.Errorf("Threshold: %v", err)
	}

	a.Bind(grayImage(1, 1, 9))
	if a.LuminanceHistogram().Bins[9] != 1 {
		t.Error("Bind on a zero analyzer did not take effect")
	}
}

func TestAnalyzer_ThresholdNotCached(t *testing.T) {
	a := NewAnalyzer(grayImage(2, 1, 50, 150))

	low, err := a.Threshold(10)
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	high, err := a.Threshold(200)
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}

	if _, white := CountBinary(low); white != 2 {
		t.Errorf("threshold 10: white got %d, want 2", white)
	}
	if _, white := CountBinary(high); white != 0 {
		t.Errorf("threshold 200: white got %d, want 0", white)
	}
}

func TestAnalyzer_ThresholdOutOfRange(t *testing.T) {
	a := NewAnalyzer(grayImage(1, 1, 1))

	for _, threshold := range []int{-1, 256} {
		out, err := a.Threshold(threshold)
		if !errors.Is(err, ErrThresholdRange) {
			t.Errorf("threshold %d: expected ErrThresholdRange, got %v", threshold, err)
		}
		if out != nil {
			t.Errorf("threshold %d: expected nil raster on error", threshold)
		}
	}
	if _, ok := a.GrayscaleHints(); ok {
		t.Error("rejected threshold should not trigger grayscale computation")
	}
}

func TestAnalyzer_BindReaderFailureKeepsSource(t *testing.T) {
	a := NewAnalyzer(grayImage(2, 1, 10, 10))
	before := a.LuminanceHistogram()

	err := a.BindReader(strings.NewReader("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}

	if a.Generation() != 1 {
		t.Errorf("failed bind changed generation to %d", a.Generation())
	}
	if got := a.LuminanceHistogram(); *got != *before {
		t.Error("failed bind changed the cached histogram")
	}
	if a.luminanceRuns != 1 {
		t.Errorf("failed bind invalidated caches: luminance runs %d", a.luminanceRuns)
	}
}

func TestAnalyzer_BindReader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createInMemoryImage(4, 2, color.RGBA{30, 30, 30, 255})); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	a := NewAnalyzer(nil)
	if err := a.BindReader(&buf); err != nil {
		t.Fatalf("BindReader failed: %v", err)
	}
	if a.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Errorf("bounds: got %v", a.Bounds())
	}
	if a.LuminanceHistogram().Bins[30] != 8 {
		t.Error("histogram does not reflect decoded raster")
	}
}

func TestAnalyzer_BindFile(t *testing.T) {
	path := createTestImage(t, 6, 4, color.RGBA{90, 90, 90, 255})

	a := NewAnalyzer(nil)
	if err := a.BindFile(path); err != nil {
		t.Fatalf("BindFile failed: %v", err)
	}
	if a.LuminanceHistogram().Bins[90] != 24 {
		t.Error("histogram does not reflect file raster")
	}

	if err := a.BindFile("/nonexistent/file.png"); !errors.Is(err, ErrDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
	if a.Bounds().Dx() != 6 {
		t.Error("failed BindFile replaced the source")
	}
}

func TestNewAnalyzerFromFile(t *testing.T) {
	a, err := NewAnalyzerFromFile(createTestImage(t, 3, 3, color.White))
	if err != nil {
		t.Fatalf("NewAnalyzerFromFile failed: %v", err)
	}
	if a.Bounds().Dx() != 3 {
		t.Errorf("width: got %d, want 3", a.Bounds().Dx())
	}

	a, err = NewAnalyzerFromFile(writeInvalidImage(t))
	if err == nil || a != nil {
		t.Error("NewAnalyzerFromFile should fail without an analyzer for invalid data")
	}
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("expected *DecodeError, got %T", err)
	}
}

func TestAnalyzer_Opaque(t *testing.T) {
	if !NewAnalyzer(createInMemoryImage(2, 2, color.White)).Opaque() {
		t.Error("opaque image reported as translucent")
	}
	if NewAnalyzer(createInMemoryImage(2, 2, color.Transparent)).Opaque() {
		t.Error("transparent image reported as opaque")
	}
}

func TestAnalyzer_ConcurrentAccess(t *testing.T) {
	a := NewAnalyzer(randomImage(64, 64, 3))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				a.Grayscale()
			case 1:
				a.LuminanceHistogram()
			case 2:
				a.ChannelHistogram()
			case 3:
				if _, err := a.Threshold(i); err != nil {
					t.Errorf("Threshold(%d): %v", i, err)
				}
			}
		}(i)
	}
	wg.Wait()

	if a.grayRuns != 1 || a.luminanceRuns != 1 || a.channelRuns != 1 {
		t.Errorf("concurrent access duplicated work: gray=%d luminance=%d channel=%d",
			a.grayRuns, a.luminanceRuns, a.channelRuns)
	}
}

func TestAnalyzer_ConcurrentBindNeverStale(t *testing.T) {
	a := NewAnalyzer(createInMemoryImage(4, 4, color.RGBA{0, 0, 0, 255}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(v uint8) {
			defer wg.Done()
			a.Bind(createInMemoryImage(4, 4, color.RGBA{v, v, v, 255}))
		}(uint8(i * 10))
		go func() {
			defer wg.Done()
			h := a.LuminanceHistogram()
			if h.Total() != 16 || h.Max() != 16 {
				t.Errorf("observed a partial histogram: total=%d max=%d", h.Total(), h.Max())
			}
		}()
	}
	wg.Wait()

	// after all binds settle, the histogram matches the final source
	src := a.Source()
	v := src.NRGBAAt(0, 0).R
	if a.LuminanceHistogram().Bins[v] != 16 {
		t.Errorf("histogram does not match final source value %d", v)
	}
}
