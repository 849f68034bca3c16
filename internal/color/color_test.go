package color

import (
	"testing"

	"github.com/AdamBromiley/rolymo/internal/kernel"
	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestScheme24_UnescapedIsBlack(t *testing.T) {
	for _, scheme := range []plot.Scheme{plot.Rainbow, plot.RainbowVibrant, plot.RedWhite, plot.Fire, plot.RedHot, plot.Matrix} {
		rgb := Scheme24(scheme, kernel.Result{N: 100, Escaped: false})
		assert.Equal(t, RGB{}, rgb, "scheme %v", scheme)
	}
}

func TestASCII_UnescapedIsDarkestGlyph(t *testing.T) {
	glyph := ASCII(kernel.Result{N: 100, Escaped: false})
	assert.Equal(t, byte('@'), glyph)
}

func TestWriteBit_BlackWhiteIsComplementOfWhiteBlack(t *testing.T) {
	for _, escaped := range []bool{true, false} {
		r := kernel.Result{N: 10, Escaped: escaped, Norm2: 300}

		var bw, wb byte
		WriteBit(&bw, 3, plot.BlackWhite, r)
		WriteBit(&wb, 3, plot.WhiteBlack, r)

		bwBit := (bw >> (7 - 3)) & 1
		wbBit := (wb >> (7 - 3)) & 1
		assert.NotEqual(t, bwBit, wbBit)
	}
}

// TestHSVRGBSextantBoundaries checks that HSV->RGB at full saturation
// and value yields only fully-off or fully-on channels (within one step)
// at the sextant boundaries.
func TestHSVRGBSextantBoundaries(t *testing.T) {
	for _, h := range []float64{0, 60, 120, 180, 240, 300, 360} {
		rgb := hsvToRGB(h, 1, 1)
		// At full saturation/value, every sextant boundary hits either
		// 0 or 255 on each channel; confirm no channel drifts outside.
		assert.True(t, rgb.R == 0 || rgb.R == 255 || int(rgb.R) >= 254)
		assert.True(t, rgb.G == 0 || rgb.G == 255 || int(rgb.G) >= 254)
		assert.True(t, rgb.B == 0 || rgb.B == 255 || int(rgb.B) >= 254)
	}
}

func TestGreyscale8_FloorsAt30(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(1, 10000).Draw(t, "n")
		norm2 := rapid.Float64Range(float64(kernel.EscapeRadius2), 1e12).Draw(t, "norm2")

		g := Greyscale8(kernel.Result{N: n, Norm2: norm2, Escaped: true})
		assert.GreaterOrEqual(t, g, byte(30))
	})
}
