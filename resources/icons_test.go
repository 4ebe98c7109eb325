package resources

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIconIsCachedPerStep(t *testing.T) {
	first := Icon(IconFocus, 0.5)
	require.Same(t, first, Icon(IconFocus, 0.501))
	require.NotSame(t, first, Icon(IconBreak, 0.5))
	require.NotEqual(t, first.Name(), Icon(IconFocus, 0.75).Name())
}

func TestIconDecodes(t *testing.T) {
	for _, progress := range []float64{-1, 0, 0.3, 1, 2} {
		img, err := png.Decode(bytes.NewReader(Icon(IconPaused, progress).Content()))
		require.NoError(t, err)
		require.Equal(t, 64, img.Bounds().Dx())
	}
}
