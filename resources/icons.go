package resources

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"fyne.io/fyne/v2"
)

// IconState selects the icon palette.
type IconState int

const (
	IconIdle IconState = iota
	IconFocus
	IconBreak
	IconPaused
)

const (
	iconSize = 64
	// progressSteps quantizes progress so a handful of icons cover a whole phase.
	progressSteps = 32
)

var palette = map[IconState]color.NRGBA{
	IconIdle:   {R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
	IconFocus:  {R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	IconBreak:  {R: 0x43, G: 0xa0, B: 0x47, A: 0xff},
	IconPaused: {R: 0xfb, G: 0x8c, B: 0x00, A: 0xff},
}

var iconCache sync.Map

// Icon returns a tray icon showing progress in [0, 1] as a filled ring.
func Icon(state IconState, progress float64) fyne.Resource {
	step := int(math.Round(math.Max(0, math.Min(1, progress)) * progressSteps))
	key := fmt.Sprintf("icon-%d-%02d.png", state, step)
	if cached, ok := iconCache.Load(key); ok {
		return cached.(fyne.Resource)
	}
	resource := fyne.NewStaticResource(key, renderRing(palette[state], float64(step)/progressSteps))
	iconCache.Store(key, resource)
	return resource
}

func renderRing(fill color.NRGBA, progress float64) []byte {
	track := color.NRGBA{R: fill.R, G: fill.G, B: fill.B, A: 0x50}
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize-1) / 2
	outer := center
	inner := center * 0.62

	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			distance := math.Hypot(dx, dy)
			if distance > outer {
				continue
			}
			if distance < inner {
				if progress >= 1 {
					img.SetNRGBA(x, y, fill)
				}
				continue
			}
			// Clockwise from twelve o'clock.
			angle := math.Atan2(dx, -dy)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			if angle/(2*math.Pi) <= progress {
				img.SetNRGBA(x, y, fill)
			} else {
				img.SetNRGBA(x, y, track)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
