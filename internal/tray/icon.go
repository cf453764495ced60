package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	keycapIdle   = color.NRGBA{R: 0x8a, G: 0x93, B: 0x9e, A: 0xff}
	keycapActive = color.NRGBA{R: 0x2e, G: 0xa0, B: 0x5a, A: 0xff}
	keycapLegend = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Icon renders the tray icon: a keycap, green while capturing. Windows gets
// an ICO container around the PNG; other platforms take the PNG directly.
func Icon(active bool) []byte {
	pngData := keycapPNG(active)
	if runtime.GOOS != "windows" {
		return pngData
	}
	return wrapICO(pngData, iconSize)
}

func keycapPNG(active bool) []byte {
	fill := keycapIdle
	if active {
		fill = keycapActive
	}

	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	const inset, radius = 2, 6
	for y := inset; y < iconSize-inset; y++ {
		for x := inset; x < iconSize-inset; x++ {
			if insideRounded(x-inset, y-inset, iconSize-2*inset, radius) {
				img.SetNRGBA(x, y, fill)
			}
		}
	}

	// A bar where the legend of the key would sit.
	for y := 18; y < 22; y++ {
		for x := 9; x < iconSize-9; x++ {
			img.SetNRGBA(x, y, keycapLegend)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func insideRounded(x, y, size, r int) bool {
	cx, cy := x, y
	switch {
	case x < r:
		cx = r
	case x >= size-r:
		cx = size - r - 1
	}
	switch {
	case y < r:
		cy = r
	case y >= size-r:
		cy = size - r - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// wrapICO builds a single-image ICO whose payload is PNG data.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{byte(size), byte(size), 0, 0})
	binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
	binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}
