// file: pkg/report/blockmap.go

// Package report renders diagnostic images of a filesystem.
package report

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/ha1tch/ghonsla/internal"
	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

const (
	columns = 64
	cell    = 8 // pixels, border included
	margin  = 10
	header  = 30
	legend  = 40
)

type rgb struct{ r, g, b float64 }

var (
	metaColor = rgb{0.55, 0.55, 0.55}
	freeColor = rgb{1, 1, 1}
	lostColor = rgb{0.85, 0.1, 0.1}
)

// slotColor spreads file colours around the hue circle so neighbouring
// slots stay distinguishable.
func slotColor(slot int) rgb {
	h := math.Mod(float64(slot)*0.618033988749895, 1) * 6
	s, v := 0.6, 0.85
	i := math.Floor(h)
	f := h - i
	p, q, t := v*(1-s), v*(1-s*f), v*(1-s*(1-f))
	switch int(i) % 6 {
	case 0:
		return rgb{v, t, p}
	case 1:
		return rgb{q, v, p}
	case 2:
		return rgb{p, v, t}
	case 3:
		return rgb{p, q, v}
	case 4:
		return rgb{t, p, v}
	}
	return rgb{v, p, q}
}

func colorOf(o fatfs.BlockOwner) rgb {
	switch o.Kind {
	case fatfs.BlockMeta:
		return metaColor
	case fatfs.BlockFree:
		return freeColor
	case fatfs.BlockFile:
		return slotColor(o.Slot)
	}
	return lostColor
}

// cellOrigin returns the top-left pixel of the cell for block i.
func cellOrigin(i int) (float64, float64) {
	return float64(margin + (i%columns)*cell), float64(header + (i/columns)*cell)
}

// BlockMap draws one cell per block: metadata grey, free white, file blocks
// coloured by owning slot and lost blocks red.
func BlockMap(fs *fatfs.FS) image.Image {
	usage := fs.BlockUsage()
	st := fs.Stats()

	rows := int(internal.CeilDiv(uint64(len(usage)), columns))
	W := 2*margin + columns*cell
	H := header + rows*cell + legend

	dc := gg.NewContext(W, H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%s blocks of %d bytes, %s free",
		internal.FormatWithCommas(st.TotalBlocks), st.BlockSize,
		internal.FormatWithCommas(st.FreeBlocks)), margin, header/2, 0, 0.5)

	for i, owner := range usage {
		x, y := cellOrigin(i)
		c := colorOf(owner)
		dc.SetRGB(c.r, c.g, c.b)
		dc.DrawRectangle(x, y, cell-1, cell-1)
		dc.Fill()
	}

	// frame
	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)
	dc.DrawRectangle(margin-0.5, header-0.5, columns*cell, float64(rows*cell))
	dc.Stroke()

	y := float64(header + rows*cell + legend/2)
	x := float64(margin)
	for _, item := range []struct {
		label string
		c     rgb
	}{
		{"metadata", metaColor},
		{"free", freeColor},
		{"file", slotColor(1)},
		{"lost", lostColor},
	} {
		dc.SetRGB(item.c.r, item.c.g, item.c.b)
		dc.DrawRectangle(x, y-5, 10, 10)
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.Stroke()
		dc.DrawStringAnchored(item.label, x+16, y, 0, 0.5)
		x += 120
	}
	return dc.Image()
}

// WriteBlockMap encodes the block map of fs as PNG.
func WriteBlockMap(w io.Writer, fs *fatfs.FS) error {
	dc := gg.NewContextForImage(BlockMap(fs))
	return dc.EncodePNG(w)
}

// SaveBlockMap writes the block map of fs to a PNG file.
func SaveBlockMap(path string, fs *fatfs.FS) error {
	return gg.SavePNG(path, BlockMap(fs))
}
