package ncchdump

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/ctrtools/ncchdump/ctrutil"
)

// SMDHLen is the exact size of an SMDH, the "icon" ExeFS section.
const SMDHLen = 0x36c0

// SMDH is the icon/metadata section of an ExeFS: localized titles, region
// flags and two tiled RGB565 icons.
type SMDH struct {
	Title   SMDHTitle
	Regions []string

	smallIcon []byte
	largeIcon []byte
}

// SMDHTitle is the English title block of an SMDH.
type SMDHTitle struct {
	ShortDescription string
	LongDescription  string
	Publisher        string
}

// ParseSMDH decodes the "icon" section extracted from an ExeFS.
func ParseSMDH(data []byte) (*SMDH, error) {
	if len(data) != SMDHLen {
		return nil, fmt.Errorf("smdh: data must have size %d, got %d", SMDHLen, len(data))
	}
	if string(data[:0x4]) != "SMDH" {
		return nil, fmt.Errorf("smdh: magic not found")
	}

	title := data[0x208:0x408]
	shortDescription := strings.TrimRight(ctrutil.DecodeUTF16(title[:0x80], binary.LittleEndian), "\x00")
	longDescription := strings.TrimRight(ctrutil.DecodeUTF16(title[0x80:0x180], binary.LittleEndian), "\x00")
	publisher := strings.TrimRight(ctrutil.DecodeUTF16(title[0x180:0x200], binary.LittleEndian), "\x00")

	regions, err := decodeRegions(binary.LittleEndian.Uint32(data[0x2018:]))
	if err != nil {
		return nil, err
	}

	return &SMDH{
		Title: SMDHTitle{
			ShortDescription: shortDescription,
			LongDescription:  longDescription,
			Publisher:        publisher,
		},
		Regions:   regions,
		smallIcon: data[0x2040:0x24c0],
		largeIcon: data[0x24c0:0x36c0],
	}, nil
}

func decodeRegions(regionFlags uint32) ([]string, error) {
	if regionFlags == 0x7fffffff {
		return []string{"World"}, nil
	}
	if regionFlags > 0x7f {
		return nil, fmt.Errorf("smdh: unexpected region flags: %s", Hex32(regionFlags))
	}
	if (regionFlags&0x04)<<1 != regionFlags&0x08 {
		return nil, fmt.Errorf("smdh: region flags must be the same for Europe and Australia: %s", Hex32(regionFlags))
	}

	names := []struct {
		bit  uint32
		name string
	}{
		{0x01, "Japan"},
		{0x02, "North America"},
		{0x04, "Europe"},
		{0x10, "China"},
		{0x20, "Korea"},
		{0x40, "Taiwan"},
	}

	regions := make([]string, 0, 1)
	for _, region := range names {
		if regionFlags&region.bit != 0 {
			regions = append(regions, region.name)
		}
	}
	return regions, nil
}

// SmallIcon decodes the 24×24 icon.
func (s *SMDH) SmallIcon() image.Image {
	return decodeTiledRGB565(s.smallIcon, 24)
}

// LargeIcon decodes the 48×48 icon, the one shown on the home menu.
func (s *SMDH) LargeIcon() image.Image {
	return decodeTiledRGB565(s.largeIcon, 48)
}

var five2eight [1 << 5]uint8
var six2eight [1 << 6]uint8

func init() {
	for i := range five2eight {
		five2eight[i] = uint8(math.Round(float64(i) * 255.0 / 31.0))
	}
	for i := range six2eight {
		six2eight[i] = uint8(math.Round(float64(i) * 255.0 / 63.0))
	}
}

// decodeTiledRGB565 unswizzles an SMDH icon: RGB565 pixels stored in 8×8
// tiles with Morton (Z-order) addressing inside each tile. The width must be
// a multiple of 8 and src must hold exactly width×width pixels.
func decodeTiledRGB565(src []byte, width int) image.Image {
	dst := image.NewNRGBA(image.Rectangle{Max: image.Pt(width, width)})
	widthBlocks := width / 8

	for i := 0; i < len(src)/2; i++ {
		pixel := binary.LittleEndian.Uint16(src[2*i:])

		block := i >> 6                           // bits >= 6
		blockX := (i&16)>>2 | (i&4)>>1 | i&1      // bits 4 2 0
		blockY := (i&32)>>3 | (i&8)>>2 | (i&2)>>1 // bits 5 3 1

		x := (block%widthBlocks)<<3 | blockX
		y := (block/widthBlocks)<<3 | blockY

		dst.Set(x, y, color.NRGBA{
			R: five2eight[pixel>>11],
			G: six2eight[(pixel>>5)&0x3f],
			B: five2eight[pixel&0x1f],
			A: 255,
		})
	}
	return dst
}
