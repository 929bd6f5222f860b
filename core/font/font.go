package font

import (
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/ripcore/core/geom"
)

// Type enumerates the font formats known to the renderer core.
type Type uint8

const (
	Type1 Type = iota
	Type2      // CFF with Type 2 charstrings
	Type3      // BuildChar/BuildGlyph procedures
	Type4      // disc font with Type 1 charstrings
	CID0       // Type 1 charstrings based
	CID0C      // CFF based
	CID1       // BuildGlyph procedure based
	CID2       // TrueType based
	CID4       // Type 32 bitmap font
	TrueType
	PFIN
	typeCount
)

func (t Type) String() string {
	switch t {
	case Type1:
		return "Type1"
	case Type2:
		return "Type2"
	case Type3:
		return "Type3"
	case Type4:
		return "Type4"
	case CID0:
		return "CID0"
	case CID0C:
		return "CID0C"
	case CID1:
		return "CID1"
	case CID2:
		return "CID2"
	case CID4:
		return "CID4"
	case TrueType:
		return "TrueType"
	case PFIN:
		return "PFIN"
	}
	return "unknown font type"
}

// IsCID returns true for CID-keyed font formats.
func (t Type) IsCID() bool {
	switch t {
	case CID0, CID0C, CID1, CID2, CID4:
		return true
	}
	return false
}

// CharType is the charstring kind decided during character lookup.
type CharType uint8

const (
	CharUndecided CharType = iota
	CharUndefined
	CharType1
	CharType2
	CharTrueType
	CharBuildChar
	CharBitmap
	CharPFIN
)

// CDevClass classifies a font's CDevProc for cache matching. Fonts with a
// custom CDevProc may remap metrics arbitrarily, so their glyphs can only
// be reused by the identical font dictionary.
type CDevClass uint8

const (
	CDevNone CDevClass = iota
	CDevStd
	CDevCustom
)

// Writing modes.
const (
	WModeHorizontal uint8 = 0
	WModeVertical   uint8 = 1
)

// DirectionFor maps a writing mode to a text direction.
func DirectionFor(wmode uint8) bidi.Direction {
	if wmode == WModeVertical {
		return bidi.Neutral
	}
	return bidi.LeftToRight
}

// UIDRangeTemp is the high byte classifying a UniqueID as temporary.
// Fonts with temporary UniqueIDs are scheduled for purge at end of page.
const UIDRangeTemp = 0xFF

// HasTempUID returns true if uid falls into the temporary range.
func HasTempUID(uid int32) bool {
	return (uid>>24)&0xFF == UIDRangeTemp
}

// TempUID builds a UniqueID in the temporary range from a sequence
// number.
func TempUID(seq int32) int32 {
	return int32(uint32(UIDRangeTemp)<<24 | uint32(seq)&0xFFFFFF)
}

// NoUniqueID marks a font without a usable UniqueID.
const NoUniqueID int32 = -1

// Info is the unpacked lookup state for a font: everything the glyph
// cache needs to match a font dictionary against cached glyphs.
type Info struct {
	FID         int32     // current font identifier
	UniqueID    int32     // UniqueID, or NoUniqueID
	Type        Type      // font format
	PaintType   uint8     // fill or stroke rendering
	StrokeWidth float32   // stroke width for PaintType 2 fonts
	CDevClass   CDevClass // CDevProc classification
	WMode       uint8     // writing mode 0 or 1
	HasMetrics  bool      // Metrics/Metrics2 overrides present

	FontMatrix geom.Matrix // concatenated font × current transform
	GotMatrix  bool        // FontMatrix has been unpacked

	Params  ParamSource // font-wide parameter access
	Methods *Methods    // per-type font methods
}

// SetMatrix installs the concatenated font matrix, snapping small
// residuals so cache matrix comparison stays bit-exact.
func (fi *Info) SetMatrix(m geom.Matrix) {
	fi.FontMatrix = m.Snap()
	fi.GotMatrix = true
	tracer().Debugf("font %d matrix set to %s", fi.FID, fi.FontMatrix)
}
