package hinting

import (
	"math"

	"github.com/npillmayer/ripcore/core/font"
)

// Capacity limits for the blues arrays, per the Type 1 font format.
const (
	numBlueValues       = 14
	numOtherBlues       = 10
	numFamilyBlues      = 14
	numFamilyOtherBlues = 10
	numStemSnap         = 12

	maxAlignmentZones = (numBlueValues + numOtherBlues) / 2
)

// Defaults for absent font-wide parameters.
const (
	defaultBlueScale       = 0.039625
	defaultBlueShift       = 7
	defaultBlueFuzz        = 1
	defaultLanguageGroup   = 0
	defaultExpansionFactor = 0.06
	defaultBoldStemWidth   = 2
)

// badBlueValue substitutes integer blue entries outside the plausible
// range.
const badBlueValue = 32768

// blues holds the font-wide hinting parameters, identified by sub-font.
// Loading is skipped while the identifying triple is unchanged.
type blues struct {
	loaded                 bool
	uniqueID, fid, fdIndex int

	blueShift     int
	blueFuzz      int
	forceBold     bool
	languageGroup int
	rndStemUp     bool
	blueScale     float64
	stdHW, stdVW  float64
	expansion     float64

	blueValues       []int
	otherBlues       []int
	familyBlues      []int
	familyOtherBlues []int
	stemSnapH        []float64
	stemSnapV        []float64
}

// alignmentZone is one blue zone: a y-interval where horizontal stem
// edges snap to a common flat position.
type alignmentZone struct {
	topZone       bool
	bottomY, topY float64
}

// loadInts reads an integer-array parameter, clamped to max entries.
func loadInts(src font.ParamSource, key font.ParamKey, max int) []int {
	n, ok := src.Get(key, font.ArrayLength)
	if !ok {
		return nil
	}
	count, ok := n.(int)
	if !ok || count <= 0 {
		return nil
	}
	if count > max {
		count = max
	}
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		v, ok := src.Get(key, i)
		if !ok {
			break
		}
		iv, ok := font.Int(v, badBlueValue)
		if !ok {
			break
		}
		out = append(out, iv)
	}
	return out
}

// loadFloats reads a numeric-array parameter, clamped to max entries.
func loadFloats(src font.ParamSource, key font.ParamKey, max int) []float64 {
	n, ok := src.Get(key, font.ArrayLength)
	if !ok {
		return nil
	}
	count, ok := n.(int)
	if !ok || count <= 0 {
		return nil
	}
	if count > max {
		count = max
	}
	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		v, ok := src.Get(key, i)
		if !ok {
			break
		}
		f, ok := font.Num(v)
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out
}

func loadNum(src font.ParamSource, key font.ParamKey, index int, dflt float64) float64 {
	if v, ok := src.Get(key, index); ok {
		if f, ok := font.Num(v); ok {
			return f
		}
	}
	return dflt
}

func loadInt(src font.ParamSource, key font.ParamKey, dflt int) int {
	if v, ok := src.Get(key, -2); ok {
		if i, ok := font.Int(v, dflt); ok {
			return i
		}
	}
	return dflt
}

func loadBool(src font.ParamSource, key font.ParamKey, dflt bool) bool {
	if v, ok := src.Get(key, -2); ok {
		if b, ok := font.Flag(v); ok {
			return b
		}
	}
	return dflt
}

// load refreshes the blues from the font parameter source if the
// sub-font identity changed. Missing parameters fall back to documented
// defaults. The return value reports whether anything changed.
func (b *blues) load(src font.ParamSource) bool {
	uniqueID, fid, fdIndex := -1, 0, -1
	if v, ok := src.Get(font.ParamUniqueID, -2); ok {
		if i, ok := font.Int(v, -1); ok && i >= 0 {
			uniqueID = i
		}
	}
	if uniqueID < 0 {
		if v, ok := src.Get(font.ParamFID, -2); ok {
			fid, _ = font.Int(v, 0)
		}
	}
	if v, ok := src.Get(font.ParamSubFont, -2); ok {
		fdIndex, _ = font.Int(v, -1)
	}

	if b.loaded && uniqueID == b.uniqueID && fid == b.fid && fdIndex == b.fdIndex {
		return false
	}
	b.loaded = true
	b.uniqueID, b.fid, b.fdIndex = uniqueID, fid, fdIndex

	b.blueValues = loadInts(src, font.ParamBlueValues, numBlueValues)
	b.otherBlues = loadInts(src, font.ParamOtherBlues, numOtherBlues)
	b.familyBlues = loadInts(src, font.ParamFamilyBlues, numFamilyBlues)
	b.familyOtherBlues = loadInts(src, font.ParamFamilyOtherBlues, numFamilyOtherBlues)
	b.stemSnapH = loadFloats(src, font.ParamStemSnapH, numStemSnap)
	b.stemSnapV = loadFloats(src, font.ParamStemSnapV, numStemSnap)

	b.blueScale = loadNum(src, font.ParamBlueScale, -2, defaultBlueScale)
	b.blueShift = loadInt(src, font.ParamBlueShift, defaultBlueShift)
	b.blueFuzz = loadInt(src, font.ParamBlueFuzz, defaultBlueFuzz)
	// StdHW/StdVW are technically arrays but only ever have one entry.
	b.stdHW = loadNum(src, font.ParamStdHW, 0, 0.0)
	b.stdVW = loadNum(src, font.ParamStdVW, 0, 0.0)
	b.forceBold = loadBool(src, font.ParamForceBold, false)
	b.languageGroup = loadInt(src, font.ParamLanguageGroup, defaultLanguageGroup)
	b.rndStemUp = loadBool(src, font.ParamRndStemUp, false)
	b.expansion = loadNum(src, font.ParamExpansionFactor, -2, defaultExpansionFactor)

	tracer().Debugf("loaded blues for sub-font (%d,%d,%d): %d blue values",
		uniqueID, fid, fdIndex, len(b.blueValues))
	return true
}

// buildZones recomputes the alignment zones from the blues. The first
// BlueValues pair is the baseline bottom zone; the rest are top zones.
// All OtherBlues pairs are bottom zones. Family blues replace the font's
// own zones when the zone sizes differ by less than one pixel at the
// current scale.
func buildZones(b *blues, unitPixelsY float64) (zones []alignmentZone, baseline int) {
	baseline = -1
	zones = make([]alignmentZone, 0, maxAlignmentZones)

	for i := 0; i+1 < len(b.blueValues); i += 2 {
		zone := alignmentZone{topZone: i > 0}
		if i == 0 {
			baseline = 0 // first pair is baseline overshoot and position
		}
		if i+1 < len(b.familyBlues) {
			blueSize := float64(b.blueValues[i]-b.blueValues[i+1]) * unitPixelsY
			familySize := float64(b.familyBlues[i]-b.familyBlues[i+1]) * unitPixelsY
			if math.Abs(blueSize-familySize) < 1.0 {
				zone.bottomY = float64(b.familyBlues[i])
				zone.topY = float64(b.familyBlues[i+1])
				zones = append(zones, zone)
				continue
			}
		}
		zone.bottomY = float64(b.blueValues[i])
		zone.topY = float64(b.blueValues[i+1])
		zones = append(zones, zone)
	}

	for i := 0; i+1 < len(b.otherBlues); i += 2 {
		zone := alignmentZone{topZone: false}
		if i+1 < len(b.familyOtherBlues) {
			blueSize := float64(b.otherBlues[i]-b.otherBlues[i+1]) * unitPixelsY
			familySize := float64(b.familyOtherBlues[i]-b.familyOtherBlues[i+1]) * unitPixelsY
			if math.Abs(blueSize-familySize) < 1.0 {
				zone.bottomY = float64(b.familyOtherBlues[i])
				zone.topY = float64(b.familyOtherBlues[i+1])
				zones = append(zones, zone)
				continue
			}
		}
		zone.bottomY = float64(b.otherBlues[i])
		zone.topY = float64(b.otherBlues[i+1])
		zones = append(zones, zone)
	}
	return zones, baseline
}
