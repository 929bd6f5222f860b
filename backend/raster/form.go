package raster

import "github.com/npillmayer/ripcore/core/geom"

// Word is the blit word: the machine word used to store a run of pixels
// in a bitmap form. Bit 0 of the raster is the most significant bit.
type Word = uint64

const (
	WordBits  = 64 // pixels per blit word at depth 1
	WordBytes = 8
	WordShift = 6 // log2(WordBits)
	WordMask  = WordBits - 1
)

// AllOnes is a blit word with every pixel set.
const AllOnes Word = ^Word(0)

// FormType tags the representation of a form.
type FormType uint8

const (
	FormBlank FormType = iota
	FormCacheBitmap
	FormCacheBitmapToRLE // bitmap scheduled for RLE compression
	FormCacheRLE
	FormBandBitmap
	FormHalftoneBitmap
)

// DepthShiftLimit bounds the bit-depth shift: depths 1, 2, 4, 8, 16, 32.
const DepthShiftLimit = 6

// Form is a raster bitmap or RLE line array. A form is owned 1:1 by a
// cache entry, or by a band of the output raster.
type Form struct {
	Type  FormType
	W, H  geom.DCoord // width and height in pixels
	L     int32       // words per line
	HOff  geom.DCoord // line offset of the first line (band offset)
	Size  int         // bytes accounted to the owner
	Depth uint8       // bit-depth shift, 0 for 1-bit forms

	Data  []Word      // bitmap representations
	Lines []*Spanlist // RLE representation, one spanlist per line
}

// FormAlign is the allocation granularity used for form accounting.
const FormAlign = WordBytes

// AlignFormSize rounds a byte size up to the form allocation granularity.
func AlignFormSize(bytes int) int {
	return (bytes + FormAlign - 1) &^ (FormAlign - 1)
}

// NewBitmap allocates a 1-bit bitmap form of w × h pixels, zero filled.
func NewBitmap(w, h geom.DCoord) *Form {
	return NewBitmapDepth(w, h, 0)
}

// NewBitmapDepth allocates a multi-bit bitmap form with the given
// bit-depth shift.
func NewBitmapDepth(w, h geom.DCoord, depth uint8) *Form {
	if w <= 0 || h <= 0 {
		return NewBlank()
	}
	wbits := int64(w) << depth
	l := int32((wbits + WordMask) >> WordShift)
	f := &Form{
		Type:  FormCacheBitmap,
		W:     w,
		H:     h,
		L:     l,
		Depth: depth,
		Data:  make([]Word, int(l)*int(h)),
	}
	f.Size = AlignFormSize(len(f.Data) * WordBytes)
	return f
}

// NewBlank returns the blank sentinel form: zero dimensions, no storage.
func NewBlank() *Form {
	return &Form{Type: FormBlank, Size: 0}
}

// Line returns the words of line y (relative to the form top).
func (f *Form) Line(y geom.DCoord) []Word {
	off := int(y) * int(f.L)
	return f.Data[off : off+int(f.L)]
}

// LineIndex returns the word offset of line y within Data.
func (f *Form) LineIndex(y geom.DCoord) int {
	return int(y) * int(f.L)
}

// Pixel reads a single pixel of a 1-bit bitmap form. Used by tests and
// the RLE encoder; blits never go through here.
func (f *Form) Pixel(x, y geom.DCoord) int {
	w := f.Line(y)[x>>WordShift]
	if w&(Word(1)<<(WordMask-uint(x&WordMask))) != 0 {
		return 1
	}
	return 0
}

// SetPixel writes a single pixel of a 1-bit bitmap form.
func (f *Form) SetPixel(x, y geom.DCoord, on bool) {
	line := f.Line(y)
	bit := Word(1) << (WordMask - uint(x&WordMask))
	if on {
		line[x>>WordShift] |= bit
	} else {
		line[x>>WordShift] &^= bit
	}
}

// ToRLE converts a bitmap form into its RLE representation. The return
// value is false if the form is not an uncompressed bitmap or if the
// encoded size would exceed ratio times the bitmap size; the form is left
// untouched in that case. The ratio argument is the maximum acceptable
// RLE size as a fraction of the bitmap size.
func (f *Form) ToRLE(ratio float64) bool {
	if f.Type != FormCacheBitmap && f.Type != FormCacheBitmapToRLE {
		return false
	}
	lines := make([]*Spanlist, f.H)
	rlebytes := 0
	for y := geom.DCoord(0); y < f.H; y++ {
		line := f.Line(y)
		n := BitmapSpanCount(line, f.W)
		sl := NewSpanlist(n)
		if !sl.FromBitmap(line, f.W) {
			return false
		}
		lines[y] = sl
		rlebytes += SpanlistSize(n)
	}
	rlebytes = AlignFormSize(rlebytes)
	if float64(rlebytes) > ratio*float64(f.Size) {
		tracer().Debugf("form %d×%d not worth compressing (%d → %d bytes)",
			f.W, f.H, f.Size, rlebytes)
		return false
	}
	f.Type = FormCacheRLE
	f.Data = nil
	f.Lines = lines
	f.Size = rlebytes
	return true
}

// FromRLE converts an RLE form back to a bitmap in place, using the
// caller's scratch buffer for the new pixel data. The scratch must hold
// at least ⌈w/WordBits⌉ × h words; it is zeroed here.
func (f *Form) FromRLE(scratch []Word) bool {
	if f.Type != FormCacheRLE {
		return false
	}
	l := int32((int64(f.W) + WordMask) >> WordShift)
	need := int(l) * int(f.H)
	if len(scratch) < need {
		return false
	}
	data := scratch[:need]
	for i := range data {
		data[i] = 0
	}
	f.Data = data
	f.L = l
	for y := geom.DCoord(0); y < f.H; y++ {
		line := f.Data[int(y)*int(l) : (int(y)+1)*int(l)]
		f.Lines[y].Iterate(func(xs, xe geom.DCoord) {
			bitfillWords(line, xs, xe)
		})
	}
	f.Lines = nil
	f.Type = FormCacheBitmap
	f.Size = AlignFormSize(need * WordBytes)
	return true
}

// bitfillWords sets pixels xs..xe inclusive in one line of words.
func bitfillWords(line []Word, xs, xe geom.DCoord) {
	first := int(xs >> WordShift)
	last := int(xe >> WordShift)
	fmask := AllOnes >> uint(xs&WordMask)
	lmask := AllOnes << uint(WordMask-(xe&WordMask))
	if first == last {
		line[first] |= fmask & lmask
		return
	}
	line[first] |= fmask
	for i := first + 1; i < last; i++ {
		line[i] = AllOnes
	}
	line[last] |= lmask
}
