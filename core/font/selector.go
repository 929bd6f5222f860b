package font

import (
	"hash/fnv"

	"github.com/npillmayer/ripcore/core"
)

// NoCharCode marks a selector or key without a character code.
const NoCharCode int32 = -1

// CharSelector is the identity tuple used to look up a glyph: a name,
// CID, or character code, plus the writing mode.
type CharSelector struct {
	Name  string // glyph name for name-keyed fonts, "" otherwise
	CID   int32  // CID for CID-keyed fonts, NoCharCode otherwise
	Code  int32  // character code, NoCharCode for unencoded glyphs
	WMode uint8
}

// CharKey is the normalized cache key for a glyph. Name-keyed glyphs
// carry the name, hashed on demand by Hash; integer-keyed glyphs carry
// the code.
type CharKey struct {
	Code  int32  // integer key (CID or code); NoCharCode for name keys
	Name  string // glyph name, "" for integer keys
	WMode uint8
	dead  bool // unmatchable sentinel, see Obliterate
}

// Hash returns the bucket index of the key within a matrix entry.
func (k CharKey) Hash() int {
	if k.Name != "" {
		h := fnv.New32a()
		h.Write([]byte(k.Name))
		return int(h.Sum32() & 31)
	}
	return int(k.Code & 31)
}

// Eq compares two keys, ignoring the writing mode.
func (k CharKey) Eq(other CharKey) bool {
	if k.dead || other.dead {
		return false
	}
	return k.Code == other.Code && k.Name == other.Name
}

// Obliterate overwrites the key with a sentinel that cannot match any
// lookup. Used when a glyph must be detached from its font but cannot be
// freed yet because the display list may still reference it.
func (k *CharKey) Obliterate() {
	k.dead = true
}

// Dead reports whether the key has been obliterated.
func (k CharKey) Dead() bool {
	return k.dead
}

// Methods is the per-font-type method table. Dispatch always goes through
// the table for the font's type, never through switches on Type.
type Methods struct {
	// CacheKey normalizes a selector into a cache key. It may consult the
	// font's Encoding through the parameter source.
	CacheKey func(fi *Info, sel *CharSelector) (CharKey, error)

	// LookupChar locates the character definition and decides its
	// charstring kind. CharUndefined is not an error here; the caller
	// runs the notdef mapping.
	LookupChar func(fi *Info, key *CharKey) (CharType, error)

	// SelectSubfont switches fi to the sub-font holding the glyph.
	// Nil for base fonts.
	SelectSubfont func(fi *Info, key *CharKey) error

	// BeginChar and EndChar bracket one glyph construction.
	BeginChar func(fi *Info, key *CharKey) error
	EndChar   func(fi *Info, key *CharKey) error
}

var methodTable [typeCount]*Methods

// RegisterMethods installs the method table for a font type. The format
// layers register their tables during init.
func RegisterMethods(t Type, m *Methods) {
	methodTable[t] = m
}

// MethodsFor returns the method table registered for a font type.
func MethodsFor(t Type) (*Methods, error) {
	if int(t) >= len(methodTable) || methodTable[t] == nil {
		return nil, core.Error(core.EINVALIDFONT, "no font methods for %s", t)
	}
	return methodTable[t], nil
}

// CIDKey is the cache key method for CID-keyed fonts: the selector CID is
// used directly.
func CIDKey(fi *Info, sel *CharSelector) (CharKey, error) {
	if sel.CID < 0 {
		return CharKey{}, core.Error(core.ERANGECHECK, "CID selector without CID")
	}
	return CharKey{Code: sel.CID, WMode: fi.WMode}, nil
}

// BaseKey is the cache key method for base fonts: a glyph name if one is
// present, otherwise the character code.
func BaseKey(fi *Info, sel *CharSelector) (CharKey, error) {
	if sel.Name != "" {
		return CharKey{Code: NoCharCode, Name: sel.Name, WMode: fi.WMode}, nil
	}
	if sel.Code < 0 {
		return CharKey{}, core.Error(core.EUNDEFINED, "selector has neither name nor code")
	}
	return CharKey{Code: sel.Code, WMode: fi.WMode}, nil
}
