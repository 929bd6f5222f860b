package plotting

import (
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/glyphcache"
)

// CacheLevel is the caching state of one glyph construction.
type CacheLevel uint8

const (
	CacheLevelUnset    CacheLevel = iota // before setcachedevice/setcharwidth
	CacheLevelUncached                   // stringwidth or explicit no-cache
	CacheLevelCached                     // setcachedevice ran, form allocated
	CacheLevelFound                      // alternate writing-mode hit mid-construction
	CacheLevelError                      // caching aborted after partial construction
)

// ShowType selects what a plot operation produces.
type ShowType uint8

const (
	DoShow ShowType = iota
	DoStringWidth
	DoCharPath
)

// CharContext is the state of one glyph construction. Type 3 characters
// may recursively dispatch further glyphs; each level gets its own
// context on the plotter's stack.
type CharContext struct {
	Key      font.CharKey
	Type     font.CharType
	Show     ShowType
	Level    CacheLevel
	Entry    *glyphcache.CharEntry
	XWidth   float64 // advance, set by setcachedevice/setcharwidth
	YWidth   float64
	Metrics  [4]float64 // llx, lly, urx, ury in character space
	BuildNow bool       // this level is inside a BuildChar procedure
}

// pushContext enters a new character context.
func (p *Plotter) pushContext(ctx *CharContext) {
	p.contexts = append(p.contexts, ctx)
}

// popContext leaves the current character context.
func (p *Plotter) popContext() {
	if len(p.contexts) > 0 {
		p.contexts = p.contexts[:len(p.contexts)-1]
	}
}

// Context returns the active character context, or nil outside of a
// glyph construction.
func (p *Plotter) Context() *CharContext {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[len(p.contexts)-1]
}
