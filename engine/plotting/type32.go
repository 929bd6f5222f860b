package plotting

import (
	"github.com/npillmayer/ripcore/backend/raster"
	"github.com/npillmayer/ripcore/core"
	"github.com/npillmayer/ripcore/core/font"
	"github.com/npillmayer/ripcore/core/geom"
	"github.com/npillmayer/ripcore/core/glyphcache"
)

// Type 32 fonts manipulate the font cache directly: addglyph installs a
// pre-rendered bitmap as a master character under the identity matrix,
// and other scalings of the glyph are derived from the master's pixels.

// t32MaxDim bounds Type 32 bitmap dimensions.
const t32MaxDim = 32767

// unpackT32Form unpacks a packed Type 32 bitmap into a cache form. Rows
// are packed MSB-first and padded to a byte boundary; bits travel left
// to right across the row.
func unpackT32Form(raw []byte, w, h geom.DCoord) (*raster.Form, error) {
	if w < 0 || h < 0 || w > t32MaxDim || h > t32MaxDim {
		return nil, core.Error(core.ERANGECHECK, "Type 32 bitmap size %d×%d", w, h)
	}
	rowbytes := (int(w) + 7) >> 3
	if len(raw) < rowbytes*int(h) {
		return nil, core.Error(core.ERANGECHECK, "Type 32 bitmap data short")
	}
	form := raster.NewBitmap(w, h)
	for y := geom.DCoord(0); y < h; y++ {
		row := raw[int(y)*rowbytes : (int(y)+1)*rowbytes]
		line := form.Line(y)
		for b, byteval := range row {
			if byteval == 0 {
				continue
			}
			word := raster.Word(byteval) << (raster.WordBits - 8 - uint(b&7)*8)
			line[b>>3] |= word
		}
	}
	return form, nil
}

// AddGlyph installs a Type 32 master glyph: the bitmap is unpacked into
// a cache form under the identity matrix and flagged as master, so it
// survives ordinary purges and serves as the source for other scalings.
// Metrics are recorded per writing mode.
func (p *Plotter) AddGlyph(fi *font.Info, cid int32, w, h geom.DCoord,
	raw []byte, wmode uint8, metrics [4]float64) (*glyphcache.CharEntry, error) {
	//
	form, err := unpackT32Form(raw, w, h)
	if err != nil {
		return nil, err
	}
	saved := fi.FontMatrix
	fi.SetMatrix(geom.Identity())
	defer fi.SetMatrix(saved)

	var sel glyphcache.Selection
	p.Cache.LookupFID(fi, &sel)
	p.Cache.LookupMatrix(fi, &sel)

	key := font.CharKey{Code: cid, WMode: wmode}
	// Replace a previous master definition of the same CID.
	if old := p.Cache.LookupCharT32(&sel, key); old != nil {
		p.Cache.RemoveChars(fi.FID, cid, cid)
		sel = glyphcache.Selection{}
		p.Cache.LookupFID(fi, &sel)
		p.Cache.LookupMatrix(fi, &sel)
	}
	entry, err := p.Cache.NewChar(fi, &sel, key)
	if err != nil {
		return nil, err
	}
	entry.Flags |= glyphcache.CharT32Master
	T32DataFor(entry, wmode, metrics)
	entry.AdvanceX = metrics[0]
	entry.AdvanceY = metrics[1]
	p.Cache.AttachForm(entry, form)
	tracer().Debugf("installed Type 32 master CID %d (%d×%d)", cid, w, h)
	return entry, nil
}

// T32DataFor records per-wmode master metrics on a Type 32 entry.
func T32DataFor(entry *glyphcache.CharEntry, wmode uint8, metrics [4]float64) *glyphcache.CharEntry {
	if entry.T32 == nil {
		entry.T32 = &glyphcache.T32Data{}
	}
	entry.T32.Metrics[wmode&1] = metrics
	entry.T32.HasWMode[wmode&1] = true
	if entry.T32.HasWMode[0] && entry.T32.HasWMode[1] {
		entry.Flags |= glyphcache.CharBothWModes
	}
	return entry
}

// RemoveGlyphs deletes a CID range of a Type 32 font from the cache.
func (p *Plotter) RemoveGlyphs(fid, firstcid, lastcid int32) {
	p.Cache.RemoveChars(fid, firstcid, lastcid)
}

// t32Construct derives a scaled instance of a Type 32 glyph from its
// master definition. The master's pixels are resampled to the target
// matrix; the translation components do not participate.
func (p *Plotter) t32Construct(fi *font.Info, key font.CharKey) (*glyphcache.CharEntry, error) {
	var sel glyphcache.Selection
	saved := fi.FontMatrix
	fi.SetMatrix(geom.Identity())
	p.Cache.LookupFID(fi, &sel)
	foundIdentity := p.Cache.LookupMatrix(fi, &sel)
	fi.SetMatrix(saved)

	if !foundIdentity {
		return nil, core.Error(core.EUNDEFINED, "no Type 32 master definitions")
	}
	master := p.Cache.LookupCharT32(&sel, key)
	if master == nil || master.Form == nil {
		return nil, core.Error(core.EUNDEFINED, "no Type 32 master for CID %d", key.Code)
	}

	sx := fi.FontMatrix.M[0][0]
	sy := fi.FontMatrix.M[1][1]
	if sx <= 0 || sy <= 0 {
		// Resampling uses the diagonal scale factors only; a non-positive
		// factor falls back to the master pixels unscaled.
		sx, sy = 1, 1
	}
	mw, mh := master.Form.W, master.Form.H
	w := geom.DCoord(float64(mw)*sx + 0.5)
	h := geom.DCoord(float64(mh)*sy + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	form := raster.NewBitmap(w, h)
	for y := geom.DCoord(0); y < h; y++ {
		my := geom.DCoord(float64(y) / sy)
		if my >= mh {
			my = mh - 1
		}
		for x := geom.DCoord(0); x < w; x++ {
			mx := geom.DCoord(float64(x) / sx)
			if mx >= mw {
				mx = mw - 1
			}
			if master.Form.Pixel(mx, my) != 0 {
				form.SetPixel(x, y, true)
			}
		}
	}

	p.Sel = glyphcache.Selection{}
	p.Cache.LookupFID(fi, &p.Sel)
	p.Cache.LookupMatrixT32(fi, &p.Sel)
	entry, err := p.Cache.NewChar(fi, &p.Sel, key)
	if err != nil {
		return nil, err
	}
	entry.AdvanceX = master.AdvanceX * sx
	entry.AdvanceY = master.AdvanceY * sy
	entry.XBearing = master.XBearing * sx
	entry.YBearing = master.YBearing * sy
	p.Cache.AttachForm(entry, form)
	return entry, nil
}
