package resources

import (
	"fmt"
	"io/ioutil"

	"github.com/flopp/go-findfont"

	"github.com/npillmayer/ripcore/core"
)

// notFound returns an application error for a missing resource.
func notFound(res string) error {
	e := fmt.Errorf("resource missing: %v", res)
	return core.WrapError(e, core.EMISSING, "font not found: %s", res)
}

// FindLocalFont searches for an installed font matching pattern and
// returns its file path.
func FindLocalFont(pattern string) (string, error) {
	fpath, err := findfont.Find(pattern)
	if err != nil {
		tracer().Infof("no installed font matches %q", pattern)
		return "", notFound(pattern)
	}
	tracer().Debugf("found font file %s", fpath)
	return fpath, nil
}

// LoadFontData locates an installed font and returns its raw bytes,
// ready for the sfnt and table parsers.
func LoadFontData(pattern string) ([]byte, error) {
	fpath, err := FindLocalFont(pattern)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(fpath)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read font file %s", fpath)
	}
	return data, nil
}
