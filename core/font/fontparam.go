package font

// ParamKey enumerates the font-wide parameters accessible through a
// ParamSource. The keys are stable; the hint engine and the cache use
// them to query the font format layer.
type ParamKey int

//go:generate stringer -type=ParamKey
const (
	ParamUniqueID ParamKey = iota
	ParamFID
	ParamSubFont
	ParamBlueValues
	ParamOtherBlues
	ParamFamilyBlues
	ParamFamilyOtherBlues
	ParamBlueScale
	ParamBlueShift
	ParamBlueFuzz
	ParamStdHW
	ParamStdVW
	ParamStemSnapH
	ParamStemSnapV
	ParamForceBold
	ParamLanguageGroup
	ParamRndStemUp
	ParamExpansionFactor
)

// ArrayLength requests the length of an array-valued parameter instead of
// an element.
const ArrayLength = -1

// ParamSource is the font-parameter accessor provided by the font format
// layer. For array-valued keys, index ArrayLength returns the array length
// as an int; non-negative indices return elements. Scalar keys ignore the
// index. The second return value is false if the parameter is absent.
type ParamSource interface {
	Get(key ParamKey, index int) (interface{}, bool)
}

// DictParams is a map-backed ParamSource. Array-valued parameters are
// stored as []float64 or []int.
type DictParams map[ParamKey]interface{}

// Get implements ParamSource.
func (d DictParams) Get(key ParamKey, index int) (interface{}, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	switch arr := v.(type) {
	case []int:
		if index == ArrayLength {
			return len(arr), true
		}
		if index < 0 || index >= len(arr) {
			return nil, false
		}
		return arr[index], true
	case []float64:
		if index == ArrayLength {
			return len(arr), true
		}
		if index < 0 || index >= len(arr) {
			return nil, false
		}
		return arr[index], true
	}
	return v, true
}

// Num coerces a parameter value to float64.
func Num(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// Int coerces a parameter value to int, substituting bad for values
// outside the integer range.
func Int(v interface{}, bad int) (int, bool) {
	f, ok := Num(v)
	if !ok {
		return 0, false
	}
	if f > 2147483647 || f < -2147483648 {
		return bad, true
	}
	return int(f), true
}

// Flag coerces a parameter value to bool.
func Flag(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
