package hinting

// PathBuilder is the path accumulation contract shared by the hinting
// filter and the builders it wraps. Coordinates are in character space.
type PathBuilder interface {
	InitChar() error
	SetBearing(x, y float64) error
	SetWidth(x, y float64) error
	MoveTo(x, y float64) error
	LineTo(x, y float64) error
	CurveTo(curve [6]float64) error
	ClosePath() error
	EndChar(ok bool) error
}

// CharBuilder is the full charstring build contract: path primitives
// plus the hint primitives emitted by Type 1/2 charstring interpreters.
type CharBuilder interface {
	PathBuilder

	// HStem declares the vertical range of a horizontal stem zone
	// between y1 and y2, relative to the sidebearing point.
	HStem(y1, y2 float64, topEdge, bottomEdge bool, index int) error

	// VStem declares the horizontal range of a vertical stem zone
	// between x1 and x2, relative to the sidebearing point.
	VStem(x1, x2 float64, leftEdge, rightEdge bool, index int) error

	// HintMask activates or deactivates the stem with the given index.
	HintMask(index int, activate bool) error

	// CntrMask adds the indexed stem to a counter control group; a
	// negative index marks the group complete.
	CntrMask(index int, group uint32) error

	// Flex renders a flex feature: two curves, or a straight line when
	// the flex depth is below the threshold at the current scale.
	Flex(curveA, curveB [6]float64, depth, thresh float64, horizontal bool) error

	// DotSection toggles hint suppression for a dot section.
	DotSection() error

	// ChangeHints deactivates all stems before a new hint set.
	ChangeHints() error
}

// passthrough adapts a plain path builder to the full build contract,
// ignoring all hint primitives. Used when hinting is disabled or the
// font format carries no hints.
type passthrough struct {
	PathBuilder
}

// Passthrough wraps a path builder into an unhinted CharBuilder.
func Passthrough(out PathBuilder) CharBuilder {
	return passthrough{out}
}

func (p passthrough) HStem(y1, y2 float64, topEdge, bottomEdge bool, index int) error {
	return nil
}

func (p passthrough) VStem(x1, x2 float64, leftEdge, rightEdge bool, index int) error {
	return nil
}

func (p passthrough) HintMask(index int, activate bool) error {
	return nil
}

func (p passthrough) CntrMask(index int, group uint32) error {
	return nil
}

func (p passthrough) Flex(curveA, curveB [6]float64, depth, thresh float64, horizontal bool) error {
	if err := p.CurveTo(curveA); err != nil {
		return err
	}
	return p.CurveTo(curveB)
}

func (p passthrough) DotSection() error {
	return nil
}

func (p passthrough) ChangeHints() error {
	return nil
}
