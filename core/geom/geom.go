/*
Package geom implements affine matrices and device coordinates for the
renderer core.

Matrices are 3×2 affine transforms in the PostScript tradition: the first
two rows scale and rotate, the third row translates. Matrix comparison for
glyph cache lookups is bit-exact; this is the only way to guarantee that
character bitmaps will be pixel-for-pixel equivalent.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package geom

import (
	"fmt"
	"math"
)

// DCoord is a device coordinate, in pixels.
type DCoord = int32

// Rect is an inclusive device-space rectangle, used for clip bounds.
type Rect struct {
	X1, Y1, X2, Y2 DCoord
}

// Empty returns true if the rectangle contains no pixels.
func (r Rect) Empty() bool {
	return r.X2 < r.X1 || r.Y2 < r.Y1
}

// Matrix shape classification, kept to shortcut transform work.
const (
	Matrix00 = 1 << iota // m[0][0], m[1][1] non-zero
	Matrix01             // m[0][1], m[1][0] non-zero
	MatrixTX             // x translation non-zero
	MatrixTY             // y translation non-zero
)

// Matrix is a 3×2 affine transform.
type Matrix struct {
	M   [3][2]float64
	opt uint8
}

// Identity returns the identity transform.
func Identity() Matrix {
	m := Matrix{}
	m.M[0][0] = 1.0
	m.M[1][1] = 1.0
	m.opt = Matrix00
	return m
}

// NewMatrix builds a matrix from the six affine components
// (a, b, c, d, tx, ty) and classifies it.
func NewMatrix(a, b, c, d, tx, ty float64) Matrix {
	m := Matrix{}
	m.M[0][0], m.M[0][1] = a, b
	m.M[1][0], m.M[1][1] = c, d
	m.M[2][0], m.M[2][1] = tx, ty
	m.classify()
	return m
}

func (m *Matrix) classify() {
	m.opt = 0
	if m.M[0][0] != 0.0 || m.M[1][1] != 0.0 {
		m.opt |= Matrix00
	}
	if m.M[0][1] != 0.0 || m.M[1][0] != 0.0 {
		m.opt |= Matrix01
	}
	if m.M[2][0] != 0.0 {
		m.opt |= MatrixTX
	}
	if m.M[2][1] != 0.0 {
		m.opt |= MatrixTY
	}
}

// IsOrthogonal returns true if the matrix has no rotational cross terms.
func (m Matrix) IsOrthogonal() bool {
	return m.opt&Matrix01 == 0
}

// Eq compares two matrices bit-exact, including translations.
func (m Matrix) Eq(n Matrix) bool {
	return m.M == n.M
}

// EqScale compares two matrices bit-exact, ignoring the translational
// components. Type 32 cache lookups use this variant; the translations are
// not necessary to match the character.
func (m Matrix) EqScale(n Matrix) bool {
	return m.M[0] == n.M[0] && m.M[1] == n.M[1]
}

// Mult returns m × n.
func (m Matrix) Mult(n Matrix) Matrix {
	var r Matrix
	r.M[0][0] = m.M[0][0]*n.M[0][0] + m.M[0][1]*n.M[1][0]
	r.M[0][1] = m.M[0][0]*n.M[0][1] + m.M[0][1]*n.M[1][1]
	r.M[1][0] = m.M[1][0]*n.M[0][0] + m.M[1][1]*n.M[1][0]
	r.M[1][1] = m.M[1][0]*n.M[0][1] + m.M[1][1]*n.M[1][1]
	r.M[2][0] = m.M[2][0]*n.M[0][0] + m.M[2][1]*n.M[1][0] + n.M[2][0]
	r.M[2][1] = m.M[2][0]*n.M[0][1] + m.M[2][1]*n.M[1][1] + n.M[2][1]
	r.classify()
	return r
}

// Inverse returns the inverse transform. The second return value is false
// for degenerate matrices.
func (m Matrix) Inverse() (Matrix, bool) {
	det := m.M[0][0]*m.M[1][1] - m.M[0][1]*m.M[1][0]
	if det == 0.0 {
		return Matrix{}, false
	}
	var r Matrix
	r.M[0][0] = m.M[1][1] / det
	r.M[0][1] = -m.M[0][1] / det
	r.M[1][0] = -m.M[1][0] / det
	r.M[1][1] = m.M[0][0] / det
	r.M[2][0] = -(m.M[2][0]*r.M[0][0] + m.M[2][1]*r.M[1][0])
	r.M[2][1] = -(m.M[2][0]*r.M[0][1] + m.M[2][1]*r.M[1][1])
	r.classify()
	return r, true
}

// matrixSnapEpsilon is the residual below which a matrix element is
// considered to be noise from concatenating transforms.
const matrixSnapEpsilon = 1e-6

// Snap cleans small residuals from the matrix elements. Concatenation of a
// font matrix with page transforms leaves tiny off-axis residue which
// would otherwise defeat the bit-exact cache matrix comparison.
func (m Matrix) Snap() Matrix {
	r := m
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			rounded := math.Floor(r.M[i][j] + 0.5)
			if math.Abs(r.M[i][j]-rounded) < matrixSnapEpsilon {
				r.M[i][j] = rounded
			}
		}
	}
	r.classify()
	return r
}

// Apply transforms a point, including translation.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return x*m.M[0][0] + y*m.M[1][0] + m.M[2][0],
		x*m.M[0][1] + y*m.M[1][1] + m.M[2][1]
}

// TransformDxy transforms a distance vector, ignoring translation.
func (m Matrix) TransformDxy(dx, dy float64) (float64, float64) {
	return dx*m.M[0][0] + dy*m.M[1][0], dx*m.M[0][1] + dy*m.M[1][1]
}

func (m Matrix) String() string {
	return fmt.Sprintf("[%g %g %g %g %g %g]",
		m.M[0][0], m.M[0][1], m.M[1][0], m.M[1][1], m.M[2][0], m.M[2][1])
}
