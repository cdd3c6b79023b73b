// Package coords provides the affine matrix algebra used to track the PDF
// current transformation matrix (CTM) and text matrix through a content
// stream.
package coords

import (
	"errors"
	"math"
)

// Matrix is a PDF transformation matrix [a b c d e f] representing
//
//	| a b 0 |
//	| c d 0 |
//	| e f 1 |
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns m × o, i.e. applying m first and then o, matching the
// PDF convention for composing a new CTM with `cm`.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Point is a 2D coordinate.
type Point struct{ X, Y float64 }

// Transform applies the matrix to a point.
func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// Inverse returns the inverse matrix, or an error if m is singular.
func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rotate returns a rotation matrix for angle radians.
func Rotate(angle float64) Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix{c, s, -s, c, 0, 0}
}
