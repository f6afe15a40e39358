package matchset

import (
	"errors"
	"fmt"
	"math"

	"maponyms/internal/gazetteer"
	"maponyms/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Family names the class of transforms a match set must be consistent under.
type Family string

const (
	// Similarity is rotation, uniform scale and translation.
	Similarity Family = "similarity"
	// Affine is a general orientation-preserving affine transform.
	Affine Family = "affine"
)

// ParseFamily converts a configuration string into a Family.
func ParseFamily(s string) (Family, error) {
	switch Family(s) {
	case Similarity, "":
		return Similarity, nil
	case Affine:
		return Affine, nil
	default:
		return "", fmt.Errorf("unknown transform family %q", s)
	}
}

// minimalSubset is the number of point pairs that determine a transform.
func (f Family) minimalSubset() int {
	if f == Affine {
		return 3
	}
	return 2
}

const (
	minWorldSpan = 1e-7 // Projected degrees; closer world points are the same place
	minPixelSpan = 1.0  // Pixels
)

var errDegenerate = errors.New("degenerate point configuration")

// projection maps lon/lat to a local plane: x = lon*cos(lat0), y = -lat.
// Flipping latitude makes north-up images a proper (non-reflecting) fit.
type projection struct {
	Lat0   float64
	cosLat float64
}

func projectionAt(lat0 float64) projection {
	return projection{Lat0: lat0, cosLat: math.Cos(lat0 * math.Pi / 180)}
}

// newProjection centers the projection on the mean latitude of cands.
func newProjection(cands []gazetteer.Candidate) projection {
	if len(cands) == 0 {
		return projectionAt(0)
	}
	var sum float64
	for _, c := range cands {
		sum += c.Lat
	}
	return projectionAt(sum / float64(len(cands)))
}

func (p projection) world(c gazetteer.Candidate) geometry.Point2D {
	return geometry.Point2D{X: c.Lon * p.cosLat, Y: -c.Lat}
}

// fitMinimal computes the transform determined exactly by a minimal subset.
func fitMinimal(f Family, src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	if f == Affine {
		return affineFrom3(src, dst)
	}
	return similarityFrom2(src[0], src[1], dst[0], dst[1])
}

// fitLeastSquares fits a transform of family f to all pairs.
func fitLeastSquares(f Family, src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	if f == Affine {
		return affineLeastSquares(src, dst)
	}
	return similarityLeastSquares(src, dst)
}

// admissible rejects transforms a map image cannot plausibly have.
func admissible(f Family, t geometry.AffineTransform, maxAnisotropy float64) bool {
	det := t.Determinant()
	if math.IsNaN(det) || math.IsInf(det, 0) || det <= 0 {
		return false
	}
	if f == Affine && maxAnisotropy > 0 {
		s1, s2 := t.SingularValues()
		if s2 == 0 || s1/s2 > maxAnisotropy {
			return false
		}
	}
	return true
}

// similarityFrom2 computes a similarity transform from 2 point pairs.
func similarityFrom2(s0, s1, d0, d1 geometry.Point2D) (geometry.AffineTransform, error) {
	sx, sy := s1.X-s0.X, s1.Y-s0.Y
	dx, dy := d1.X-d0.X, d1.Y-d0.Y

	srcLen := math.Hypot(sx, sy)
	dstLen := math.Hypot(dx, dy)
	if srcLen < minWorldSpan || dstLen < minPixelSpan {
		return geometry.AffineTransform{}, errDegenerate
	}

	scale := dstLen / srcLen
	theta := math.Atan2(dy, dx) - math.Atan2(sy, sx)
	t := geometry.Similarity(scale, theta, 0, 0)

	// d0 = sR * s0 + t  =>  t = d0 - sR * s0
	p := t.Apply(s0)
	t.TX = d0.X - p.X
	t.TY = d0.Y - p.Y
	return t, nil
}

// similarityLeastSquares solves
//
//	x' = a*x - b*y + tx
//	y' = b*x + a*y + ty
//
// for all pairs with a QR decomposition.
func similarityLeastSquares(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	if n < 2 {
		return geometry.AffineTransform{}, fmt.Errorf("need at least 2 points")
	}

	A := mat.NewDense(n*2, 4, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, -y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 0, y)
		A.Set(i*2+1, 1, x)
		A.Set(i*2+1, 3, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return geometry.AffineTransform{}, err
	}

	a, b := params.AtVec(0), params.AtVec(1)
	return geometry.AffineTransform{
		A: a, B: -b, TX: params.AtVec(2),
		C: b, D: a, TY: params.AtVec(3),
	}, nil
}

// affineFrom3 computes an affine transform from exactly 3 point pairs.
func affineFrom3(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	if len(src) != 3 || len(dst) != 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need exactly 3 points")
	}
	if geometry.TriangleArea(dst[0], dst[1], dst[2]) < minPixelSpan {
		return geometry.AffineTransform{}, errDegenerate
	}
	if geometry.TriangleArea(src[0], src[1], src[2]) < minWorldSpan*minWorldSpan {
		return geometry.AffineTransform{}, errDegenerate
	}

	// [x', y'] = [a, b, tx; c, d, ty] * [x, y, 1]
	A := mat.NewDense(6, 6, nil)
	B := mat.NewVecDense(6, nil)
	for i := 0; i < 3; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.AffineTransform{}, err
	}
	return affineFromParams(&params), nil
}

// affineLeastSquares fits an affine transform to all pairs with a QR
// decomposition.
func affineLeastSquares(src, dst []geometry.Point2D) (geometry.AffineTransform, error) {
	n := len(src)
	if n < 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need at least 3 points")
	}

	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, dst[i].X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, dst[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return geometry.AffineTransform{}, err
	}
	return affineFromParams(&params), nil
}

func affineFromParams(p *mat.VecDense) geometry.AffineTransform {
	return geometry.AffineTransform{
		A: p.AtVec(0), B: p.AtVec(1), TX: p.AtVec(2),
		C: p.AtVec(3), D: p.AtVec(4), TY: p.AtVec(5),
	}
}
