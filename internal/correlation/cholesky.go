// Package correlation provides correlation-matrix utilities for generating
// correlated standard normals from independent ones.
//
// A valid correlation matrix is:
//   - square and symmetric (within 1e-10)
//   - unit diagonal (within 1e-10), off-diagonal entries in [-1, 1]
//   - positive definite, verified by a successful Cholesky factorization
//
// The utilities are standalone; no single-asset product consumes them.
package correlation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tolerance used for the symmetry and unit-diagonal checks.
const Tolerance = 1e-10

var (
	// ErrNotSquare is returned for empty or ragged matrices.
	ErrNotSquare = errors.New("correlation: matrix is not square")

	// ErrNotSymmetric is returned when A[i][j] and A[j][i] differ by more
	// than Tolerance.
	ErrNotSymmetric = errors.New("correlation: matrix is not symmetric")

	// ErrInvalidEntry is returned for a non-unit diagonal or an entry
	// outside [-1, 1].
	ErrInvalidEntry = errors.New("correlation: invalid matrix entry")

	// ErrNotPositiveDefinite is returned when the factorization meets a
	// non-positive pivot.
	ErrNotPositiveDefinite = errors.New("correlation: matrix is not positive definite")

	// ErrDimensionMismatch is returned when the normals vector length does
	// not match the matrix dimension.
	ErrDimensionMismatch = errors.New("correlation: dimension mismatch")
)

// Cholesky returns the lower-triangular L with A = L·Lᵗ, built column by
// column:
//
//	L[j][j] = sqrt(A[j][j] - Σ_{k<j} L[j][k]²)
//	L[i][j] = (A[i][j] - Σ_{k<j} L[i][k]·L[j][k]) / L[j][j]   for i > j
//
// Only the lower triangle of A is read. The first pivot that is zero,
// negative or NaN fails with ErrNotPositiveDefinite.
func Cholesky(a [][]float64) ([][]float64, error) {
	n, err := dimension(a)
	if err != nil {
		return nil, err
	}

	l := make([][]float64, n)
	backing := make([]float64, n*n)
	for i := range l {
		l[i] = backing[i*n : (i+1)*n : (i+1)*n]
	}

	for j := 0; j < n; j++ {
		sum := a[j][j]
		for k := 0; k < j; k++ {
			sum -= l[j][k] * l[j][k]
		}
		if !(sum > 0) {
			return nil, fmt.Errorf("%w: pivot %d is %g", ErrNotPositiveDefinite, j, sum)
		}
		l[j][j] = math.Sqrt(sum)

		for i := j + 1; i < n; i++ {
			s := a[i][j]
			for k := 0; k < j; k++ {
				s -= l[i][k] * l[j][k]
			}
			l[i][j] = s / l[j][j]
		}
	}
	return l, nil
}

// GenerateCorrelatedVariables maps independent standard normals z to
// correlated normals L·z, where L is the Cholesky factor of corr.
func GenerateCorrelatedVariables(corr [][]float64, z []float64) ([]float64, error) {
	n, err := dimension(corr)
	if err != nil {
		return nil, err
	}
	if len(z) != n {
		return nil, fmt.Errorf("%w: matrix is %dx%d, got %d normals", ErrDimensionMismatch, n, n, len(z))
	}

	l, err := Cholesky(corr)
	if err != nil {
		return nil, err
	}

	out := mat.NewVecDense(n, nil)
	out.MulVec(LowerTriangular(l), mat.NewVecDense(n, append([]float64(nil), z...)))
	return out.RawVector().Data, nil
}

// Validate returns nil for a valid correlation matrix, or the first
// violated condition wrapped with its location.
func Validate(a [][]float64) error {
	n, err := dimension(a)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if math.Abs(a[i][i]-1) > Tolerance {
			return fmt.Errorf("%w: diagonal [%d][%d] = %g", ErrInvalidEntry, i, i, a[i][i])
		}
		for j := 0; j < n; j++ {
			v := a[i][j]
			if !(v >= -1 && v <= 1) {
				return fmt.Errorf("%w: [%d][%d] = %g outside [-1, 1]", ErrInvalidEntry, i, j, v)
			}
			if j > i && math.Abs(v-a[j][i]) > Tolerance {
				return fmt.Errorf("%w: [%d][%d] = %g, [%d][%d] = %g", ErrNotSymmetric, i, j, v, j, i, a[j][i])
			}
		}
	}

	_, err = Cholesky(a)
	return err
}

// IsValidCorrelationMatrix reports whether a is a valid correlation matrix.
// It never panics, whatever the shape of a.
func IsValidCorrelationMatrix(a [][]float64) bool {
	return Validate(a) == nil
}

// LowerTriangular wraps a Cholesky factor as a gonum triangular matrix.
func LowerTriangular(l [][]float64) *mat.TriDense {
	n := len(l)
	t := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			t.SetTri(i, j, l[i][j])
		}
	}
	return t
}

// dimension returns n for an n×n matrix.
func dimension(a [][]float64) (int, error) {
	n := len(a)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty matrix", ErrNotSquare)
	}
	for i, row := range a {
		if len(row) != n {
			return 0, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
	}
	return n, nil
}
