// Package model fits an L2-regularised linear regression with an unpenalised
// intercept, solved in closed form over centred data.
package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const DefaultAlpha = 0.1

var (
	ErrNoSamples      = errors.New("no training samples")
	ErrShapeMismatch  = errors.New("feature rows and targets differ in shape")
	ErrNonFinite      = errors.New("training data contains NaN or Inf")
	ErrNegativeAlpha  = errors.New("alpha must be non-negative")
	ErrSingularSystem = errors.New("normal equations are singular")
)

type Ridge struct {
	alpha     float64
	coef      []float64
	intercept float64
}

// Fit solves (XcᵀXc + αI)w = Xcᵀyc, where Xc and yc are X and y with their
// column means removed, and sets the intercept to ȳ - x̄·w.
func Fit(x [][]float64, y []float64, alpha float64) (*Ridge, error) {
	if alpha < 0 {
		return nil, ErrNegativeAlpha
	}
	n := len(x)
	if n == 0 {
		return nil, ErrNoSamples
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, n, len(y))
	}
	p := len(x[0])
	if p == 0 {
		return nil, fmt.Errorf("%w: zero features", ErrShapeMismatch)
	}

	data := make([]float64, 0, n*p)
	for i, row := range x {
		if len(row) != p {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), p)
		}
		if !allFinite(row) || !allFinite(y[i:i+1]) {
			return nil, fmt.Errorf("%w: row %d", ErrNonFinite, i)
		}
		data = append(data, row...)
	}

	xc := mat.NewDense(n, p, data)
	means := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, xc)
		means[j] = stat.Mean(col, nil)
		floats.AddConst(-means[j], col)
		xc.SetCol(j, col)
	}
	yMean := stat.Mean(y, nil)
	yc := make([]float64, n)
	copy(yc, y)
	floats.AddConst(-yMean, yc)

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}

	var xty mat.VecDense
	xty.MulVec(xc.T(), mat.NewVecDense(n, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, ErrSingularSystem
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	return &Ridge{
		alpha:     alpha,
		coef:      coef,
		intercept: yMean - floats.Dot(means, coef),
	}, nil
}

// Predict evaluates one feature row. It returns NaN if the row has the wrong
// width.
func (r *Ridge) Predict(features []float64) float64 {
	if len(features) != len(r.coef) {
		return math.NaN()
	}
	return r.intercept + floats.Dot(r.coef, features)
}

func (r *Ridge) PredictBatch(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = r.Predict(row)
	}
	return out
}

func (r *Ridge) Coefficients() []float64 {
	out := make([]float64, len(r.coef))
	copy(out, r.coef)
	return out
}

func (r *Ridge) Intercept() float64 { return r.intercept }

func (r *Ridge) Alpha() float64 { return r.alpha }

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// MeanAbsoluteError is the mean of |actual - predicted|.
func MeanAbsoluteError(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("%w: %d actual, %d predicted", ErrShapeMismatch, len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, ErrNoSamples
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}
