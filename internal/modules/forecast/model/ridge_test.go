package model

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func linearData() ([][]float64, []float64) {
	// y = 3 + 2*x0 - 0.5*x1
	x := [][]float64{
		{1, 4}, {2, 1}, {3, 7}, {4, 2}, {5, 9},
		{6, 3}, {7, 8}, {8, 5}, {9, 6}, {10, 0},
	}
	y := make([]float64, len(x))
	for i, row := range x {
		y[i] = 3 + 2*row[0] - 0.5*row[1]
	}
	return x, y
}

func TestFit_RecoversLinearRelationWithTinyAlpha(t *testing.T) {
	x, y := linearData()

	r, err := Fit(x, y, 1e-9)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	coef := r.Coefficients()
	if !approx(coef[0], 2, 1e-6) || !approx(coef[1], -0.5, 1e-6) {
		t.Errorf("Coefficients = %v, want [2 -0.5]", coef)
	}
	if !approx(r.Intercept(), 3, 1e-6) {
		t.Errorf("Intercept = %v, want 3", r.Intercept())
	}
	if got := r.Predict([]float64{20, 10}); !approx(got, 38, 1e-5) {
		t.Errorf("Predict = %v, want 38", got)
	}
}

func TestFit_AlphaShrinksCoefficients(t *testing.T) {
	x, y := linearData()

	small, err := Fit(x, y, 0.1)
	if err != nil {
		t.Fatalf("Fit small: %v", err)
	}
	large, err := Fit(x, y, 1000)
	if err != nil {
		t.Fatalf("Fit large: %v", err)
	}
	if math.Abs(large.Coefficients()[0]) >= math.Abs(small.Coefficients()[0]) {
		t.Errorf("alpha=1000 coef %v not smaller than alpha=0.1 coef %v", large.Coefficients(), small.Coefficients())
	}
}

func TestFit_Deterministic(t *testing.T) {
	x, y := linearData()
	a, _ := Fit(x, y, DefaultAlpha)
	b, _ := Fit(x, y, DefaultAlpha)
	for i := range a.Coefficients() {
		if a.Coefficients()[i] != b.Coefficients()[i] {
			t.Fatalf("coefficients differ between fits: %v vs %v", a.Coefficients(), b.Coefficients())
		}
	}
	if a.Intercept() != b.Intercept() {
		t.Fatalf("intercepts differ: %v vs %v", a.Intercept(), b.Intercept())
	}
}

func TestFit_ConstantColumnWithAlpha(t *testing.T) {
	x := [][]float64{{1, 5}, {2, 5}, {3, 5}}
	y := []float64{2, 4, 6}
	r, err := Fit(x, y, DefaultAlpha)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if r.Coefficients()[1] != 0 {
		t.Errorf("constant column coef = %v, want 0", r.Coefficients()[1])
	}
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name  string
		x     [][]float64
		y     []float64
		alpha float64
		want  error
	}{
		{name: "no rows", x: nil, y: nil, alpha: 1, want: ErrNoSamples},
		{name: "negative alpha", x: [][]float64{{1}}, y: []float64{1}, alpha: -1, want: ErrNegativeAlpha},
		{name: "target count", x: [][]float64{{1}, {2}}, y: []float64{1}, alpha: 1, want: ErrShapeMismatch},
		{name: "ragged", x: [][]float64{{1, 2}, {3}}, y: []float64{1, 2}, alpha: 1, want: ErrShapeMismatch},
		{name: "nan feature", x: [][]float64{{1}, {math.NaN()}}, y: []float64{1, 2}, alpha: 1, want: ErrNonFinite},
		{name: "inf target", x: [][]float64{{1}, {2}}, y: []float64{1, math.Inf(1)}, alpha: 1, want: ErrNonFinite},
		{name: "singular without alpha", x: [][]float64{{1, 1}, {1, 1}}, y: []float64{1, 2}, alpha: 0, want: ErrSingularSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Fit(tt.x, tt.y, tt.alpha); !errors.Is(err, tt.want) {
				t.Fatalf("Fit err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPredictBatchAndWidth(t *testing.T) {
	x, y := linearData()
	r, err := Fit(x, y, 1e-9)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	got := r.PredictBatch([][]float64{{0, 0}, {1}})
	if !approx(got[0], 3, 1e-6) {
		t.Errorf("PredictBatch[0] = %v, want 3", got[0])
	}
	if !math.IsNaN(got[1]) {
		t.Errorf("PredictBatch[1] = %v, want NaN for short row", got[1])
	}
}

func TestMeanAbsoluteError(t *testing.T) {
	got, err := MeanAbsoluteError([]float64{1, 2, 3}, []float64{2, 2, 1})
	if err != nil {
		t.Fatalf("MeanAbsoluteError: %v", err)
	}
	if !approx(got, 1, 1e-12) {
		t.Errorf("MAE = %v, want 1", got)
	}
	if _, err := MeanAbsoluteError(nil, nil); !errors.Is(err, ErrNoSamples) {
		t.Errorf("empty MAE err = %v, want ErrNoSamples", err)
	}
}
