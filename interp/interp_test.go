package interp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/InterpKernel/basis"
)

// buildField samples f at every tensor node of every element. The node
// at tensor index j + k*D1D + l*D1D^2 sits at (nodes[j], nodes[k],
// nodes[l]) in reference space; elements share the same reference node
// set, so e only matters when f makes it matter.
func buildField(tbl *basis.Table, nel, ncomp int, f func(e, c int, x, y, z float64) float64) Field {
	d1d := tbl.D1D
	np := d1d * d1d * d1d
	data := make([]float64, nel*ncomp*np)
	for e := 0; e < nel; e++ {
		for c := 0; c < ncomp; c++ {
			for l := 0; l < d1d; l++ {
				for k := 0; k < d1d; k++ {
					for j := 0; j < d1d; j++ {
						idx := e*np*ncomp + c*np + j + k*d1d + l*d1d*d1d
						data[idx] = f(e, c, tbl.Nodes[j], tbl.Nodes[k], tbl.Nodes[l])
					}
				}
			}
		}
	}
	return Field{Data: data, Nel: nel, Ncomp: ncomp}
}

func randomPoints(rng *rand.Rand, npt, nel int) Points {
	pts := Points{
		Elems: make([]int32, npt),
		Ref:   make([]float64, 3*npt),
	}
	for i := 0; i < npt; i++ {
		pts.Elems[i] = int32(rng.Intn(nel))
		for d := 0; d < 3; d++ {
			pts.Ref[3*i+d] = 2*rng.Float64() - 1
		}
	}
	return pts
}

// TestConstantFieldCube is the trilinear worked example: unit values at
// the corners of the reference cube, queried at the center.
func TestConstantFieldCube(t *testing.T) {
	tbl := basis.NewTable([]float64{-1, 1})
	field := buildField(tbl, 1, 1, func(e, c int, x, y, z float64) float64 { return 1 })

	pts := Points{Elems: []int32{0}, Ref: []float64{0, 0, 0}}
	out := make([]float64, 1)
	InterpolateLocal3(field, pts, tbl, out)

	if math.Abs(out[0]-1.0) > 1e-14 {
		t.Errorf("constant field at center: expected 1, got %v", out[0])
	}
}

// TestCornerMeanCube queries the center of a cube whose corner values
// are 1..8 by increasing tensor index; trilinear interpolation at the
// center is the arithmetic mean.
func TestCornerMeanCube(t *testing.T) {
	tbl := basis.NewTable([]float64{-1, 1})
	field := Field{Data: []float64{1, 2, 3, 4, 5, 6, 7, 8}, Nel: 1, Ncomp: 1}

	pts := Points{Elems: []int32{0}, Ref: []float64{0, 0, 0}}
	out := make([]float64, 1)
	InterpolateLocal3(field, pts, tbl, out)

	if math.Abs(out[0]-4.5) > 1e-14 {
		t.Errorf("corner mean at center: expected 4.5, got %v", out[0])
	}
}

// TestPathEquivalence runs the fixed-degree kernels against the generic
// kernel on identical inputs for every specialized degree.
func TestPathEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fixed := map[int]func(Field, Points, *basis.Table, []float64, int, int, int){
		2: interpolateRange2,
		3: interpolateRange3,
		4: interpolateRange4,
		5: interpolateRange5,
	}
	for d1d := 2; d1d <= 5; d1d++ {
		tbl := basis.NewGLLTable(d1d)
		nel, ncomp, npt := 5, 2, 40
		field := buildField(tbl, nel, ncomp, func(e, c int, x, y, z float64) float64 {
			return rng.NormFloat64()
		})
		pts := randomPoints(rng, npt, nel)

		outFixed := make([]float64, npt*ncomp)
		outGeneric := make([]float64, npt*ncomp)
		fixed[d1d](field, pts, tbl, outFixed, npt, 0, npt)
		interpolateRange(field, pts, tbl, outGeneric, npt, 0, npt)

		for i := range outFixed {
			if math.Abs(outFixed[i]-outGeneric[i]) > 1e-13*math.Max(1, math.Abs(outGeneric[i])) {
				t.Errorf("D1D=%d slot %d: fixed %v, generic %v",
					d1d, i, outFixed[i], outGeneric[i])
			}
		}
	}
}

// TestPolynomialExactness interpolates fields that are tensor
// polynomials of per-direction degree below the basis degree; the
// result must match the analytic value at arbitrary interior points.
func TestPolynomialExactness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for d1d := 2; d1d <= basis.MaxD1D; d1d++ {
		p := float64(d1d - 1)
		f := func(x, y, z float64) float64 {
			return math.Pow(x, p) + 2*math.Pow(y, p) - 0.5*math.Pow(z, p) + 3*x*y*z + 5
		}
		tbl := basis.NewGLLTable(d1d)
		field := buildField(tbl, 3, 1, func(e, c int, x, y, z float64) float64 {
			return f(x, y, z)
		})

		npt := 25
		pts := randomPoints(rng, npt, 3)
		out := make([]float64, npt)
		InterpolateLocal3(field, pts, tbl, out)

		for i := 0; i < npt; i++ {
			x, y, z := pts.Ref[3*i], pts.Ref[3*i+1], pts.Ref[3*i+2]
			want := f(x, y, z)
			if math.Abs(out[i]-want) > 1e-10*math.Max(1, math.Abs(want)) {
				t.Errorf("D1D=%d point %d (%g,%g,%g): expected %v, got %v",
					d1d, i, x, y, z, want, out[i])
			}
		}
	}
}

// TestEmptyInput verifies npt == 0 is a no-op that never touches the
// output buffer.
func TestEmptyInput(t *testing.T) {
	tbl := basis.NewGLLTable(3)
	field := buildField(tbl, 1, 1, func(e, c int, x, y, z float64) float64 { return 1 })

	out := []float64{-99, -99}
	InterpolateLocal3(field, Points{}, tbl, out)
	assert.Equal(t, []float64{-99, -99}, out)

	// The early return precedes every contract check.
	assert.NotPanics(t, func() { InterpolateLocal3(Field{}, Points{}, nil, nil) })
}

// TestMultiComponentConsistency compares an ncomp=3 run against three
// independent single-component runs on the corresponding sub-buffers.
func TestMultiComponentConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tbl := basis.NewGLLTable(4)
	d1d := tbl.D1D
	np := d1d * d1d * d1d
	nel, ncomp, npt := 4, 3, 30

	field := buildField(tbl, nel, ncomp, func(e, c int, x, y, z float64) float64 {
		return rng.NormFloat64()
	})
	pts := randomPoints(rng, npt, nel)

	out := make([]float64, npt*ncomp)
	InterpolateLocal3(field, pts, tbl, out)

	for c := 0; c < ncomp; c++ {
		sub := Field{Data: make([]float64, nel*np), Nel: nel, Ncomp: 1}
		for e := 0; e < nel; e++ {
			copy(sub.Data[e*np:(e+1)*np], field.Data[e*np*ncomp+c*np:e*np*ncomp+(c+1)*np])
		}
		outC := make([]float64, npt)
		InterpolateLocal3(sub, pts, tbl, outC)

		for i := 0; i < npt; i++ {
			if out[i+c*npt] != outC[i] {
				t.Errorf("component %d point %d: interleaved %v, standalone %v",
					c, i, out[i+c*npt], outC[i])
			}
		}
	}
}

// TestExtrapolationOutsideDomain checks that reference coordinates
// outside [-1,1] extrapolate the polynomial instead of failing.
func TestExtrapolationOutsideDomain(t *testing.T) {
	tbl := basis.NewGLLTable(3)
	// Exactly representable quadratic.
	f := func(x, y, z float64) float64 { return x*x - y + 0.25*z*z }
	field := buildField(tbl, 1, 1, func(e, c int, x, y, z float64) float64 {
		return f(x, y, z)
	})

	pts := Points{Elems: []int32{0}, Ref: []float64{1.5, -2.0, 3.0}}
	out := make([]float64, 1)
	InterpolateLocal3(field, pts, tbl, out)

	want := f(1.5, -2.0, 3.0)
	require.InDelta(t, want, out[0], 1e-10)
}

// TestContractViolationsPanic covers the two fatal preconditions and the
// buffer-length checks.
func TestContractViolationsPanic(t *testing.T) {
	tbl := basis.NewGLLTable(2)
	field := buildField(tbl, 1, 1, func(e, c int, x, y, z float64) float64 { return 0 })
	pts := Points{Elems: []int32{0}, Ref: []float64{0, 0, 0}}
	out := make([]float64, 1)

	assert.Panics(t, func() { InterpolateLocal3(field, pts, nil, out) }, "nil table")
	assert.Panics(t, func() { InterpolateLocal3(field, pts, &basis.Table{}, out) }, "degree zero")

	over := &basis.Table{
		D1D:    basis.MaxD1D + 1,
		Nodes:  make([]float64, basis.MaxD1D+1),
		Coeffs: make([]float64, basis.MaxD1D+1),
	}
	assert.Panics(t, func() { InterpolateLocal3(field, pts, over, out) }, "degree above max")

	assert.Panics(t, func() {
		InterpolateLocal3(field, Points{Elems: []int32{0}, Ref: []float64{0}}, tbl, out)
	}, "short ref buffer")
	assert.Panics(t, func() {
		InterpolateLocal3(field, pts, tbl, make([]float64, 2))
	}, "wrong output length")
}

// TestParallelMatchesSerial pushes the point count past the worker-pool
// cutoff and compares against a single serial sweep.
func TestParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tbl := basis.NewGLLTable(5)
	nel, ncomp := 8, 2
	npt := 4 * serialCutoff

	field := buildField(tbl, nel, ncomp, func(e, c int, x, y, z float64) float64 {
		return rng.NormFloat64()
	})
	pts := randomPoints(rng, npt, nel)

	parallel := make([]float64, npt*ncomp)
	InterpolateLocal3(field, pts, tbl, parallel)

	serial := make([]float64, npt*ncomp)
	interpolateRange5(field, pts, tbl, serial, npt, 0, npt)

	assert.Equal(t, serial, parallel)
}

// TestGenericHighDegrees exercises the runtime-bounded path at degrees
// with no specialized kernel.
func TestGenericHighDegrees(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for _, d1d := range []int{6, 8, basis.MaxD1D} {
		tbl := basis.NewGLLTable(d1d)
		field := buildField(tbl, 2, 1, func(e, c int, x, y, z float64) float64 {
			return float64(e+1) * (x + y*z)
		})
		pts := randomPoints(rng, 10, 2)
		out := make([]float64, 10)
		InterpolateLocal3(field, pts, tbl, out)

		for i := 0; i < 10; i++ {
			x, y, z := pts.Ref[3*i], pts.Ref[3*i+1], pts.Ref[3*i+2]
			want := float64(pts.Elems[i]+1) * (x + y*z)
			if math.Abs(out[i]-want) > 1e-11 {
				t.Errorf("D1D=%d point %d: expected %v, got %v", d1d, i, want, out[i])
			}
		}
	}
}
