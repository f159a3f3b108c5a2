// Package interp evaluates tensor-product Lagrange finite-element fields
// at points that have already been located: each point carries the index
// of its enclosing element and its reference coordinate inside that
// element. Evaluation is a sum-factorized 3D contraction of the nodal
// values against three 1D basis weight vectors, executed independently
// per point.
//
// Point search, basis-table construction, and buffer allocation all live
// with the caller: this package only reads the point and table data and
// writes the output buffer.
package interp

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/notargets/InterpKernel/basis"
)

// Field is a read-only view of the nodal values for nel elements with
// ncomp components each. Data is laid out element-major, then
// component-major, then local tensor index with the first direction
// varying fastest: value(e, c, j, k, l) = Data[e*Np*ncomp + c*Np +
// j + k*D1D + l*D1D*D1D] where Np = D1D^3.
type Field struct {
	Data  []float64
	Nel   int
	Ncomp int
}

// Points holds the located query points. Elems[i] is the element index
// of point i and Ref[3*i:3*i+3] its (x,y,z) reference coordinate.
// Reference coordinates need not lie inside the nominal domain; values
// outside it extrapolate.
type Points struct {
	Elems []int32
	Ref   []float64
}

// Count returns the number of points.
func (p Points) Count() int { return len(p.Elems) }

// serialCutoff is the point count below which a worker pool costs more
// than it saves.
const serialCutoff = 256

// InterpolateLocal3 interpolates every field component at every point
// and stores the results in out, laid out component-major with the
// point index fastest: out[i + c*npt].
//
// D1D values 2 through 5 run fixed-degree kernels with constant loop
// bounds; every other supported value runs the generic kernel. Both
// paths compute identical sums in identical order.
//
// npt == 0 is a no-op. A nil or zero-degree table, a D1D above
// basis.MaxD1D, or buffer lengths inconsistent with npt, nel, ncomp and
// D1D are programming errors and panic; they are checked once per call,
// never per point. Element indices are not validated here - the
// point-location layer owns that contract.
func InterpolateLocal3(field Field, pts Points, tbl *basis.Table, out []float64) {
	npt := pts.Count()
	if npt == 0 {
		return
	}
	if tbl == nil || tbl.D1D == 0 {
		panic("interp: polynomial order not specified")
	}
	d1d := tbl.D1D
	if d1d > basis.MaxD1D {
		panic(fmt.Sprintf("interp: D1D=%d exceeds maximum allowable order %d", d1d, basis.MaxD1D))
	}
	np := d1d * d1d * d1d
	if len(tbl.Nodes) != d1d || len(tbl.Coeffs) != d1d {
		panic(fmt.Sprintf("interp: basis table length mismatch for D1D=%d", d1d))
	}
	if len(pts.Ref) != 3*npt {
		panic(fmt.Sprintf("interp: reference coordinate buffer has %d values, need %d", len(pts.Ref), 3*npt))
	}
	if len(field.Data) != field.Nel*field.Ncomp*np {
		panic(fmt.Sprintf("interp: field buffer has %d values, need nel*ncomp*D1D^3 = %d",
			len(field.Data), field.Nel*field.Ncomp*np))
	}
	if len(out) != npt*field.Ncomp {
		panic(fmt.Sprintf("interp: output buffer has %d values, need npt*ncomp = %d",
			len(out), npt*field.Ncomp))
	}

	var run func(start, end int)
	switch d1d {
	case 2:
		run = func(s, e int) { interpolateRange2(field, pts, tbl, out, npt, s, e) }
	case 3:
		run = func(s, e int) { interpolateRange3(field, pts, tbl, out, npt, s, e) }
	case 4:
		run = func(s, e int) { interpolateRange4(field, pts, tbl, out, npt, s, e) }
	case 5:
		run = func(s, e int) { interpolateRange5(field, pts, tbl, out, npt, s, e) }
	default:
		run = func(s, e int) { interpolateRange(field, pts, tbl, out, npt, s, e) }
	}
	forEachPointRange(npt, run)
}

// forEachPointRange splits [0,npt) across workers. Points are fully
// independent and each output slot is written by exactly one worker, so
// the only synchronization needed is the final wait.
func forEachPointRange(npt int, run func(start, end int)) {
	workers := runtime.NumCPU()
	if npt < serialCutoff || workers <= 1 {
		run(0, npt)
		return
	}
	if workers > npt {
		workers = npt
	}
	chunk := (npt + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < npt; start += chunk {
		end := start + chunk
		if end > npt {
			end = npt
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			run(s, e)
		}(start, end)
	}
	wg.Wait()
}
