package interp

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/InterpKernel/basis"
)

// Fixed-degree kernels for the common low orders. Each is the body of
// interpolateRange with D1D as an untyped constant, so every loop bound,
// array extent and index stride is known at compile time and the scratch
// stays in registers. Dispatch proves these equivalent to the generic
// kernel by test, not by construction - keep the bodies in lockstep with
// kernel.go when changing either.

func interpolateRange2(field Field, pts Points, tbl *basis.Table, out []float64, npt, start, end int) {
	const d1d = 2
	const np = d1d * d1d * d1d
	var wtr [3 * d1d]float64
	var sums [d1d * d1d]float64

	for i := start; i < end; i++ {
		// Two lane rows only: row k == 1 doubles as the third direction.
		for j := 0; j < d1d; j++ {
			for k := 0; k < d1d; k++ {
				wtr[k*d1d+j] = basis.Eval(pts.Ref[3*i+k], j, d1d, tbl.Nodes, tbl.Coeffs)
				if k == 1 {
					wtr[2*d1d+j] = basis.Eval(pts.Ref[3*i+2], j, d1d, tbl.Nodes, tbl.Coeffs)
				}
			}
		}
		for fld := 0; fld < field.Ncomp; fld++ {
			elemOffset := int(pts.Elems[i])*np*field.Ncomp + fld*np
			for j := 0; j < d1d; j++ {
				for k := 0; k < d1d; k++ {
					sum := 0.0
					for l := 0; l < d1d; l++ {
						sum += field.Data[elemOffset+j+k*d1d+l*d1d*d1d] * wtr[2*d1d+l]
					}
					sums[j+k*d1d] = sum * wtr[d1d+k] * wtr[j]
				}
			}
			out[i+fld*npt] = floats.Sum(sums[:])
		}
	}
}

func interpolateRange3(field Field, pts Points, tbl *basis.Table, out []float64, npt, start, end int) {
	const d1d = 3
	const np = d1d * d1d * d1d
	var wtr [3 * d1d]float64
	var sums [d1d * d1d]float64

	for i := start; i < end; i++ {
		for j := 0; j < d1d; j++ {
			for k := 0; k < d1d; k++ {
				wtr[k*d1d+j] = basis.Eval(pts.Ref[3*i+k], j, d1d, tbl.Nodes, tbl.Coeffs)
			}
		}
		for fld := 0; fld < field.Ncomp; fld++ {
			elemOffset := int(pts.Elems[i])*np*field.Ncomp + fld*np
			for j := 0; j < d1d; j++ {
				for k := 0; k < d1d; k++ {
					sum := 0.0
					for l := 0; l < d1d; l++ {
						sum += field.Data[elemOffset+j+k*d1d+l*d1d*d1d] * wtr[2*d1d+l]
					}
					sums[j+k*d1d] = sum * wtr[d1d+k] * wtr[j]
				}
			}
			out[i+fld*npt] = floats.Sum(sums[:])
		}
	}
}

func interpolateRange4(field Field, pts Points, tbl *basis.Table, out []float64, npt, start, end int) {
	const d1d = 4
	const np = d1d * d1d * d1d
	var wtr [3 * d1d]float64
	var sums [d1d * d1d]float64

	for i := start; i < end; i++ {
		for j := 0; j < d1d; j++ {
			for k := 0; k < 3; k++ {
				wtr[k*d1d+j] = basis.Eval(pts.Ref[3*i+k], j, d1d, tbl.Nodes, tbl.Coeffs)
			}
		}
		for fld := 0; fld < field.Ncomp; fld++ {
			elemOffset := int(pts.Elems[i])*np*field.Ncomp + fld*np
			for j := 0; j < d1d; j++ {
				for k := 0; k < d1d; k++ {
					sum := 0.0
					for l := 0; l < d1d; l++ {
						sum += field.Data[elemOffset+j+k*d1d+l*d1d*d1d] * wtr[2*d1d+l]
					}
					sums[j+k*d1d] = sum * wtr[d1d+k] * wtr[j]
				}
			}
			out[i+fld*npt] = floats.Sum(sums[:])
		}
	}
}

func interpolateRange5(field Field, pts Points, tbl *basis.Table, out []float64, npt, start, end int) {
	const d1d = 5
	const np = d1d * d1d * d1d
	var wtr [3 * d1d]float64
	var sums [d1d * d1d]float64

	for i := start; i < end; i++ {
		for j := 0; j < d1d; j++ {
			for k := 0; k < 3; k++ {
				wtr[k*d1d+j] = basis.Eval(pts.Ref[3*i+k], j, d1d, tbl.Nodes, tbl.Coeffs)
			}
		}
		for fld := 0; fld < field.Ncomp; fld++ {
			elemOffset := int(pts.Elems[i])*np*field.Ncomp + fld*np
			for j := 0; j < d1d; j++ {
				for k := 0; k < d1d; k++ {
					sum := 0.0
					for l := 0; l < d1d; l++ {
						sum += field.Data[elemOffset+j+k*d1d+l*d1d*d1d] * wtr[2*d1d+l]
					}
					sums[j+k*d1d] = sum * wtr[d1d+k] * wtr[j]
				}
			}
			out[i+fld*npt] = floats.Sum(sums[:])
		}
	}
}
