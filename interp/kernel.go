package interp

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/InterpKernel/basis"
)

// interpolateRange is the generic kernel: runtime loop bounds, any D1D
// up to basis.MaxD1D. The per-point work keeps the lane structure of the
// device kernel as phase-ordered statements: a (j,k) grid of D1D x D1D
// lanes fills the weight buffer, then per component each lane contracts
// the third direction and scales by its own two weights, then one lane
// reduces the partial sums. Sequential execution makes the barriers
// between phases implicit, but the phase order and the summation order
// are fixed and must match the fixed-degree kernels exactly.
func interpolateRange(field Field, pts Points, tbl *basis.Table, out []float64, npt, start, end int) {
	d1d := tbl.D1D
	np := d1d * d1d * d1d
	var wtr [3 * basis.MaxD1D]float64
	var sums [basis.MaxD1D * basis.MaxD1D]float64

	for i := start; i < end; i++ {
		// Basis phase. Lane (j,k) evaluates basis index j of direction k
		// for k <= 2. With only two lane dimensions available, D1D == 2
		// cannot reach the third direction that way, so lane row k == 1
		// is reused for it. Keep this exactly as written: the workaround
		// exists for the two-node case only.
		for j := 0; j < d1d; j++ {
			for k := 0; k < d1d; k++ {
				if k <= 2 {
					wtr[k*d1d+j] = basis.Eval(pts.Ref[3*i+k], j, d1d, tbl.Nodes, tbl.Coeffs)
				}
				if d1d == 2 && k == 1 {
					wtr[2*d1d+j] = basis.Eval(pts.Ref[3*i+2], j, d1d, tbl.Nodes, tbl.Coeffs)
				}
			}
		}

		for fld := 0; fld < field.Ncomp; fld++ {
			elemOffset := int(pts.Elems[i])*np*field.Ncomp + fld*np

			// Contraction phase: lane (j,k) sums the third direction and
			// scales by its own first- and second-direction weights.
			for j := 0; j < d1d; j++ {
				for k := 0; k < d1d; k++ {
					sum := 0.0
					for l := 0; l < d1d; l++ {
						sum += field.Data[elemOffset+j+k*d1d+l*d1d*d1d] * wtr[2*d1d+l]
					}
					sums[j+k*d1d] = sum * wtr[d1d+k] * wtr[j]
				}
			}

			// Reduction phase: index-ordered sum over all D1D^2 partials.
			out[i+fld*npt] = floats.Sum(sums[:d1d*d1d])
		}
	}
}
