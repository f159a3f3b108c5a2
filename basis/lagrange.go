// Package basis provides 1D Lagrange basis tables for tensor-product
// interpolation. A Table pairs the node positions on the reference
// interval [-1,1] with precomputed barycentric-style coefficients, one
// per node, so that evaluating a basis polynomial away from its node
// costs a single product loop.
package basis

// MaxD1D is the maximum supported number of 1D nodes per direction.
const MaxD1D = 10

// Eval returns the value of the i-th Lagrange basis polynomial at x for
// a basis with d1d nodes. The running product is seeded with 2^(d1d-1);
// the matching inverse power is folded into coeffs[i] when the table is
// built, which keeps intermediate magnitudes near unity on [-1,1].
// Defined for any x: off-node and out-of-interval values extrapolate.
func Eval(x float64, i, d1d int, nodes, coeffs []float64) float64 {
	p := float64(int(1) << (d1d - 1))
	for j := 0; j < d1d; j++ {
		if j != i {
			p *= x - nodes[j]
		}
	}
	return coeffs[i] * p
}
