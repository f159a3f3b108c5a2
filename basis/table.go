package basis

import (
	"fmt"

	"github.com/notargets/gocfd/DG1D"
)

// Table holds the 1D node positions and barycentric coefficients for one
// polynomial degree. Both slices have length D1D. Tables are read-only
// once built and safe for concurrent use.
type Table struct {
	D1D    int
	Nodes  []float64
	Coeffs []float64
}

// Provider supplies basis tables per requested node count. The
// interpolation kernels consume tables through this interface and never
// compute or cache node positions themselves.
type Provider interface {
	TableForDegree(d1d int) (*Table, error)
}

// NewTable builds a table from distinct node positions. The coefficient
// for node i is 1 / (2^(D1D-1) * prod_{j != i}(nodes[i] - nodes[j])), so
// that Eval returns exactly 1 at node i.
func NewTable(nodes []float64) *Table {
	d1d := len(nodes)
	if d1d < 2 || d1d > MaxD1D {
		panic(fmt.Sprintf("basis: node count %d outside supported range [2,%d]", d1d, MaxD1D))
	}
	t := &Table{
		D1D:    d1d,
		Nodes:  make([]float64, d1d),
		Coeffs: make([]float64, d1d),
	}
	copy(t.Nodes, nodes)
	norm := float64(int(1) << (d1d - 1))
	for i := 0; i < d1d; i++ {
		prod := 1.0
		for j := 0; j < d1d; j++ {
			if j != i {
				prod *= nodes[i] - nodes[j]
			}
		}
		t.Coeffs[i] = 1.0 / (norm * prod)
	}
	return t
}

// NewGLLTable builds the standard table on the Gauss-Lobatto-Legendre
// nodes for d1d points per direction.
func NewGLLTable(d1d int) *Table {
	if d1d < 2 || d1d > MaxD1D {
		panic(fmt.Sprintf("basis: node count %d outside supported range [2,%d]", d1d, MaxD1D))
	}
	X := DG1D.JacobiGL(0, 0, d1d-1)
	return NewTable(X.V.RawVector().Data)
}

// Eval evaluates the i-th basis polynomial of this table at x.
func (t *Table) Eval(x float64, i int) float64 {
	return Eval(x, i, t.D1D, t.Nodes, t.Coeffs)
}

// GLLProvider is a caching Provider over NewGLLTable.
type GLLProvider struct {
	tables map[int]*Table
}

// NewGLLProvider returns an empty provider. Tables are built on first
// request and reused afterward. Not safe for concurrent first use.
func NewGLLProvider() *GLLProvider {
	return &GLLProvider{tables: make(map[int]*Table)}
}

// TableForDegree returns the GLL table for d1d nodes per direction.
func (p *GLLProvider) TableForDegree(d1d int) (*Table, error) {
	if d1d < 2 || d1d > MaxD1D {
		return nil, fmt.Errorf("basis: node count %d outside supported range [2,%d]", d1d, MaxD1D)
	}
	if t, ok := p.tables[d1d]; ok {
		return t, nil
	}
	t := NewGLLTable(d1d)
	p.tables[d1d] = t
	return t, nil
}
