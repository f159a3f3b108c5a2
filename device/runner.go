package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/notargets/InterpKernel/basis"
	"github.com/notargets/InterpKernel/interp"
)

// Runner owns one compiled interpolation kernel for a fixed basis table.
// The node-position and coefficient tables are uploaded once at
// construction; field, point and output buffers move per call.
type Runner struct {
	Device  *gocca.OCCADevice
	Table   *basis.Table
	kernel  *gocca.OCCAKernel
	generic bool
	gllMem  *gocca.OCCAMemory
	coefMem *gocca.OCCAMemory
}

// NewRunner compiles the kernel matching tbl.D1D on device and uploads
// the basis tables. A nil device, a nil or zero-degree table, or a
// degree above basis.MaxD1D is a programming error and panics; build
// failures return an error.
func NewRunner(device *gocca.OCCADevice, tbl *basis.Table) (*Runner, error) {
	if device == nil {
		panic("device: device cannot be nil")
	}
	if tbl == nil || tbl.D1D == 0 {
		panic("device: polynomial order not specified")
	}
	if tbl.D1D > basis.MaxD1D {
		panic(fmt.Sprintf("device: D1D=%d exceeds maximum allowable order %d", tbl.D1D, basis.MaxD1D))
	}

	source := KernelSource(tbl.D1D)

	// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
	var kernel *gocca.OCCAKernel
	var err error
	if device.Mode() == "OpenMP" {
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = device.BuildKernelFromString(source, KernelName, props)
	} else {
		kernel, err = device.BuildKernelFromString(source, KernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s for D1D=%d: %w", KernelName, tbl.D1D, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", KernelName)
	}

	r := &Runner{
		Device:  device,
		Table:   tbl,
		kernel:  kernel,
		generic: usesRuntimeDegree(tbl.D1D),
	}
	r.gllMem = device.Malloc(int64(tbl.D1D*8), unsafe.Pointer(&tbl.Nodes[0]), nil)
	r.coefMem = device.Malloc(int64(tbl.D1D*8), unsafe.Pointer(&tbl.Coeffs[0]), nil)
	return r, nil
}

// Interpolate runs the kernel for all points and copies the results into
// out, laid out component-major with the point index fastest, matching
// interp.InterpolateLocal3. npt == 0 is a no-op. Buffer-length
// inconsistencies panic; device transfer or execution failures return an
// error.
func (r *Runner) Interpolate(field interp.Field, pts interp.Points, out []float64) error {
	npt := pts.Count()
	if npt == 0 {
		return nil
	}
	d1d := r.Table.D1D
	np := d1d * d1d * d1d
	if len(pts.Ref) != 3*npt {
		panic(fmt.Sprintf("device: reference coordinate buffer has %d values, need %d", len(pts.Ref), 3*npt))
	}
	if len(field.Data) != field.Nel*field.Ncomp*np || len(field.Data) == 0 {
		panic(fmt.Sprintf("device: field buffer has %d values, need nel*ncomp*D1D^3 = %d",
			len(field.Data), field.Nel*field.Ncomp*np))
	}
	if len(out) != npt*field.Ncomp {
		panic(fmt.Sprintf("device: output buffer has %d values, need npt*ncomp = %d",
			len(out), npt*field.Ncomp))
	}

	gfMem := r.Device.Malloc(int64(len(field.Data)*8), unsafe.Pointer(&field.Data[0]), nil)
	defer gfMem.Free()
	elMem := r.Device.Malloc(int64(npt*4), unsafe.Pointer(&pts.Elems[0]), nil)
	defer elMem.Free()
	refMem := r.Device.Malloc(int64(3*npt*8), unsafe.Pointer(&pts.Ref[0]), nil)
	defer refMem.Free()
	outMem := r.Device.Malloc(int64(len(out)*8), nil, nil)
	defer outMem.Free()

	args := []interface{}{int32(npt), int32(field.Ncomp)}
	if r.generic {
		args = append(args, int32(d1d))
	}
	args = append(args, gfMem, elMem, refMem, r.gllMem, r.coefMem, outMem)

	if err := r.kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	r.Device.Finish()

	outMem.CopyTo(unsafe.Pointer(&out[0]), int64(len(out)*8))
	return nil
}

// Free releases the kernel and the table memory. The device itself
// belongs to the caller.
func (r *Runner) Free() {
	if r.kernel != nil {
		r.kernel.Free()
	}
	if r.gllMem != nil {
		r.gllMem.Free()
	}
	if r.coefMem != nil {
		r.coefMem.Free()
	}
}
