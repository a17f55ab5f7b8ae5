// Package op implements the declarative operator-registration mechanism
// shared by all custom kernels.
//
// An operator is described once: name, ordered input/output slots, typed
// attributes, a shape-inference rule, a dtype-inference rule and a compute
// kernel. The host framework calls the inference rules independently of the
// kernel (potentially before any memory is allocated) to build its execution
// graph, so both rules must be pure and must never touch tensor data.
package op

import (
	"fmt"

	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// InferShapeFunc computes output shapes from input shapes and attributes.
// It must be side-effect-free and must not read tensor data. Optional input
// slots that are absent are passed as nil shapes.
type InferShapeFunc func(inputs []tensor.Shape, attrs Attrs) ([]tensor.Shape, error)

// InferDtypeFunc computes output dtypes from input dtypes and attributes.
// Same purity requirements as InferShapeFunc. Absent optional inputs are
// passed as AbsentDType.
type InferDtypeFunc func(inputs []tensor.DataType, attrs Attrs) ([]tensor.DataType, error)

// AbsentDType marks an absent optional input slot in dtype inference.
const AbsentDType tensor.DataType = -1

// KernelFunc executes the operator. Inputs are read-only for the duration of
// the call; the kernel allocates exactly the outputs the descriptor
// declares. Absent optional inputs are passed as nil.
type KernelFunc func(inputs []*tensor.RawTensor, attrs Attrs) ([]*tensor.RawTensor, error)

// Descriptor is the static declaration of one operator.
//
// Inputs lists the required slots; OptionalInputs follow them in order.
// Invocations pass a tensor slice of length len(Inputs)+len(OptionalInputs),
// with nil in absent optional positions.
type Descriptor struct {
	Name           string
	Inputs         []string
	OptionalInputs []string
	Outputs        []string
	Attrs          []AttrSpec

	InferShape InferShapeFunc
	InferDtype InferDtypeFunc
	Kernel     KernelFunc
}

// NumSlots returns the total number of input slots, required and optional.
func (d *Descriptor) NumSlots() int {
	return len(d.Inputs) + len(d.OptionalInputs)
}

// SlotName returns the name of input slot i.
func (d *Descriptor) SlotName(i int) string {
	if i < len(d.Inputs) {
		return d.Inputs[i]
	}
	return d.OptionalInputs[i-len(d.Inputs)]
}

// Validate checks that the descriptor is structurally complete.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if len(d.Inputs) == 0 {
		return fmt.Errorf("%s: descriptor declares no inputs", d.Name)
	}
	if len(d.Outputs) == 0 {
		return fmt.Errorf("%s: descriptor declares no outputs", d.Name)
	}
	if d.InferShape == nil || d.InferDtype == nil || d.Kernel == nil {
		return fmt.Errorf("%s: descriptor must bind shape rule, dtype rule and kernel", d.Name)
	}
	seen := make(map[string]bool, d.NumSlots()+len(d.Outputs))
	for i := 0; i < d.NumSlots(); i++ {
		name := d.SlotName(i)
		if seen[name] {
			return fmt.Errorf("%s: duplicate input slot %q", d.Name, name)
		}
		seen[name] = true
	}
	for _, name := range d.Outputs {
		if seen[name] {
			return fmt.Errorf("%s: output slot %q collides with another slot", d.Name, name)
		}
		seen[name] = true
	}
	return nil
}
