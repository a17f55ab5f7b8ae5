package op

import (
	"fmt"

	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// Registry maps operator names to their descriptors. It performs no
// computation itself; it is the metadata table the host framework consults
// for shape/dtype inference and kernel dispatch.
type Registry struct {
	descriptors map[string]*Descriptor
	cfg         Config
}

// NewRegistry creates an empty operator registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
		cfg:         cfg,
	}
}

// Config returns the registry's execution config.
func (r *Registry) Config() Config {
	return r.cfg
}

// Register adds a descriptor. Registering an incomplete descriptor or a
// duplicate name is a programming error and fails immediately.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if _, exists := r.descriptors[d.Name]; exists {
		return fmt.Errorf("register: operator %q already registered", d.Name)
	}
	r.descriptors[d.Name] = d
	r.cfg.Logger.Debug().
		Str("op", d.Name).
		Strs("inputs", d.Inputs).
		Strs("outputs", d.Outputs).
		Msg("registered operator")
	return nil
}

// Get returns the descriptor for an operator name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Operators returns the names of all registered operators.
func (r *Registry) Operators() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	return names
}

// InferShape runs the operator's shape rule. Callable without tensor data.
func (r *Registry) InferShape(name string, inputs []tensor.Shape, attrs Attrs) ([]tensor.Shape, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return nil, Errorf(name, "", ErrUnknownOperator, "not registered")
	}
	if err := r.checkArity(d, len(inputs)); err != nil {
		return nil, err
	}
	return d.InferShape(inputs, attrs)
}

// InferDtype runs the operator's dtype rule. Callable without tensor data.
func (r *Registry) InferDtype(name string, inputs []tensor.DataType, attrs Attrs) ([]tensor.DataType, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return nil, Errorf(name, "", ErrUnknownOperator, "not registered")
	}
	if err := r.checkArity(d, len(inputs)); err != nil {
		return nil, err
	}
	return d.InferDtype(inputs, attrs)
}

// Execute runs the operator's kernel after arity validation. Required slots
// must be non-nil; optional slots may be nil. On failure no outputs are
// produced.
func (r *Registry) Execute(name string, inputs []*tensor.RawTensor, attrs Attrs) ([]*tensor.RawTensor, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return nil, Errorf(name, "", ErrUnknownOperator, "not registered")
	}
	if err := r.checkArity(d, len(inputs)); err != nil {
		return nil, err
	}
	for i, in := range inputs[:len(d.Inputs)] {
		if in == nil {
			return nil, Errorf(name, d.SlotName(i), ErrInvalidArity, "required input is nil")
		}
	}
	outputs, err := d.Kernel(inputs, attrs)
	if err != nil {
		r.cfg.Logger.Error().Str("op", name).Err(err).Msg("kernel failed")
		return nil, err
	}
	if len(outputs) != len(d.Outputs) {
		return nil, fmt.Errorf("%s: kernel produced %d outputs, descriptor declares %d",
			name, len(outputs), len(d.Outputs))
	}
	return outputs, nil
}

// checkArity validates the invocation slot count against the descriptor.
func (r *Registry) checkArity(d *Descriptor, got int) error {
	if got != d.NumSlots() {
		return Errorf(d.Name, "", ErrInvalidArity,
			"got %d input slots, operator declares %d (%d required + %d optional)",
			got, d.NumSlots(), len(d.Inputs), len(d.OptionalInputs))
	}
	return nil
}
