package op

// AttrType identifies the scalar type of an operator attribute.
type AttrType int

// Supported attribute types.
const (
	AttrFloat AttrType = iota
	AttrBool
	AttrInt
	AttrString
)

// String returns a human-readable attribute type name.
func (t AttrType) String() string {
	switch t {
	case AttrFloat:
		return "float"
	case AttrBool:
		return "bool"
	case AttrInt:
		return "int"
	case AttrString:
		return "string"
	default:
		return "unknown"
	}
}

// AttrSpec declares one typed attribute slot of an operator.
type AttrSpec struct {
	Name string
	Type AttrType
}

// Attrs carries the attribute values of a single operator invocation.
// Values are plain scalars; typed access validates against the declared
// domain and reports ErrInvalidAttribute on mismatch.
type Attrs map[string]any

// Float returns a float32 attribute.
func (a Attrs) Float(opName, name string) (float32, error) {
	v, ok := a[name]
	if !ok {
		return 0, Errorf(opName, "", ErrInvalidAttribute, "attribute %q not set", name)
	}
	f, ok := v.(float32)
	if !ok {
		return 0, Errorf(opName, "", ErrInvalidAttribute, "attribute %q is %T, want float32", name, v)
	}
	return f, nil
}

// Bool returns a bool attribute.
func (a Attrs) Bool(opName, name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, Errorf(opName, "", ErrInvalidAttribute, "attribute %q not set", name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, Errorf(opName, "", ErrInvalidAttribute, "attribute %q is %T, want bool", name, v)
	}
	return b, nil
}

// Int returns an int attribute.
func (a Attrs) Int(opName, name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, Errorf(opName, "", ErrInvalidAttribute, "attribute %q not set", name)
	}
	i, ok := v.(int)
	if !ok {
		return 0, Errorf(opName, "", ErrInvalidAttribute, "attribute %q is %T, want int", name, v)
	}
	return i, nil
}

// String returns a string attribute.
func (a Attrs) String(opName, name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", Errorf(opName, "", ErrInvalidAttribute, "attribute %q not set", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", Errorf(opName, "", ErrInvalidAttribute, "attribute %q is %T, want string", name, v)
	}
	return s, nil
}
