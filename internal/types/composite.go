package types

import "fmt"

// CompositeKind enumerates the definable type shapes.
type CompositeKind uint8

const (
	KindFunc CompositeKind = iota + 1
	KindArray
	KindStruct
)

func (k CompositeKind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("CompositeKind(%d)", uint8(k))
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ArrayType is an array definition.
type ArrayType struct {
	Elem FieldType
}

// StructType is a struct definition.
type StructType struct {
	Fields []FieldType
}

// CompositeType is the tagged union of the three definable shapes. Exactly
// the payload matching Kind is set.
type CompositeType struct {
	Kind   CompositeKind
	Func   *FuncType
	Array  *ArrayType
	Struct *StructType
}

// FuncComposite wraps a function signature as a composite type.
func FuncComposite(f *FuncType) CompositeType {
	return CompositeType{Kind: KindFunc, Func: f}
}

// ArrayComposite wraps an array definition as a composite type.
func ArrayComposite(a *ArrayType) CompositeType {
	return CompositeType{Kind: KindArray, Array: a}
}

// StructComposite wraps a struct definition as a composite type.
func StructComposite(s *StructType) CompositeType {
	return CompositeType{Kind: KindStruct, Struct: s}
}

// IsFunc reports whether the composite is a function signature.
func (c CompositeType) IsFunc() bool { return c.Kind == KindFunc }

// UnwrapFunc panics when the composite is not a function signature.
func (c CompositeType) UnwrapFunc() *FuncType {
	if c.Kind != KindFunc {
		panic(fmt.Sprintf("types: %v is not a function type", c.Kind))
	}
	return c.Func
}

// SubType is one entry in the canonical type section.
type SubType struct {
	Composite CompositeType
}
