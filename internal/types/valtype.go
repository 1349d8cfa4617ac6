package types

import "fmt"

// RefScope says which registry owns a concrete type reference.
type RefScope uint8

const (
	// ScopeModule means the referenced type is interned in the module
	// currently being compiled.
	ScopeModule RefScope = iota + 1
	// ScopeEngine means the referenced type lives in the host engine's
	// shared registry.
	ScopeEngine
)

func (s RefScope) String() string {
	switch s {
	case ScopeModule:
		return "module"
	case ScopeEngine:
		return "engine"
	default:
		return fmt.Sprintf("RefScope(%d)", uint8(s))
	}
}

// TypeRef points at a concrete type definition, either one interned in the
// module being compiled or one registered with the host engine. Index holds
// a ModuleTypeIndex or an EngineTypeIndex depending on Scope.
type TypeRef struct {
	Scope RefScope
	Index uint32
}

// ModuleRef builds a reference to a module-interned type.
func ModuleRef(idx ModuleTypeIndex) TypeRef {
	return TypeRef{Scope: ScopeModule, Index: uint32(idx)}
}

// EngineRef builds a reference to an engine-registered type.
func EngineRef(idx EngineTypeIndex) TypeRef {
	return TypeRef{Scope: ScopeEngine, Index: uint32(idx)}
}

// Module returns the module-interned index, if this reference is
// module-scoped.
func (r TypeRef) Module() (ModuleTypeIndex, bool) {
	if r.Scope != ScopeModule {
		return NoModuleTypeIndex, false
	}
	return ModuleTypeIndex(r.Index), true
}

// MustModule panics when the reference is not module-scoped.
func (r TypeRef) MustModule() ModuleTypeIndex {
	idx, ok := r.Module()
	if !ok {
		panic(fmt.Sprintf("types: %v is not a module-scoped reference", r))
	}
	return idx
}

func (r TypeRef) String() string {
	return fmt.Sprintf("%v:%d", r.Scope, r.Index)
}

// HeapKind classifies the target of a reference type.
type HeapKind uint8

const (
	HeapExtern HeapKind = iota + 1
	HeapAny
	HeapFunc
	HeapConcreteFunc
	HeapConcreteArray
	HeapConcreteStruct
)

func (k HeapKind) String() string {
	switch k {
	case HeapExtern:
		return "extern"
	case HeapAny:
		return "any"
	case HeapFunc:
		return "func"
	case HeapConcreteFunc:
		return "concrete-func"
	case HeapConcreteArray:
		return "concrete-array"
	case HeapConcreteStruct:
		return "concrete-struct"
	default:
		return fmt.Sprintf("HeapKind(%d)", uint8(k))
	}
}

// HeapType is the target of a reference type. Ref is set only for the
// concrete kinds.
type HeapType struct {
	Kind HeapKind
	Ref  TypeRef
}

// Concrete reports whether the heap type points at a specific definition.
func (h HeapType) Concrete() bool {
	switch h.Kind {
	case HeapConcreteFunc, HeapConcreteArray, HeapConcreteStruct:
		return true
	case HeapExtern, HeapAny, HeapFunc:
		return false
	default:
		panic(fmt.Sprintf("types: bad heap kind %v", h.Kind))
	}
}

// Top returns the abstract top of the heap type's hierarchy.
func (h HeapType) Top() HeapType {
	switch h.Kind {
	case HeapExtern:
		return HeapType{Kind: HeapExtern}
	case HeapFunc, HeapConcreteFunc:
		return HeapType{Kind: HeapFunc}
	case HeapAny, HeapConcreteArray, HeapConcreteStruct:
		return HeapType{Kind: HeapAny}
	default:
		panic(fmt.Sprintf("types: bad heap kind %v", h.Kind))
	}
}

// RefType is a possibly nullable reference to a heap type.
type RefType struct {
	Nullable bool
	Heap     HeapType
}

// ValKind enumerates the value type shapes.
type ValKind uint8

const (
	ValI32 ValKind = iota + 1
	ValI64
	ValF32
	ValF64
	ValRef
)

func (k ValKind) String() string {
	switch k {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValRef:
		return "ref"
	default:
		return fmt.Sprintf("ValKind(%d)", uint8(k))
	}
}

// ValType is one parameter, result, or element type. Ref is set only when
// Kind is ValRef.
type ValType struct {
	Kind ValKind
	Ref  RefType
}

// MakeRef describes a reference value type.
func MakeRef(heap HeapType, nullable bool) ValType {
	return ValType{Kind: ValRef, Ref: RefType{Nullable: nullable, Heap: heap}}
}

// IsRef reports whether the value type is a reference.
func (v ValType) IsRef() bool { return v.Kind == ValRef }

// StorageKind enumerates field storage shapes: packed 8/16-bit integers or a
// full value type.
type StorageKind uint8

const (
	StorageI8 StorageKind = iota + 1
	StorageI16
	StorageVal
)

// StorageType is how one array element or struct field is stored. Val is set
// only when Kind is StorageVal.
type StorageType struct {
	Kind StorageKind
	Val  ValType
}

// ValStorage wraps a value type as a storage type.
func ValStorage(v ValType) StorageType {
	return StorageType{Kind: StorageVal, Val: v}
}

// FieldType is one array element or struct field.
type FieldType struct {
	Elem    StorageType
	Mutable bool
}
