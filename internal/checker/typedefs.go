package checker

import "fmt"

// UseKind distinguishes the two forms a type reference takes in checker
// output.
type UseKind uint8

const (
	// UseID references a type by the checker's own id.
	UseID UseKind = iota + 1
	// UseModuleIndex references a type by its position in the module's own
	// type-index space.
	UseModuleIndex
)

// TypeUse references another type from inside a body.
type TypeUse struct {
	Kind        UseKind
	ID          TypeID
	ModuleIndex uint32
}

// ByID builds a checker-native reference.
func ByID(id TypeID) TypeUse {
	return TypeUse{Kind: UseID, ID: id}
}

// ByModuleIndex builds a module-local reference.
func ByModuleIndex(idx uint32) TypeUse {
	return TypeUse{Kind: UseModuleIndex, ModuleIndex: idx}
}

func (u TypeUse) String() string {
	switch u.Kind {
	case UseID:
		return fmt.Sprintf("id:%d", u.ID)
	case UseModuleIndex:
		return fmt.Sprintf("module:%d", u.ModuleIndex)
	default:
		return fmt.Sprintf("UseKind(%d)", uint8(u.Kind))
	}
}

// HeapKind classifies reference targets on the checker side.
type HeapKind uint8

const (
	HeapExtern HeapKind = iota + 1
	HeapAny
	HeapFunc
	// HeapConcrete targets a specific definition named by a TypeUse.
	HeapConcrete
)

// HeapType is a checker-side reference target. Use is set only for
// HeapConcrete.
type HeapType struct {
	Kind HeapKind
	Use  TypeUse
}

// ConcreteHeap builds a heap type targeting a specific definition.
func ConcreteHeap(use TypeUse) HeapType {
	return HeapType{Kind: HeapConcrete, Use: use}
}

// RefType is a checker-side reference type.
type RefType struct {
	Nullable bool
	Heap     HeapType
}

// ValKind enumerates checker-side value type shapes.
type ValKind uint8

const (
	ValI32 ValKind = iota + 1
	ValI64
	ValF32
	ValF64
	ValRef
)

// ValType is a checker-side value type. Ref is set only when Kind is ValRef.
type ValType struct {
	Kind ValKind
	Ref  RefType
}

// I32 describes the 32-bit integer value type.
func I32() ValType { return ValType{Kind: ValI32} }

// I64 describes the 64-bit integer value type.
func I64() ValType { return ValType{Kind: ValI64} }

// F32 describes the 32-bit float value type.
func F32() ValType { return ValType{Kind: ValF32} }

// F64 describes the 64-bit float value type.
func F64() ValType { return ValType{Kind: ValF64} }

// Ref describes a reference value type.
func Ref(heap HeapType, nullable bool) ValType {
	return ValType{Kind: ValRef, Ref: RefType{Nullable: nullable, Heap: heap}}
}

// StorageKind enumerates checker-side field storage shapes.
type StorageKind uint8

const (
	StorageI8 StorageKind = iota + 1
	StorageI16
	StorageVal
)

// StorageType is checker-side element/field storage. Val is set only when
// Kind is StorageVal.
type StorageType struct {
	Kind StorageKind
	Val  ValType
}

// ValStorage wraps a value type as storage.
func ValStorage(v ValType) StorageType {
	return StorageType{Kind: StorageVal, Val: v}
}

// FieldType is one checker-side array element or struct field.
type FieldType struct {
	Elem    StorageType
	Mutable bool
}

// FuncType is a checker-side function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ArrayType is a checker-side array definition.
type ArrayType struct {
	Elem FieldType
}

// StructType is a checker-side struct definition.
type StructType struct {
	Fields []FieldType
}

// CompositeKind enumerates checker-side definable shapes.
type CompositeKind uint8

const (
	KindFunc CompositeKind = iota + 1
	KindArray
	KindStruct
)

// CompositeType is the checker-side tagged union of definable shapes.
type CompositeType struct {
	Kind   CompositeKind
	Func   *FuncType
	Array  *ArrayType
	Struct *StructType
}

// SubType is one uncanonicalized type definition as the checker produced it.
type SubType struct {
	Composite CompositeType
}

// Func builds a function sub type.
func Func(params, results []ValType) *SubType {
	return &SubType{Composite: CompositeType{
		Kind: KindFunc,
		Func: &FuncType{Params: params, Results: results},
	}}
}

// Array builds an array sub type.
func Array(elem FieldType) *SubType {
	return &SubType{Composite: CompositeType{
		Kind:  KindArray,
		Array: &ArrayType{Elem: elem},
	}}
}

// Struct builds a struct sub type.
func Struct(fields ...FieldType) *SubType {
	return &SubType{Composite: CompositeType{
		Kind:   KindStruct,
		Struct: &StructType{Fields: fields},
	}}
}
