package intern

import (
	"fmt"

	"wavec/internal/checker"
	"wavec/internal/types"
)

// typeConverter translates one checker-side type body into canonical form,
// resolving every embedded type reference to a canonical index and a
// concrete array/func/struct classification.
//
// Classification is two-tier: a reference into an earlier, already-closed
// group is answered by the canonical store; a forward or self reference
// within the group currently being filled has no canonical body yet and is
// answered from the checker-side definition instead, through the active
// group context. A reference that neither tier can answer is a
// desynchronization between checker and interner and faults.
type typeConverter struct {
	in *Interner

	// moduleTypes maps module-local type indices to canonical indices. It is
	// supplied by the caller and, together with the eager reservation, keeps
	// module-local references resolvable even for members not yet converted.
	moduleTypes []types.ModuleTypeIndex

	// Active rec group context, set while converting the bodies of a group
	// still being filled.
	groupView checker.View
	groupID   checker.RecGroupID
	inGroup   bool
}

func newTypeConverter(in *Interner, moduleTypes []types.ModuleTypeIndex) *typeConverter {
	return &typeConverter{in: in, moduleTypes: moduleTypes}
}

// withRecGroup configures the converter to be within the context of defining
// the given rec group.
func (c *typeConverter) withRecGroup(view checker.View, g checker.RecGroupID) *typeConverter {
	c.groupView = view
	c.groupID = g
	c.inGroup = true
	return c
}

func (c *typeConverter) convertSubType(st *checker.SubType) (types.SubType, error) {
	comp, err := c.convertComposite(st.Composite)
	if err != nil {
		return types.SubType{}, err
	}
	return types.SubType{Composite: comp}, nil
}

func (c *typeConverter) convertComposite(src checker.CompositeType) (types.CompositeType, error) {
	switch src.Kind {
	case checker.KindFunc:
		f, err := c.convertFuncType(src.Func)
		if err != nil {
			return types.CompositeType{}, err
		}
		return types.FuncComposite(f), nil
	case checker.KindArray:
		elem, err := c.convertFieldType(src.Array.Elem)
		if err != nil {
			return types.CompositeType{}, err
		}
		return types.ArrayComposite(&types.ArrayType{Elem: elem}), nil
	case checker.KindStruct:
		fields := make([]types.FieldType, len(src.Struct.Fields))
		for i, f := range src.Struct.Fields {
			ft, err := c.convertFieldType(f)
			if err != nil {
				return types.CompositeType{}, err
			}
			fields[i] = ft
		}
		return types.StructComposite(&types.StructType{Fields: fields}), nil
	default:
		return types.CompositeType{}, fmt.Errorf("%w: composite kind %d", ErrMalformedType, src.Kind)
	}
}

func (c *typeConverter) convertFuncType(src *checker.FuncType) (*types.FuncType, error) {
	params, err := c.convertValTypes(src.Params)
	if err != nil {
		return nil, err
	}
	results, err := c.convertValTypes(src.Results)
	if err != nil {
		return nil, err
	}
	return &types.FuncType{Params: params, Results: results}, nil
}

func (c *typeConverter) convertValTypes(src []checker.ValType) ([]types.ValType, error) {
	out := make([]types.ValType, len(src))
	for i, v := range src {
		cv, err := c.convertValType(v)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

func (c *typeConverter) convertValType(v checker.ValType) (types.ValType, error) {
	switch v.Kind {
	case checker.ValI32:
		return types.ValType{Kind: types.ValI32}, nil
	case checker.ValI64:
		return types.ValType{Kind: types.ValI64}, nil
	case checker.ValF32:
		return types.ValType{Kind: types.ValF32}, nil
	case checker.ValF64:
		return types.ValType{Kind: types.ValF64}, nil
	case checker.ValRef:
		heap, err := c.lookupHeapType(v.Ref.Heap)
		if err != nil {
			return types.ValType{}, err
		}
		return types.MakeRef(heap, v.Ref.Nullable), nil
	default:
		return types.ValType{}, fmt.Errorf("%w: value kind %d", ErrMalformedType, v.Kind)
	}
}

func (c *typeConverter) convertFieldType(f checker.FieldType) (types.FieldType, error) {
	elem, err := c.convertStorageType(f.Elem)
	if err != nil {
		return types.FieldType{}, err
	}
	return types.FieldType{Elem: elem, Mutable: f.Mutable}, nil
}

func (c *typeConverter) convertStorageType(s checker.StorageType) (types.StorageType, error) {
	switch s.Kind {
	case checker.StorageI8:
		return types.StorageType{Kind: types.StorageI8}, nil
	case checker.StorageI16:
		return types.StorageType{Kind: types.StorageI16}, nil
	case checker.StorageVal:
		v, err := c.convertValType(s.Val)
		if err != nil {
			return types.StorageType{}, err
		}
		return types.ValStorage(v), nil
	default:
		return types.StorageType{}, fmt.Errorf("%w: storage kind %d", ErrMalformedType, s.Kind)
	}
}

// lookupHeapType resolves a checker-side reference target to its canonical
// form, classifying concrete targets as array, func, or struct.
func (c *typeConverter) lookupHeapType(h checker.HeapType) (types.HeapType, error) {
	switch h.Kind {
	case checker.HeapExtern:
		return types.HeapType{Kind: types.HeapExtern}, nil
	case checker.HeapAny:
		return types.HeapType{Kind: types.HeapAny}, nil
	case checker.HeapFunc:
		return types.HeapType{Kind: types.HeapFunc}, nil
	case checker.HeapConcrete:
		return c.resolveTypeUse(h.Use)
	default:
		return types.HeapType{}, fmt.Errorf("%w: heap kind %d", ErrMalformedType, h.Kind)
	}
}

func (c *typeConverter) resolveTypeUse(use checker.TypeUse) (types.HeapType, error) {
	switch use.Kind {
	case checker.UseID:
		interned, ok := c.in.typeIndex[use.ID]
		if !ok {
			panic(fmt.Sprintf("intern: reference to checker type %d that was never reserved", use.ID))
		}
		kind, err := c.classifyByID(interned, use.ID)
		if err != nil {
			return types.HeapType{}, err
		}
		return concreteHeap(kind, types.ModuleRef(interned)), nil

	case checker.UseModuleIndex:
		if int(use.ModuleIndex) >= len(c.moduleTypes) {
			return types.HeapType{}, fmt.Errorf("%w: %d (table covers %d types)",
				ErrTypeIndexOutOfRange, use.ModuleIndex, len(c.moduleTypes))
		}
		interned := c.moduleTypes[use.ModuleIndex]
		kind, err := c.classifyByPosition(interned)
		if err != nil {
			return types.HeapType{}, err
		}
		return concreteHeap(kind, types.ModuleRef(interned)), nil

	default:
		return types.HeapType{}, fmt.Errorf("%w: type use kind %d", ErrMalformedType, use.Kind)
	}
}

// classifyByID determines whether interned is a func, array, or struct. If
// its body is already in the store it answers directly; otherwise this must
// be a forward or self reference within the active group and the
// checker-side definition answers instead.
func (c *typeConverter) classifyByID(interned types.ModuleTypeIndex, id checker.TypeID) (types.CompositeKind, error) {
	if st, ok := c.in.store.Get(interned); ok {
		return st.Composite.Kind, nil
	}
	if c.inGroup {
		return sourceCompositeKind(c.groupView.SubType(id).Composite)
	}
	panic(fmt.Sprintf("intern: reference to %v outside both the store and the active rec group", interned))
}

// classifyByPosition is classifyByID for module-local references, where no
// checker id is on hand: the member's id is recovered by its position within
// the active group's reserved range.
func (c *typeConverter) classifyByPosition(interned types.ModuleTypeIndex) (types.CompositeKind, error) {
	if st, ok := c.in.store.Get(interned); ok {
		return st.Composite.Kind, nil
	}
	if c.inGroup {
		// Position is relative to the reservation start, not the store's
		// current length: earlier members of this group are already pushed
		// by the time later bodies convert.
		pos := int(interned) - int(c.in.pending.start)
		members := c.groupView.RecGroupMembers(c.groupID)
		if pos < 0 || pos >= len(members) {
			panic(fmt.Sprintf("intern: module-local reference to %v outside the active rec group", interned))
		}
		return sourceCompositeKind(c.groupView.SubType(members[pos]).Composite)
	}
	panic(fmt.Sprintf("intern: reference to %v outside both the store and the active rec group", interned))
}

func sourceCompositeKind(src checker.CompositeType) (types.CompositeKind, error) {
	switch src.Kind {
	case checker.KindFunc:
		return types.KindFunc, nil
	case checker.KindArray:
		return types.KindArray, nil
	case checker.KindStruct:
		return types.KindStruct, nil
	default:
		return 0, fmt.Errorf("%w: composite kind %d", ErrMalformedType, src.Kind)
	}
}

func concreteHeap(kind types.CompositeKind, ref types.TypeRef) types.HeapType {
	switch kind {
	case types.KindFunc:
		return types.HeapType{Kind: types.HeapConcreteFunc, Ref: ref}
	case types.KindArray:
		return types.HeapType{Kind: types.HeapConcreteArray, Ref: ref}
	case types.KindStruct:
		return types.HeapType{Kind: types.HeapConcreteStruct, Ref: ref}
	default:
		panic(fmt.Sprintf("intern: bad composite kind %v", kind))
	}
}
