package types

import (
	"fmt"

	"fortio.org/safecast"
)

// ModuleTypeIndex identifies one canonicalized type inside the module's
// deduplicated type section. Indices are assigned once, never reused.
type ModuleTypeIndex uint32

// NoModuleTypeIndex marks the absence of a canonical type.
const NoModuleTypeIndex = ModuleTypeIndex(^uint32(0))

func (i ModuleTypeIndex) String() string {
	if i == NoModuleTypeIndex {
		return "type[none]"
	}
	return fmt.Sprintf("type[%d]", uint32(i))
}

// RecGroupIndex identifies one canonicalized recursion group.
type RecGroupIndex uint32

// NoRecGroupIndex marks the absence of a canonical recursion group.
const NoRecGroupIndex = RecGroupIndex(^uint32(0))

func (i RecGroupIndex) String() string {
	if i == NoRecGroupIndex {
		return "recgroup[none]"
	}
	return fmt.Sprintf("recgroup[%d]", uint32(i))
}

// EngineTypeIndex identifies a type registered with the host engine rather
// than interned in the module being compiled. The compile side never
// allocates these; the representation exists so module-owned and host-owned
// references share one shape.
type EngineTypeIndex uint32

func typeIndexOf(n int) ModuleTypeIndex {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type index overflow: %w", err))
	}
	return ModuleTypeIndex(v)
}

func recGroupIndexOf(n int) RecGroupIndex {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("rec group index overflow: %w", err))
	}
	return RecGroupIndex(v)
}
