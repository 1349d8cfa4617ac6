package testkit

import (
	"fmt"

	"wavec/internal/types"
)

// CheckStoreInvariants runs structural invariants on a finished type store:
// 1) every rec-group range is within bounds with Start <= End
// 2) every function type has a trampoline, pointing at a function type that
//    is its own trampoline
// 3) non-function types have no trampoline
func CheckStoreInvariants(mt *types.ModuleTypes) error {
	if mt == nil {
		return fmt.Errorf("nil store")
	}

	n := mt.LenTypes()
	for _, r := range mt.RecGroups() {
		if r.Start > r.End {
			return fmt.Errorf("inverted rec group range %v", r)
		}
		if int(r.End) > n {
			return fmt.Errorf("rec group range %v beyond %d defined types", r, n)
		}
	}

	trampolineOf := make(map[types.ModuleTypeIndex]types.ModuleTypeIndex)
	for _, p := range mt.TrampolinePairs() {
		trampolineOf[p.Func] = p.Trampoline
	}

	for i := 0; i < n; i++ {
		idx := types.ModuleTypeIndex(i)
		st := mt.MustType(idx)
		tr, hasTr := trampolineOf[idx]
		if !st.Composite.IsFunc() {
			if hasTr {
				return fmt.Errorf("non-function %v has trampoline %v", idx, tr)
			}
			continue
		}
		if !hasTr {
			return fmt.Errorf("function %v has no trampoline", idx)
		}
		trSub, ok := mt.Get(tr)
		if !ok || !trSub.Composite.IsFunc() {
			return fmt.Errorf("trampoline %v of %v is not a defined function type", tr, idx)
		}
		if trampolineOf[tr] != tr {
			return fmt.Errorf("trampoline %v of %v is not its own trampoline", tr, idx)
		}
	}
	return nil
}
