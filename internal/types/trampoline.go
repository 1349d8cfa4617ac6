package types

// TrampolineType derives the ABI-normalized signature used when calling f
// through a trampoline: every reference-typed parameter and result widens to
// a nullable reference to its top heap type, so signatures that differ only
// in which concrete type they reference share one calling shape.
//
// The bool reports whether the derived signature differs from f. When it is
// false the returned pointer is f itself, and f is its own trampoline.
func (f *FuncType) TrampolineType() (*FuncType, bool) {
	changed := false
	params := normalizeVals(f.Params, &changed)
	results := normalizeVals(f.Results, &changed)
	if !changed {
		return f, false
	}
	return &FuncType{Params: params, Results: results}, true
}

func normalizeVals(vs []ValType, changed *bool) []ValType {
	out := make([]ValType, len(vs))
	for i, v := range vs {
		out[i] = normalizeVal(v, changed)
	}
	return out
}

func normalizeVal(v ValType, changed *bool) ValType {
	if v.Kind != ValRef {
		return v
	}
	top := v.Ref.Heap.Top()
	if v.Ref.Nullable && top == v.Ref.Heap {
		return v
	}
	*changed = true
	return MakeRef(top, true)
}
