package intern

import (
	"bytes"
	"errors"
	"testing"

	"wavec/internal/checker"
	"wavec/internal/testkit"
	"wavec/internal/trace"
	"wavec/internal/types"
)

func scalarFuncBody() *checker.SubType {
	return checker.Func([]checker.ValType{checker.I32()}, []checker.ValType{checker.I64()})
}

func structBody() *checker.SubType {
	return checker.Struct(checker.FieldType{Elem: checker.ValStorage(checker.F64())})
}

func arrayBody() *checker.SubType {
	return checker.Array(checker.FieldType{Elem: checker.ValStorage(checker.I32()), Mutable: true})
}

func refParamFunc(use checker.TypeUse) *checker.SubType {
	return checker.Func(
		[]checker.ValType{checker.Ref(checker.ConcreteHeap(use), false)},
		nil,
	)
}

func TestInternRecGroupIdempotent(t *testing.T) {
	s := testkit.NewSession()
	g := s.AddRecGroup(scalarFuncBody())
	in := NewInterner(s)

	first, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	lenAfterFirst := in.LenTypes()

	second, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("re-intern failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached group index %v, got %v", first, second)
	}
	if in.LenTypes() != lenAfterFirst {
		t.Fatalf("second intern grew the store: %d -> %d", lenAfterFirst, in.LenTypes())
	}
}

func TestRecGroupContiguity(t *testing.T) {
	s := testkit.NewSession()
	g := s.AddRecGroup(scalarFuncBody(), structBody(), arrayBody())
	in := NewInterner(s)

	idx, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	members := in.RecGroupMembers(idx)
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	for i, m := range members {
		if m != members[0]+types.ModuleTypeIndex(i) {
			t.Fatalf("members not contiguous: %v", members)
		}
	}
	wantKinds := []types.CompositeKind{types.KindFunc, types.KindStruct, types.KindArray}
	for i, m := range members {
		if got := in.MustType(m).Composite.Kind; got != wantKinds[i] {
			t.Fatalf("member %d: expected %v, got %v", i, wantKinds[i], got)
		}
	}

	if err := testkit.CheckStoreInvariants(in.Finish()); err != nil {
		t.Fatalf("store invariants violated: %v", err)
	}
}

func TestForwardReferenceClassification(t *testing.T) {
	s := testkit.NewSession()
	funcID := s.NextTypeID()
	structID := funcID + 1
	// Member 0 references member 1 before it is converted; member 1
	// references member 0 back.
	g := s.AddRecGroup(
		refParamFunc(checker.ByID(structID)),
		checker.Struct(checker.FieldType{
			Elem: checker.ValStorage(checker.Ref(checker.ConcreteHeap(checker.ByID(funcID)), true)),
		}),
	)
	in := NewInterner(s)

	idx, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	members := in.RecGroupMembers(idx)

	param := in.MustType(members[0]).Composite.Func.Params[0]
	if param.Ref.Heap.Kind != types.HeapConcreteStruct {
		t.Fatalf("forward reference misclassified: %v", param.Ref.Heap.Kind)
	}
	if got := param.Ref.Heap.Ref.MustModule(); got != members[1] {
		t.Fatalf("forward reference resolved to %v, want %v", got, members[1])
	}

	field := in.MustType(members[1]).Composite.Struct.Fields[0]
	if field.Elem.Val.Ref.Heap.Kind != types.HeapConcreteFunc {
		t.Fatalf("back reference misclassified: %v", field.Elem.Val.Ref.Heap.Kind)
	}
	if got := field.Elem.Val.Ref.Heap.Ref.MustModule(); got != members[0] {
		t.Fatalf("back reference resolved to %v, want %v", got, members[0])
	}
}

func TestModuleLocalForwardReference(t *testing.T) {
	s := testkit.NewSession()
	// Fresh interner, so the group's members will occupy indices 0 and 1.
	moduleTypes := []types.ModuleTypeIndex{0, 1}
	g := s.AddRecGroup(
		refParamFunc(checker.ByModuleIndex(1)),
		checker.Struct(
			checker.FieldType{Elem: checker.ValStorage(checker.Ref(checker.ConcreteHeap(checker.ByModuleIndex(0)), true))},
			// Self reference through the module-local index space, resolved
			// while this very member is being converted.
			checker.FieldType{Elem: checker.ValStorage(checker.Ref(checker.ConcreteHeap(checker.ByModuleIndex(1)), true))},
		),
	)
	in := NewInterner(s)

	idx, err := in.InternRecGroup(s, moduleTypes, g)
	if err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	members := in.RecGroupMembers(idx)

	param := in.MustType(members[0]).Composite.Func.Params[0]
	if param.Ref.Heap.Kind != types.HeapConcreteStruct || param.Ref.Heap.Ref.MustModule() != members[1] {
		t.Fatalf("module-local forward reference misresolved: %+v", param.Ref.Heap)
	}

	fields := in.MustType(members[1]).Composite.Struct.Fields
	if fields[0].Elem.Val.Ref.Heap.Kind != types.HeapConcreteFunc {
		t.Fatalf("module-local back reference misclassified: %v", fields[0].Elem.Val.Ref.Heap.Kind)
	}
	if fields[1].Elem.Val.Ref.Heap.Kind != types.HeapConcreteStruct {
		t.Fatalf("module-local self reference misclassified: %v", fields[1].Elem.Val.Ref.Heap.Kind)
	}
	if fields[1].Elem.Val.Ref.Heap.Ref.MustModule() != members[1] {
		t.Fatalf("module-local self reference misresolved")
	}
}

func TestCrossGroupReference(t *testing.T) {
	s := testkit.NewSession()
	structID := s.NextTypeID()
	gA := s.AddRecGroup(structBody())
	in := NewInterner(s)

	aIdx, err := in.InternRecGroup(s, nil, gA)
	if err != nil {
		t.Fatalf("intern group A failed: %v", err)
	}
	structIdx := in.RecGroupMembers(aIdx)[0]

	// Group B references group A's member both by checker id and by
	// module-local index; both take the finished-store path.
	gB := s.AddRecGroup(
		refParamFunc(checker.ByID(structID)),
		checker.Array(checker.FieldType{
			Elem: checker.ValStorage(checker.Ref(checker.ConcreteHeap(checker.ByModuleIndex(0)), false)),
		}),
	)
	bIdx, err := in.InternRecGroup(s, []types.ModuleTypeIndex{structIdx}, gB)
	if err != nil {
		t.Fatalf("intern group B failed: %v", err)
	}
	members := in.RecGroupMembers(bIdx)

	param := in.MustType(members[0]).Composite.Func.Params[0]
	if param.Ref.Heap.Kind != types.HeapConcreteStruct || param.Ref.Heap.Ref.MustModule() != structIdx {
		t.Fatalf("cross-group id reference misresolved: %+v", param.Ref.Heap)
	}
	elem := in.MustType(members[1]).Composite.Array.Elem
	if elem.Elem.Val.Ref.Heap.Kind != types.HeapConcreteStruct || elem.Elem.Val.Ref.Heap.Ref.MustModule() != structIdx {
		t.Fatalf("cross-group module-local reference misresolved: %+v", elem.Elem.Val.Ref.Heap)
	}
}

func TestTrampolineIdentityLaw(t *testing.T) {
	s := testkit.NewSession()
	structID := s.NextTypeID()
	g := s.AddRecGroup(structBody(), refParamFunc(checker.ByID(structID)), scalarFuncBody())
	in := NewInterner(s)

	idx, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	members := in.RecGroupMembers(idx)
	refFunc, scalar := members[1], members[2]

	// A signature that is already ABI-normalized is its own trampoline.
	if tr := in.TrampolineType(scalar); tr != scalar {
		t.Fatalf("scalar signature should be its own trampoline, got %v", tr)
	}

	// One that is not gets a distinct trampoline, and trampolines are fixed
	// points.
	tr := in.TrampolineType(refFunc)
	if tr == refFunc {
		t.Fatalf("concrete-ref signature should not be its own trampoline")
	}
	if in.TrampolineType(tr) != tr {
		t.Fatalf("trampoline is not a fixed point")
	}

	if err := testkit.CheckStoreInvariants(in.Finish()); err != nil {
		t.Fatalf("store invariants violated: %v", err)
	}
}

func TestTrampolineSharing(t *testing.T) {
	s := testkit.NewSession()
	structA := s.NextTypeID()
	gA := s.AddRecGroup(structBody(), refParamFunc(checker.ByID(structA)))
	structB := s.NextTypeID()
	gB := s.AddRecGroup(structBody(), refParamFunc(checker.ByID(structB)))
	in := NewInterner(s)

	aIdx, err := in.InternRecGroup(s, nil, gA)
	if err != nil {
		t.Fatalf("intern group A failed: %v", err)
	}
	bIdx, err := in.InternRecGroup(s, nil, gB)
	if err != nil {
		t.Fatalf("intern group B failed: %v", err)
	}

	funcA := in.RecGroupMembers(aIdx)[1]
	funcB := in.RecGroupMembers(bIdx)[1]
	if funcA == funcB {
		t.Fatalf("distinct groups must not share member indices")
	}
	// Both signatures normalize to the same shape, so they share one
	// trampoline definition.
	if in.TrampolineType(funcA) != in.TrampolineType(funcB) {
		t.Fatalf("normalized-equal signatures must share a trampoline")
	}
}

func TestIdenticalGroupsStayDistinct(t *testing.T) {
	s := testkit.NewSession()
	gA := s.AddRecGroup(scalarFuncBody())
	gB := s.AddRecGroup(scalarFuncBody())
	in := NewInterner(s)

	aIdx, err := in.InternRecGroup(s, nil, gA)
	if err != nil {
		t.Fatalf("intern group A failed: %v", err)
	}
	bIdx, err := in.InternRecGroup(s, nil, gB)
	if err != nil {
		t.Fatalf("intern group B failed: %v", err)
	}
	// Group deduplication is by checker identity, not structure.
	if aIdx == bIdx {
		t.Fatalf("structurally equal groups with distinct ids must stay distinct")
	}
	if in.RecGroupMembers(aIdx)[0] == in.RecGroupMembers(bIdx)[0] {
		t.Fatalf("distinct groups must own distinct type indices")
	}
}

func TestFailureLeavesGroupRetryable(t *testing.T) {
	s := testkit.NewSession()
	okID := s.NextTypeID()
	badID := okID + 1
	g := s.AddRecGroup(
		structBody(),
		refParamFunc(checker.ByModuleIndex(5)), // out of range
	)
	in := NewInterner(s)

	_, err := in.InternRecGroup(s, nil, g)
	if !errors.Is(err, ErrTypeIndexOutOfRange) {
		t.Fatalf("expected out-of-range error, got %v", err)
	}
	lenAfterFailure := in.LenTypes()

	// The failed group is unpublished: fixing the input and retrying the
	// same group id starts fresh instead of hitting a stale cache entry.
	s.ReplaceBody(badID, refParamFunc(checker.ByID(okID)))
	idx, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	members := in.RecGroupMembers(idx)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
	// The first attempt converted and appended the struct before failing;
	// that index stays allocated but unused.
	if members[0] != types.ModuleTypeIndex(lenAfterFailure) {
		t.Fatalf("retry did not start past abandoned indices: %v", members)
	}

	param := in.MustType(members[1]).Composite.Func.Params[0]
	if param.Ref.Heap.Kind != types.HeapConcreteStruct || param.Ref.Heap.Ref.MustModule() != members[0] {
		t.Fatalf("retried reference misresolved: %+v", param.Ref.Heap)
	}

	if err := testkit.CheckStoreInvariants(in.Finish()); err != nil {
		t.Fatalf("store invariants violated: %v", err)
	}
}

func TestInternTypeConvenience(t *testing.T) {
	s := testkit.NewSession()
	funcID := s.NextTypeID()
	structID := funcID + 1
	s.AddRecGroup(scalarFuncBody(), structBody())
	in := NewInterner(s)

	structIdx, err := in.InternType(s, nil, structID)
	if err != nil {
		t.Fatalf("InternType failed: %v", err)
	}
	if got := in.MustType(structIdx).Composite.Kind; got != types.KindStruct {
		t.Fatalf("wrong member returned: %v", got)
	}

	funcIdx, err := in.InternType(s, nil, funcID)
	if err != nil {
		t.Fatalf("InternType failed: %v", err)
	}
	if funcIdx+1 != structIdx {
		t.Fatalf("group members not contiguous: %v, %v", funcIdx, structIdx)
	}
}

func TestCrossSessionUsePanics(t *testing.T) {
	s1 := testkit.NewSession()
	s2 := testkit.NewSession()
	g := s2.AddRecGroup(scalarFuncBody())
	in := NewInterner(s1)

	defer func() {
		if recover() == nil {
			t.Fatalf("cross-session use must panic")
		}
	}()
	_, _ = in.InternRecGroup(s2, nil, g)
}

func TestFinishConsumesInterner(t *testing.T) {
	s := testkit.NewSession()
	g := s.AddRecGroup(scalarFuncBody())
	in := NewInterner(s)
	idx, err := in.InternRecGroup(s, nil, g)
	if err != nil {
		t.Fatalf("intern failed: %v", err)
	}

	mt := in.Finish()
	if mt.LenTypes() != 1 || mt.LenRecGroups() != 1 {
		t.Fatalf("finished store has wrong shape")
	}
	if err := testkit.CheckStoreInvariants(mt); err != nil {
		t.Fatalf("store invariants violated: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("use after Finish must panic")
		}
	}()
	in.RecGroupMembers(idx)
}

func TestTracerObservesInterning(t *testing.T) {
	s := testkit.NewSession()
	g := s.AddRecGroup(scalarFuncBody())
	in := NewInterner(s)

	var buf bytes.Buffer
	in.SetTracer(trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText))
	if _, err := in.InternRecGroup(s, nil, g); err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("rec-group")) {
		t.Fatalf("expected rec-group events in trace output, got %q", out)
	}
}
