package types

import (
	"strings"
	"testing"
)

func pushFunc(mt *ModuleTypes) ModuleTypeIndex {
	return mt.Push(SubType{Composite: FuncComposite(&FuncType{})})
}

func pushStruct(mt *ModuleTypes) ModuleTypeIndex {
	return mt.Push(SubType{Composite: StructComposite(&StructType{})})
}

func TestPushAssignsSequentialIndices(t *testing.T) {
	mt := NewModuleTypes()
	for want := 0; want < 3; want++ {
		if got := pushFunc(mt); got != ModuleTypeIndex(want) {
			t.Fatalf("push %d assigned %v", want, got)
		}
	}
	if mt.NextTypeIndex() != 3 {
		t.Fatalf("expected next index 3, got %v", mt.NextTypeIndex())
	}
}

func TestRecGroupElements(t *testing.T) {
	mt := NewModuleTypes()
	pushFunc(mt)
	pushStruct(mt)
	pushFunc(mt)
	g := mt.PushRecGroup(RecGroupRange{Start: 1, End: 3})
	elems := mt.RecGroupElements(g)
	if len(elems) != 2 || elems[0] != 1 || elems[1] != 2 {
		t.Fatalf("unexpected elements %v", elems)
	}
}

func TestTrampolineBackPointerSetOnce(t *testing.T) {
	mt := NewModuleTypes()
	f := pushFunc(mt)
	mt.SetTrampolineType(f, f)
	if mt.TrampolineType(f) != f {
		t.Fatalf("trampoline not recorded")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("second SetTrampolineType must panic")
		}
	}()
	mt.SetTrampolineType(f, f)
}

func TestTrampolineRejectsNonFunction(t *testing.T) {
	mt := NewModuleTypes()
	s := pushStruct(mt)
	defer func() {
		if recover() == nil {
			t.Fatalf("SetTrampolineType on a struct must panic")
		}
	}()
	mt.SetTrampolineType(s, s)
}

func TestFromPartsRoundTrip(t *testing.T) {
	mt := NewModuleTypes()
	f := pushFunc(mt)
	pushStruct(mt)
	mt.PushRecGroup(RecGroupRange{Start: 0, End: 2})
	mt.SetTrampolineType(f, f)

	rebuilt, err := NewModuleTypesFromParts(mt.SubTypes(), mt.RecGroups(), mt.TrampolinePairs())
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if rebuilt.LenTypes() != 2 || rebuilt.LenRecGroups() != 1 {
		t.Fatalf("rebuilt store has wrong shape")
	}
	if rebuilt.TrampolineType(f) != f {
		t.Fatalf("trampoline lost in rebuild")
	}
}

func TestFromPartsRejectsBadRange(t *testing.T) {
	subs := []SubType{{Composite: FuncComposite(&FuncType{})}}
	_, err := NewModuleTypesFromParts(subs, []RecGroupRange{{Start: 0, End: 5}}, nil)
	if err == nil || !strings.Contains(err.Error(), "rec group range") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestFromPartsRejectsDanglingTrampoline(t *testing.T) {
	subs := []SubType{{Composite: StructComposite(&StructType{})}}
	_, err := NewModuleTypesFromParts(subs, nil, []TrampolinePair{{Func: 0, Trampoline: 0}})
	if err == nil {
		t.Fatalf("expected trampoline validation error")
	}
}
