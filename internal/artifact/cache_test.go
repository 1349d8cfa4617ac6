package artifact

import (
	"errors"
	"reflect"
	"testing"

	"wavec/internal/checker"
	"wavec/internal/intern"
	"wavec/internal/testkit"
	"wavec/internal/types"
)

func internedStore(t *testing.T) *types.ModuleTypes {
	t.Helper()
	s := testkit.NewSession()
	structID := s.NextTypeID()
	g := s.AddRecGroup(
		checker.Struct(checker.FieldType{Elem: checker.ValStorage(checker.I32())}),
		checker.Func([]checker.ValType{
			checker.Ref(checker.ConcreteHeap(checker.ByID(structID)), false),
		}, nil),
	)
	in := intern.NewInterner(s)
	if _, err := in.InternRecGroup(s, nil, g); err != nil {
		t.Fatalf("intern failed: %v", err)
	}
	return in.Finish()
}

func TestSnapshotRestoreFidelity(t *testing.T) {
	mt := internedStore(t)
	rebuilt, err := Snapshot(mt).Store()
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if rebuilt.LenTypes() != mt.LenTypes() {
		t.Fatalf("type count changed: %d -> %d", mt.LenTypes(), rebuilt.LenTypes())
	}
	if !reflect.DeepEqual(rebuilt.RecGroups(), mt.RecGroups()) {
		t.Fatalf("rec groups changed across restore")
	}
	if !reflect.DeepEqual(rebuilt.TrampolinePairs(), mt.TrampolinePairs()) {
		t.Fatalf("trampolines changed across restore")
	}
	if err := testkit.CheckStoreInvariants(rebuilt); err != nil {
		t.Fatalf("restored store violates invariants: %v", err)
	}
}

func TestPayloadSchemaRejected(t *testing.T) {
	p := Snapshot(internedStore(t))
	p.Schema = SchemaVersion + 1
	if _, err := p.Store(); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key := DigestOf([]byte("module type section"))
	payload := Snapshot(internedStore(t))

	var missing Payload
	if found, err := c.Get(key, &missing); err != nil || found {
		t.Fatalf("expected miss before Put, got found=%v err=%v", found, err)
	}

	if err := c.Put(key, payload); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	var got Payload
	found, err := c.Get(key, &got)
	if err != nil || !found {
		t.Fatalf("expected hit after Put, got found=%v err=%v", found, err)
	}
	rebuilt, err := got.Store()
	if err != nil {
		t.Fatalf("restore of cached payload failed: %v", err)
	}
	if rebuilt.LenTypes() != 3 { // struct + func + its trampoline
		t.Fatalf("cached store has wrong type count %d", rebuilt.LenTypes())
	}

	m, err := c.Manifest()
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if m.Schema != SchemaVersion || len(m.Entries) != 1 || m.Entries[0].Key != key.Hex() {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestCacheRejectsZeroKey(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := c.Put(Digest{}, Snapshot(internedStore(t))); err == nil {
		t.Fatalf("expected error for zero key")
	}
}
