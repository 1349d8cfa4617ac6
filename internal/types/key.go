package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Key returns a canonical structural key for the signature: two function
// types have equal keys exactly when they are structurally equal. Used as a
// map key where the signature itself cannot be (slices are not comparable).
func (f *FuncType) Key() string {
	var sb strings.Builder
	sb.WriteByte('(')
	writeValKeys(&sb, f.Params)
	sb.WriteString(")->(")
	writeValKeys(&sb, f.Results)
	sb.WriteByte(')')
	return sb.String()
}

func writeValKeys(sb *strings.Builder, vs []ValType) {
	for i, v := range vs {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeValKey(sb, v)
	}
}

func writeValKey(sb *strings.Builder, v ValType) {
	switch v.Kind {
	case ValI32, ValI64, ValF32, ValF64:
		sb.WriteString(v.Kind.String())
	case ValRef:
		writeRefKey(sb, v.Ref)
	default:
		panic(fmt.Sprintf("types: bad val kind %v", v.Kind))
	}
}

func writeRefKey(sb *strings.Builder, r RefType) {
	sb.WriteString("ref ")
	if r.Nullable {
		sb.WriteString("null ")
	}
	switch r.Heap.Kind {
	case HeapExtern, HeapAny, HeapFunc:
		sb.WriteString(r.Heap.Kind.String())
	case HeapConcreteFunc, HeapConcreteArray, HeapConcreteStruct:
		sb.WriteString(r.Heap.Ref.Scope.String())
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(r.Heap.Ref.Index), 10))
	default:
		panic(fmt.Sprintf("types: bad heap kind %v", r.Heap.Kind))
	}
}
