package types

import (
	"slices"
)

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// Tuple returns the tuple type with the given elements. The empty tuple is Unit.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	if len(elems) == 0 {
		return in.builtins.Unit
	}
	key := ArgsKey(elems)
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.tupleIdx[key]; ok {
		return id
	}
	in.tuples = append(in.tuples, TupleInfo{Elems: slices.Clone(elems)})
	id := in.internRaw(Type{Kind: KindTuple, Payload: slot(len(in.tuples)-1, "tuple info")})
	in.tupleIdx[key] = id
	return id
}

// TupleElems returns a copy of the element types of a tuple TypeID.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.tuples[tt.Payload].Elems), true
}
