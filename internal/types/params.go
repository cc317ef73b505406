package types

import (
	"fmt"
	"strconv"
	"strings"

	"veil/internal/symbols"
)

// ParamInfo stores metadata about a generic parameter.
type ParamInfo struct {
	Name      string
	Owner     symbols.SymbolID
	Index     int
	IsConst   bool
	ConstType TypeID
}

// RegisterParam allocates a fresh generic parameter type. Parameters are
// never deduplicated: T of one function differs from T of another.
func (in *Interner) RegisterParam(info ParamInfo) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.params = append(in.params, info)
	return in.internRaw(Type{Kind: KindGenericParam, Payload: slot(len(in.params)-1, "param info")})
}

// ParamInfo returns metadata for a generic parameter type.
func (in *Interner) ParamInfo(id TypeID) (ParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindGenericParam {
		return ParamInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.params[tt.Payload], true
}

// Const interns the value of a const generic argument.
func (in *Interner) Const(valueType TypeID, v int64) TypeID {
	return in.Intern(MakeConst(valueType, v))
}

// ArgsKey is the canonical string form of an argument list; two lists get
// the same key exactly when they hold the same TypeIDs.
func ArgsKey(args []TypeID) string {
	if len(args) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte('#')
		}
		sb.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return sb.String()
}

// Subst replaces generic parameters according to m.
func (in *Interner) Subst(id TypeID, m map[TypeID]TypeID) TypeID {
	if len(m) == 0 || id == NoTypeID {
		return id
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindGenericParam:
		if repl, ok := m[id]; ok {
			return repl
		}
		return id
	case KindArray:
		elem := in.Subst(tt.Elem, m)
		if tt.Len == NoTypeID {
			return in.Intern(MakeArray(elem, tt.Count))
		}
		l := in.Subst(tt.Len, m)
		if lt, ok := in.Lookup(l); ok && lt.Kind == KindConst && lt.Value >= 0 {
			return in.Intern(MakeArray(elem, uint32(lt.Value))) // #nosec G115 -- lengths are checked when consts are folded
		}
		return in.Intern(MakeParamArray(elem, l))
	case KindTuple:
		elems, _ := in.TupleElems(id)
		for i := range elems {
			elems[i] = in.Subst(elems[i], m)
		}
		return in.Tuple(elems)
	case KindStruct:
		info, _ := in.StructInfo(id)
		args := info.Args
		if info.Template == NoTypeID {
			args = info.Params
		}
		if len(args) == 0 {
			return id
		}
		next := make([]TypeID, len(args))
		for i, a := range args {
			next[i] = in.Subst(a, m)
		}
		return in.InstantiateStruct(id, next)
	case KindMapping:
		return in.Intern(MakeMapping(in.Subst(tt.Key, m), in.Subst(tt.Elem, m)))
	}
	return id
}

// ContainsGeneric reports whether id mentions a generic parameter anywhere.
func (in *Interner) ContainsGeneric(id TypeID) bool {
	return in.containsGeneric(id, 0)
}

func (in *Interner) containsGeneric(id TypeID, depth int) bool {
	if depth > 64 {
		return false
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindGenericParam:
		return true
	case KindArray:
		return tt.Len != NoTypeID || in.containsGeneric(tt.Elem, depth+1)
	case KindTuple:
		elems, _ := in.TupleElems(id)
		for _, e := range elems {
			if in.containsGeneric(e, depth+1) {
				return true
			}
		}
	case KindStruct:
		info, _ := in.StructInfo(id)
		if info.Template == NoTypeID && len(info.Params) > 0 {
			return true
		}
		for _, a := range info.Args {
			if in.containsGeneric(a, depth+1) {
				return true
			}
		}
	case KindMapping:
		return in.containsGeneric(tt.Key, depth+1) || in.containsGeneric(tt.Elem, depth+1)
	}
	return false
}

// ConstValue returns the value of a KindConst type.
func (in *Interner) ConstValue(id TypeID) (int64, error) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindConst {
		return 0, fmt.Errorf("type %d is not a const argument", id)
	}
	return tt.Value, nil
}
