package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(in *Interner, id TypeID) string {
	return labelDepth(in, id, 0)
}

func labelDepth(in *Interner, id TypeID, depth int) string {
	if id == NoTypeID || in == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindInt:
		return "i" + strconv.Itoa(int(tt.Width))
	case KindUint:
		return "u" + strconv.Itoa(int(tt.Width))
	case KindField:
		return "field"
	case KindGroup:
		return "group"
	case KindScalar:
		return "scalar"
	case KindAddress:
		return "address"
	case KindFuture:
		return "Future"
	case KindConst:
		return strconv.FormatInt(tt.Value, 10) + labelDepth(in, tt.Elem, depth+1)
	case KindGenericParam:
		info, _ := in.ParamInfo(id)
		return info.Name
	case KindArray:
		elem := labelDepth(in, tt.Elem, depth+1)
		if tt.Len != NoTypeID {
			return fmt.Sprintf("[%s; %s]", elem, labelDepth(in, tt.Len, depth+1))
		}
		return fmt.Sprintf("[%s; %d]", elem, tt.Count)
	case KindTuple:
		elems, _ := in.TupleElems(id)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = labelDepth(in, e, depth+1)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindStruct:
		info, _ := in.StructInfo(id)
		args := info.Args
		if info.Template == NoTypeID {
			args = info.Params
		}
		if len(args) == 0 {
			return info.Name
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = labelDepth(in, a, depth+1)
		}
		return info.Name + "::[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		return fmt.Sprintf("mapping %s => %s", labelDepth(in, tt.Key, depth+1), labelDepth(in, tt.Elem, depth+1))
	}
	return tt.Kind.String()
}
