package types

import (
	"slices"

	"veil/internal/symbols"
)

// Field is a single member of a struct or record.
type Field struct {
	Name string
	Type TypeID
}

// StructInfo stores metadata for a nominal struct type. A generic struct
// has a template entry (Params set, Args empty) and one instance entry per
// distinct argument list (Template and Args set). Instance fields are
// derived from the template on first use.
type StructInfo struct {
	Name     string
	Program  string
	Symbol   symbols.SymbolID
	IsRecord bool
	Params   []TypeID
	Template TypeID
	Args     []TypeID
	Fields   []Field

	derived bool
}

type nominalKey struct {
	sym  symbols.SymbolID
	args string
}

// RegisterStruct allocates the nominal type of a struct declaration.
func (in *Interner) RegisterStruct(sym symbols.SymbolID, name, program string, isRecord bool, params []TypeID) TypeID {
	key := nominalKey{sym: sym, args: ArgsKey(params)}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.nominal[key]; ok {
		return id
	}
	in.structs = append(in.structs, StructInfo{
		Name:     name,
		Program:  program,
		Symbol:   sym,
		IsRecord: isRecord,
		Params:   slices.Clone(params),
		derived:  true,
	})
	id := in.internRaw(Type{Kind: KindStruct, Payload: slot(len(in.structs)-1, "struct info")})
	in.nominal[key] = id
	return id
}

// SetStructFields stores the resolved members of a struct type.
func (in *Interner) SetStructFields(id TypeID, fields []Field) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.structs[tt.Payload].Fields = slices.Clone(fields)
}

// StructInfo returns a copy of the metadata for a struct TypeID.
func (in *Interner) StructInfo(id TypeID) (StructInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return StructInfo{}, false
	}
	in.mu.RLock()
	info := in.structs[tt.Payload]
	in.mu.RUnlock()
	info.Params = slices.Clone(info.Params)
	info.Args = slices.Clone(info.Args)
	info.Fields = slices.Clone(info.Fields)
	return info, true
}

// StructFields returns the members of a struct, deriving instance members
// from the template when needed.
func (in *Interner) StructFields(id TypeID) []Field {
	info, ok := in.StructInfo(id)
	if !ok {
		return nil
	}
	if info.derived {
		return info.Fields
	}
	tmpl, _ := in.StructInfo(info.Template)
	m := make(map[TypeID]TypeID, len(tmpl.Params))
	for i, p := range tmpl.Params {
		if i < len(info.Args) {
			m[p] = info.Args[i]
		}
	}
	fields := make([]Field, len(tmpl.Fields))
	for i, f := range tmpl.Fields {
		fields[i] = Field{Name: f.Name, Type: in.Subst(f.Type, m)}
	}
	tt := in.MustLookup(id)
	in.mu.Lock()
	in.structs[tt.Payload].Fields = fields
	in.structs[tt.Payload].derived = true
	in.mu.Unlock()
	return slices.Clone(fields)
}

// FieldType returns the type of the named member.
func (in *Interner) FieldType(id TypeID, name string) (TypeID, bool) {
	for _, f := range in.StructFields(id) {
		if f.Name == name {
			return f.Type, true
		}
	}
	return NoTypeID, false
}

// InstantiateStruct returns the struct type of template applied to args.
// Passing the template's own parameters returns the template.
func (in *Interner) InstantiateStruct(template TypeID, args []TypeID) TypeID {
	info, ok := in.StructInfo(template)
	if !ok {
		return NoTypeID
	}
	if info.Template != NoTypeID {
		template = info.Template
		info, _ = in.StructInfo(template)
	}
	if slices.Equal(info.Params, args) {
		return template
	}
	key := nominalKey{sym: info.Symbol, args: ArgsKey(args)}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.nominal[key]; ok {
		return id
	}
	in.structs = append(in.structs, StructInfo{
		Name:     info.Name,
		Program:  info.Program,
		Symbol:   info.Symbol,
		IsRecord: info.IsRecord,
		Template: template,
		Args:     slices.Clone(args),
	})
	id := in.internRaw(Type{Kind: KindStruct, Payload: slot(len(in.structs)-1, "struct info")})
	in.nominal[key] = id
	return id
}
