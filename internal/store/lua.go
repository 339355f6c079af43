package store

import (
	"context"
	"fmt"
	"math"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// luaTimeout bounds how long a definition script may run.
const luaTimeout = time.Second

// LuaCodec evaluates definition scripts in a sandboxed gopher-lua state.
//
// A script either returns the group table:
//
//	return {
//	  name = "Editing",
//	  shortcuts = {
//	    { description = "Copy", keys = { "COMMAND", "C" } },
//	  },
//	}
//
// or assigns the globals name and shortcuts.
type LuaCodec struct{}

func (LuaCodec) Name() string         { return "lua" }
func (LuaCodec) Extensions() []string { return []string{".lua"} }

func (LuaCodec) Decode(path string, data []byte) (document, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// Only pure libraries; no io, os, package or debug.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), luaTimeout)
	defer cancel()
	L.SetContext(ctx)

	top := L.GetTop()
	if err := L.DoString(string(data)); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Cause != nil {
			pe.Err = apiErr.Cause
		}
		return document{}, pe
	}

	var root *lua.LTable
	if L.GetTop() > top {
		if t, ok := L.Get(-1).(*lua.LTable); ok {
			root = t
		}
	}
	if root == nil {
		root = L.NewTable()
		root.RawSetString("name", L.GetGlobal("name"))
		root.RawSetString("shortcuts", L.GetGlobal("shortcuts"))
	}

	return luaDocument(path, root)
}

func luaDocument(path string, root *lua.LTable) (document, error) {
	name, ok := root.RawGetString("name").(lua.LString)
	if !ok {
		return document{}, missing(path, "name")
	}
	list, ok := root.RawGetString("shortcuts").(*lua.LTable)
	if !ok {
		return document{}, missing(path, "shortcuts")
	}

	doc := document{Name: string(name)}
	for i := 1; i <= list.Len(); i++ {
		item, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return document{}, &ParseError{Path: path, Message: fmt.Sprintf("shortcuts[%d] must be a table", i-1)}
		}
		desc, ok := item.RawGetString("description").(lua.LString)
		if !ok {
			return document{}, missing(path, fmt.Sprintf("shortcuts[%d].description", i-1))
		}
		keys, ok := item.RawGetString("keys").(*lua.LTable)
		if !ok {
			return document{}, missing(path, fmt.Sprintf("shortcuts[%d].keys", i-1))
		}

		e := entry{Description: string(desc)}
		for j := 1; j <= keys.Len(); j++ {
			var v any
			switch k := keys.RawGetInt(j).(type) {
			case lua.LString:
				v = string(k)
			case lua.LNumber:
				if f := float64(k); f == math.Trunc(f) && f >= 0 && f < 1<<53 {
					v = int64(f)
				}
			}
			tok, ok := keyToken(v)
			if !ok {
				return document{}, badKey(path, i-1, j-1)
			}
			e.Keys = append(e.Keys, tok)
		}
		doc.Shortcuts = append(doc.Shortcuts, e)
	}
	return doc, nil
}
