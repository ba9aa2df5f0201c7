package lua_runtime

import (
	lua "github.com/yuin/gopher-lua"
)

type LuaRuntime struct{ L *lua.LState }

// NewLuaRuntime opens a state without io/os so scene files stay declarative.
func NewLuaRuntime() *LuaRuntime {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	return &LuaRuntime{L: L}
}

func (lr *LuaRuntime) Close() { lr.L.Close() }
