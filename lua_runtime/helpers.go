package lua_runtime

import (
	"example.com/parentator/world/entities"
	lua "github.com/yuin/gopher-lua"
)

func getString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func getBool(t *lua.LTable, key string) bool {
	return lua.LVAsBool(t.RawGetString(key))
}

func getNumber(t *lua.LTable, key string) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

func getStringArray(t *lua.LTable, key string) []string {
	if v, ok := t.RawGetString(key).(*lua.LTable); ok {
		var out []string
		v.ForEach(func(_, x lua.LValue) {
			if s, ok := x.(lua.LString); ok {
				out = append(out, string(s))
			}
		})
		return out
	}
	return nil
}

func getStringMap(t *lua.LTable, key string) map[string]string {
	if v, ok := t.RawGetString(key).(*lua.LTable); ok {
		out := make(map[string]string)
		v.ForEach(func(k, x lua.LValue) { out[lua.LVAsString(k)] = lua.LVAsString(x) })
		return out
	}
	return nil
}

// getVec3 reads {x=, y=, z=} or a positional {1, 2, 3}.
func getVec3(t *lua.LTable, key string) entities.Vec3 {
	v, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return entities.Vec3{}
	}

	if v.Len() == 3 {
		return entities.Vec3{
			X: float64(lua.LVAsNumber(v.RawGetInt(1))),
			Y: float64(lua.LVAsNumber(v.RawGetInt(2))),
			Z: float64(lua.LVAsNumber(v.RawGetInt(3))),
		}
	}

	return entities.Vec3{X: getNumber(v, "x"), Y: getNumber(v, "y"), Z: getNumber(v, "z")}
}

func tryGetTable(t *lua.LTable, key string) *lua.LTable {
	if v := t.RawGetString(key); v != lua.LNil {
		if tbl, ok := v.(*lua.LTable); ok {
			return tbl
		}
	}
	return nil
}
