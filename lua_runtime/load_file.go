package lua_runtime

import (
	"errors"
	"fmt"
	"sort"

	"example.com/parentator/lua_runtime/ir"
	"example.com/parentator/world/entities"
	lua "github.com/yuin/gopher-lua"
)

// LoadScene runs a Lua file that returns { entities = { key = {...}, ... } }
// and builds the top level entities, ordered by key.
func (lr *LuaRuntime) LoadScene(path string) ([]*entities.Entity, error) {
	if err := lr.L.DoFile(path); err != nil {
		return nil, fmt.Errorf("load lua file: %w", err)
	}

	val := lr.L.Get(-1)
	lr.L.Pop(1)

	root, ok := val.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("file %s did not return a table", path)
	}

	entitiesTable := tryGetTable(root, "entities")
	if entitiesTable == nil {
		return nil, fmt.Errorf("expected a table field 'entities' at top level")
	}

	scene, err := lr.buildScene(entitiesTable)
	if err != nil {
		return nil, fmt.Errorf("could not build entities: %w", err)
	}

	return scene, nil
}

func (lr *LuaRuntime) buildScene(entitiesTable *lua.LTable) ([]*entities.Entity, error) {
	type keyed struct {
		key    string
		entity *entities.Entity
	}

	var built []keyed
	var errs []error

	entitiesTable.ForEach(func(k, v lua.LValue) {
		key := lua.LVAsString(k)

		t, ok := v.(*lua.LTable)
		if !ok {
			errs = append(errs, fmt.Errorf("entity '%s' is not a table", key))
			return
		}

		entityIR, err := lr.buildEntityIR(t, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("could not build entity IR for '%s': %w", key, err))
			return
		}

		runtimeEntity, err := entityIR.Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("could not build runtime entity for '%s': %w", key, err))
			return
		}

		built = append(built, keyed{key: key, entity: runtimeEntity})
	})

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(built, func(i, j int) bool { return built[i].key < built[j].key })

	scene := make([]*entities.Entity, 0, len(built))
	for _, b := range built {
		scene = append(scene, b.entity)
	}
	return scene, nil
}

// buildEntityIR falls back to the table key when no name is given.
func (lr *LuaRuntime) buildEntityIR(val *lua.LTable, fallbackName string) (*ir.EntityIR, error) {
	if val == nil {
		return nil, fmt.Errorf("could not build nil entity IR")
	}

	e := &ir.EntityIR{
		Name:     getString(val, "name"),
		Aliases:  getStringArray(val, "aliases"),
		Script:   getString(val, "script"),
		Locked:   getBool(val, "locked"),
		Dynamic:  getBool(val, "dynamic"),
		Position: getVec3(val, "position"),
		Textures: getStringMap(val, "textures"),
	}
	if e.Name == "" {
		e.Name = fallbackName
	}

	if childrenTable := tryGetTable(val, "children"); childrenTable != nil {
		children, err := lr.buildChildren(childrenTable)
		if err != nil {
			return nil, fmt.Errorf("could not build children for entity '%s': %w", e.Name, err)
		}
		e.Children = children
	}

	return e, nil
}

func (lr *LuaRuntime) buildChildren(arr *lua.LTable) ([]*ir.EntityIR, error) {
	children := make([]*ir.EntityIR, 0, arr.Len())
	var errs []error

	arr.ForEach(func(k, child lua.LValue) {
		ct, ok := child.(*lua.LTable)
		if !ok {
			errs = append(errs, fmt.Errorf("child '%s' is not a table", lua.LVAsString(k)))
			return
		}

		childIR, err := lr.buildEntityIR(ct, "")
		if err != nil {
			errs = append(errs, err)
			return
		}

		children = append(children, childIR)
	})

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return children, nil
}
