package loader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	doc document
	err error
}

// registerAPI registers the Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Action "id" { ... }, Item "id" { ... }, Space "id" { ... }: curried,
	// the outer call takes the id and returns a function taking the table.
	constructors := map[string]*[]rawDef{
		"Action": &coll.doc.actions,
		"Item":   &coll.doc.items,
		"Space":  &coll.doc.spaces,
	}
	for name, dst := range constructors {
		name, dst := name, dst
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				at := luaSite(L.Where(1))
				node, err := luaToNode(tbl)
				if err != nil {
					coll.fail(fmt.Errorf("%s: %s %q: %w", at, name, id, err))
					return 0
				}
				if node.Kind != yaml.MappingNode {
					node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
				}
				if err := setID(node, id); err != nil {
					coll.fail(fmt.Errorf("%s: %s %q: %w", at, name, id, err))
					return 0
				}
				listToTiers(node)
				*dst = append(*dst, rawDef{id: id, node: node, at: at})
				return 0
			}))
			return 1
		}))
	}
}

func (c *collector) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// luaSite parses the "chunk:line:" prefix produced by LState.Where.
func luaSite(where string) site {
	where = strings.TrimSuffix(strings.TrimSpace(where), ":")
	i := strings.LastIndex(where, ":")
	if i < 0 {
		return site{file: where}
	}
	line, err := strconv.Atoi(where[i+1:])
	if err != nil {
		return site{file: where}
	}
	return site{file: where[:i], line: line}
}

// setID records id in a definition table, rejecting a conflicting id field.
func setID(node *yaml.Node, id string) error {
	if v := mappingValue(node, "id"); v != nil {
		if v.Value != id {
			return fmt.Errorf("table id %q does not match constructor id", v.Value)
		}
		return nil
	}
	node.Content = append([]*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "id"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: id},
	}, node.Content...)
	return nil
}

// listToTiers rewrites a Lua outcomes table written as a plain list
// { {...}, {...}, {...} } into the mapping 1..n it denotes in Lua.
func listToTiers(node *yaml.Node) {
	outcomes := mappingValue(node, "outcomes")
	if outcomes == nil || outcomes.Kind != yaml.SequenceNode {
		return
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, row := range outcomes.Content {
		m.Content = append(m.Content, numberNode(float64(i+1)), row)
	}
	*outcomes = *m
}

// luaToNode converts a Lua value into a YAML node so Lua and YAML content
// share one validation and decoding path. Integer-valued numbers become
// !!int scalars, which lets tables keyed [0]..[3] decode as outcome tiers.
func luaToNode(v lua.LValue) (*yaml.Node, error) {
	switch val := v.(type) {
	case lua.LString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}, nil
	case lua.LBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(val))}, nil
	case lua.LNumber:
		return numberNode(float64(val)), nil
	case *lua.LNilType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *lua.LTable:
		return tableToNode(val)
	default:
		return nil, fmt.Errorf("unsupported Lua value of type %s", v.Type())
	}
}

func numberNode(f float64) *yaml.Node {
	if f == float64(int64(f)) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(f), 10)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

func tableToNode(tbl *lua.LTable) (*yaml.Node, error) {
	type entry struct {
		key   lua.LValue
		value lua.LValue
	}
	var entries []entry
	tbl.ForEach(func(k, v lua.LValue) {
		entries = append(entries, entry{k, v})
	})
	if len(entries) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	// A table whose keys are exactly 1..n is a list.
	if n := tbl.MaxN(); n == len(entries) {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 1; i <= n; i++ {
			child, err := luaToNode(tbl.RawGetInt(i))
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	}

	// Otherwise a mapping with keys in a stable order: numbers, then strings.
	sortKeys := func(a, b lua.LValue) bool {
		an, aNum := a.(lua.LNumber)
		bn, bNum := b.(lua.LNumber)
		switch {
		case aNum && bNum:
			return an < bn
		case aNum != bNum:
			return aNum
		default:
			return a.String() < b.String()
		}
	}
	sort.Slice(entries, func(i, j int) bool { return sortKeys(entries[i].key, entries[j].key) })

	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		var key *yaml.Node
		switch k := e.key.(type) {
		case lua.LString:
			key = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(k)}
		case lua.LNumber:
			key = numberNode(float64(k))
		default:
			return nil, fmt.Errorf("unsupported table key of type %s", e.key.Type())
		}
		value, err := luaToNode(e.value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key.Value, err)
		}
		m.Content = append(m.Content, key, value)
	}
	return m, nil
}
