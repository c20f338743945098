package loader

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
	"gopkg.in/yaml.v3"
)

// site is a definition's position in a content file.
type site struct {
	file string
	line int
}

func (s site) String() string {
	return fmt.Sprintf("%s:%d", s.file, s.line)
}

// rawDef holds one definition before decoding.
type rawDef struct {
	id   string
	node *yaml.Node
	at   site
}

// document is what one content file declares.
type document struct {
	actions []rawDef
	items   []rawDef
	spaces  []rawDef
}

// parseYAML reads a content document. Top-level keys actions, items, and
// spaces each hold a list of mappings with an id; other keys are ignored.
func parseYAML(src Source) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src.Data, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.Path, err)
	}
	doc := &document{}
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s:%d: top level must be a mapping", src.Path, top.Line)
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		var dst *[]rawDef
		switch key.Value {
		case "actions":
			dst = &doc.actions
		case "items":
			dst = &doc.items
		case "spaces":
			dst = &doc.spaces
		default:
			continue
		}
		defs, err := collectDefs(src.Path, key.Value, val)
		if err != nil {
			return nil, err
		}
		*dst = append(*dst, defs...)
	}
	return doc, nil
}

func collectDefs(path, section string, list *yaml.Node) ([]rawDef, error) {
	if isNull(list) {
		return nil, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s:%d: %s must be a list", path, list.Line, section)
	}
	var defs []rawDef
	for _, n := range list.Content {
		at := site{file: path, line: n.Line}
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s: %s entry must be a mapping", at, section)
		}
		id := mappingValue(n, "id")
		if id == nil || id.Kind != yaml.ScalarNode || id.Value == "" {
			return nil, fmt.Errorf("%s: %s entry has no id", at, section)
		}
		defs = append(defs, rawDef{id: id.Value, node: n, at: at})
	}
	return defs, nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func isNumber(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && (n.Tag == "!!int" || n.Tag == "!!float")
}

// compiler merges documents in load order and decodes the survivors.
type compiler struct {
	ve      *ValidationError
	actions map[string]rawDef
	items   map[string]rawDef
	spaces  map[string]rawDef
	packs   []string
}

func newCompiler() *compiler {
	return &compiler{
		ve:      &ValidationError{},
		actions: map[string]rawDef{},
		items:   map[string]rawDef{},
		spaces:  map[string]rawDef{},
	}
}

// add merges doc. Within one file an id may appear once; a later file
// replaces earlier definitions of the same id wholesale.
func (c *compiler) add(src Source, doc *document) {
	if src.Pack != "" && (len(c.packs) == 0 || c.packs[len(c.packs)-1] != src.Pack) {
		c.packs = append(c.packs, src.Pack)
	}
	c.merge("action", c.actions, doc.actions)
	c.merge("item", c.items, doc.items)
	c.merge("space", c.spaces, doc.spaces)
}

func (c *compiler) merge(kind string, dst map[string]rawDef, defs []rawDef) {
	seen := map[string]site{}
	for _, d := range defs {
		if first, dup := seen[d.id]; dup {
			c.ve.Errors = append(c.ve.Errors, fmt.Sprintf(
				"%s: duplicate %s id '%s' (first defined at line %d)", d.at, kind, d.id, first.line))
			continue
		}
		seen[d.id] = d.at
		dst[d.id] = d
	}
}

// compile decodes every surviving definition into a fresh registry.
// Structural and decode problems are collected on c.ve.
func (c *compiler) compile() (*state.Registry, error) {
	reg, err := state.NewRegistry()
	if err != nil {
		return nil, err
	}
	reg.Packs = append(reg.Packs, c.packs...)

	for _, id := range sortedIDs(c.spaces) {
		d := c.spaces[id]
		var sp types.Space
		if err := d.node.Decode(&sp); err != nil {
			c.errorf(d.at, "space '%s': %v", id, err)
			continue
		}
		reg.Spaces[id] = sp
	}

	for _, id := range sortedIDs(c.items) {
		d := c.items[id]
		var meta types.ItemMeta
		if err := d.node.Decode(&meta); err != nil {
			c.errorf(d.at, "item '%s': %v", id, err)
			continue
		}
		reg.Items[id] = meta
	}

	for _, id := range sortedIDs(c.actions) {
		d := c.actions[id]
		if problems := checkActionNode(d.node); len(problems) > 0 {
			for _, p := range problems {
				c.errorf(d.at, "action '%s': %s", id, p)
			}
			continue
		}
		spec := &types.ActionSpec{}
		if err := d.node.Decode(spec); err != nil {
			c.errorf(d.at, "action '%s': %v", id, err)
			continue
		}
		if spec.Kind == "" {
			spec.Kind = types.KindGeneric
		}
		spec.Source = d.at.String()
		reg.Actions[id] = spec

		for _, name := range sortedKeys(spec.Dynamic.Formulas) {
			if err := reg.SetFormula(id, name, spec.Dynamic.Formulas[name]); err != nil {
				c.errorf(d.at, "action '%s': %v", id, err)
			}
		}
	}

	return reg, nil
}

func (c *compiler) errorf(at site, format string, args ...any) {
	c.ve.Errors = append(c.ve.Errors, at.String()+": "+fmt.Sprintf(format, args...))
}

// checkActionNode reports structural problems the decoder would either
// miss or describe poorly: the outcome table shape and non-numeric deltas.
func checkActionNode(n *yaml.Node) []string {
	outcomes := mappingValue(n, "outcomes")
	if isNull(outcomes) {
		return nil
	}
	if outcomes.Kind != yaml.MappingNode {
		return []string{"outcomes must be a mapping keyed by tier"}
	}

	var problems []string
	for i := 0; i+1 < len(outcomes.Content); i += 2 {
		key, row := outcomes.Content[i], outcomes.Content[i+1]
		t, err := strconv.Atoi(key.Value)
		if key.Tag != "!!int" || err != nil || t < 0 || t > 3 {
			problems = append(problems, fmt.Sprintf("outcome tier %q must be an integer 0-3", key.Value))
			continue
		}
		if isNull(row) {
			continue
		}
		if row.Kind != yaml.MappingNode {
			problems = append(problems, fmt.Sprintf("outcome %d must be a mapping", t))
			continue
		}
		problems = append(problems, checkDeltas(t, mappingValue(row, "deltas"))...)
	}
	return problems
}

func checkDeltas(tier int, deltas *yaml.Node) []string {
	if isNull(deltas) {
		return nil
	}
	if deltas.Kind != yaml.MappingNode {
		return []string{fmt.Sprintf("outcome %d deltas must be a mapping", tier)}
	}
	var problems []string
	if money := mappingValue(deltas, "money_pence"); money != nil && !isNumber(money) {
		problems = append(problems, fmt.Sprintf("outcome %d money_pence must be numeric, got %q", tier, money.Value))
	}
	for _, field := range []string{"needs", "skills_xp", "flags"} {
		m := mappingValue(deltas, field)
		if isNull(m) {
			continue
		}
		if m.Kind != yaml.MappingNode {
			problems = append(problems, fmt.Sprintf("outcome %d %s must be a mapping", tier, field))
			continue
		}
		for i := 0; i+1 < len(m.Content); i += 2 {
			if v := m.Content[i+1]; !isNumber(v) {
				problems = append(problems, fmt.Sprintf(
					"outcome %d %s.%s must be numeric, got %q", tier, field, m.Content[i].Value, v.Value))
			}
		}
	}
	return problems
}

func sortedIDs(m map[string]rawDef) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
