// Package loader reads content into an immutable Registry. Base content is
// YAML; packs under packs/<name>/ overlay it in sorted order and may be YAML
// or sandboxed Lua. Lua runs only while loading.
package loader

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/nathoo/roomlife/engine/state"
	lua "github.com/yuin/gopher-lua"
)

// Base content files, in load order.
const (
	ActionsFile = "actions.yaml"
	ItemsFile   = "items_meta.yaml"
	SpacesFile  = "spaces.yaml"
	PacksDir    = "packs"
	LuaActions  = "actions.lua"
)

// Source is one content file. Pack is empty for base content.
type Source struct {
	Path string
	Pack string
	Data []byte
}

// Load reads base content and every pack under dir and returns the
// validated registry. Warnings go to logger; a nil logger uses
// slog.Default().
func Load(dir string, logger *slog.Logger) (*state.Registry, error) {
	sources, err := ReadSources(dir)
	if err != nil {
		return nil, err
	}
	return LoadSources(sources, logger)
}

// ReadSources collects the content files under dir in load order: the base
// files, then each pack directory sorted by name. Missing base files are
// skipped; a missing dir is an error.
func ReadSources(dir string) ([]Source, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var sources []Source
	for _, name := range []string{ActionsFile, ItemsFile, SpacesFile} {
		src, ok, err := readSource(filepath.Join(dir, name), "")
		if err != nil {
			return nil, err
		}
		if ok {
			sources = append(sources, src)
		}
	}

	packRoot := filepath.Join(dir, PacksDir)
	entries, err := os.ReadDir(packRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return sources, nil
		}
		return nil, fmt.Errorf("reading packs in %s: %w", packRoot, err)
	}
	var packs []string
	for _, e := range entries {
		if e.IsDir() {
			packs = append(packs, e.Name())
		}
	}
	sort.Strings(packs)

	for _, pack := range packs {
		for _, name := range []string{ItemsFile, SpacesFile, ActionsFile, LuaActions} {
			src, ok, err := readSource(filepath.Join(packRoot, pack, name), pack)
			if err != nil {
				return nil, err
			}
			if ok {
				sources = append(sources, src)
			}
		}
	}
	return sources, nil
}

func readSource(path, pack string) (Source, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Source{}, false, nil
		}
		return Source{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return Source{Path: path, Pack: pack, Data: data}, true, nil
}

// LoadSources builds a registry from sources in the order given. The same
// sources always produce the same registry.
func LoadSources(sources []Source, logger *slog.Logger) (*state.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := newCompiler()
	for _, src := range sources {
		doc, err := parseSource(src)
		if err != nil {
			return nil, &ValidationError{Errors: []string{err.Error()}}
		}
		c.add(src, doc)
		if src.Pack != "" {
			logger.Debug("content pack loaded", "pack", src.Pack, "file", filepath.Base(src.Path))
		}
	}

	reg, err := c.compile()
	if err != nil {
		return nil, err
	}

	ve := validate(reg)
	ve.Errors = append(c.ve.Errors, ve.Errors...)
	ve.Warnings = append(c.ve.Warnings, ve.Warnings...)
	for _, w := range ve.Warnings {
		logger.Warn("content warning", "detail", w)
	}
	reg.Warnings = ve.Warnings
	if len(ve.Errors) > 0 {
		return nil, ve
	}
	logger.Info("content loaded", "actions", len(reg.Actions), "items", len(reg.Items), "spaces", len(reg.Spaces), "packs", len(reg.Packs))
	return reg, nil
}

func parseSource(src Source) (*document, error) {
	if filepath.Ext(src.Path) == ".lua" {
		return runLua(src)
	}
	return parseYAML(src)
}

// runLua executes a Lua content file in a fresh sandboxed VM and returns
// the definitions it declared. The VM is closed before returning.
func runLua(src Source) (*document, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	fn, err := L.Load(bytes.NewReader(src.Data), src.Path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Path, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("executing %s: %w", src.Path, err)
	}
	if coll.err != nil {
		return nil, fmt.Errorf("executing %s: %w", src.Path, coll.err)
	}
	return &coll.doc, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM or break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	if mathTbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathTbl.RawSetString("randomseed", lua.LNil)
		mathTbl.RawSetString("random", lua.LNil)
	}
}
