package dynsym

import (
	"debug/elf"
	"fmt"
	"strings"
)

// Export is a defined dynamic symbol of an ELF shared object.
type Export struct {
	Name   string
	Offset uintptr
}

// FindExport returns the offset of symbol in the dynamic symbol table of
// the ELF file at path. Static-only symbols are invisible to dlsym and are
// not reported.
func FindExport(path string, symbol string) (uintptr, error) {
	exports, err := FindExports(path, []string{symbol})
	if err != nil {
		return 0, err
	}
	exp, ok := exports[symbol]
	if !ok {
		return 0, fmt.Errorf("symbol %s not exported by %s", symbol, path)
	}
	return exp.Offset, nil
}

// FindExports looks up each name in the dynamic symbol table of the ELF file
// at path. Names that are not defined there are absent from the result.
func FindExports(path string, names []string) (map[string]Export, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, fmt.Errorf("read dynamic symbols of %s: %w", path, err)
	}

	found := make(map[string]Export, len(names))
	for _, name := range names {
		if off, ok := matchSymbolOffset(syms, name); ok {
			found[name] = Export{Name: name, Offset: off}
		}
	}
	return found, nil
}

func matchSymbolOffset(symbols []elf.Symbol, want string) (uintptr, bool) {
	for _, s := range symbols {
		if s.Value == 0 || s.Section == elf.SHN_UNDEF {
			continue
		}
		if s.Name == want || strings.HasPrefix(s.Name, want+"@") {
			return uintptr(s.Value), true
		}
	}
	return 0, false
}
