package generator

import (
	"bytes"
	"sort"
	"strings"
)

var stdlibModules = map[string]bool{
	"dataclasses": true,
	"datetime":    true,
	"typing":      true,
	"uuid":        true,
}

// importSet collects "from module import name" lines while rendering.
type importSet map[string]map[string]bool

func (s importSet) add(module, name string) {
	if s[module] == nil {
		s[module] = make(map[string]bool)
	}
	s[module][name] = true
}

// write emits standard library imports first, then third-party imports,
// with a blank line between the groups.
func (s importSet) write(buf *bytes.Buffer) {
	var stdLib, thirdParty []string
	for module := range s {
		if stdlibModules[module] {
			stdLib = append(stdLib, module)
		} else {
			thirdParty = append(thirdParty, module)
		}
	}
	sort.Strings(stdLib)
	sort.Strings(thirdParty)

	writeGroup := func(modules []string) {
		for _, module := range modules {
			names := make([]string, 0, len(s[module]))
			for name := range s[module] {
				names = append(names, name)
			}
			sort.Strings(names)
			buf.WriteString("from " + module + " import " + strings.Join(names, ", ") + "\n")
		}
	}

	writeGroup(stdLib)
	if len(stdLib) > 0 && len(thirdParty) > 0 {
		buf.WriteString("\n")
	}
	writeGroup(thirdParty)
}
