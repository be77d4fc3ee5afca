package generator

import (
	"strings"

	"github.com/mcncl/pytyper/internal/errors"
)

// Style selects one of the supported Python renderings.
type Style int

const (
	// PlainDataClass renders @dataclass classes.
	PlainDataClass Style = iota
	// DataClassWithSerialization adds from_dict and to_dict to each dataclass.
	DataClassWithSerialization
	// ValidationModelBaseClass renders pydantic BaseModel subclasses.
	ValidationModelBaseClass
	// ValidationModelDecorated renders pydantic dataclasses.
	ValidationModelDecorated
	// StructuralDictClass renders one TypedDict per named type.
	StructuralDictClass
	// StructuralDictInline inlines every nested TypedDict into the root.
	StructuralDictInline
	// StructuralDictNested declares the root and shared TypedDicts and
	// inlines the rest.
	StructuralDictNested
)

var styleNames = map[Style]string{
	PlainDataClass:             "dataclass",
	DataClassWithSerialization: "dataclass-json",
	ValidationModelBaseClass:   "pydantic",
	ValidationModelDecorated:   "pydantic-dataclass",
	StructuralDictClass:        "typeddict",
	StructuralDictInline:       "typeddict-inline",
	StructuralDictNested:       "typeddict-nested",
}

// Styles lists every style in declaration order.
func Styles() []Style {
	return []Style{
		PlainDataClass,
		DataClassWithSerialization,
		ValidationModelBaseClass,
		ValidationModelDecorated,
		StructuralDictClass,
		StructuralDictInline,
		StructuralDictNested,
	}
}

// StyleNames lists the names accepted by ParseStyle.
func StyleNames() []string {
	names := make([]string, 0, len(styleNames))
	for _, s := range Styles() {
		names = append(names, styleNames[s])
	}
	return names
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the declared styles.
func (s Style) Valid() bool {
	_, ok := styleNames[s]
	return ok
}

// ParseStyle maps a style name to its Style.
func ParseStyle(name string) (Style, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for s, n := range styleNames {
		if n == key {
			return s, nil
		}
	}
	return 0, errors.NewStyleError(name)
}

func (s Style) isClass() bool {
	return s <= ValidationModelDecorated
}

func (s Style) isPydantic() bool {
	return s == ValidationModelBaseClass || s == ValidationModelDecorated
}
