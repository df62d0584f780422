package wasm

const (
	coreCode            = 10
	componentCoreModule = 1
)

var coreSections = map[byte]string{
	1:  "type",
	2:  "import",
	3:  "function",
	4:  "table",
	5:  "memory",
	6:  "global",
	7:  "export",
	8:  "start",
	9:  "element",
	10: "code",
	11: "data",
	12: "data count",
	13: "tag",
}

var componentSections = map[byte]string{
	2:  "instance",
	3:  "core type",
	4:  "component",
	5:  "component instance",
	6:  "component alias",
	7:  "component type",
	8:  "component canonical",
	9:  "component start",
	10: "component import",
	11: "component export",
}

func sectionName(id byte, component bool) (string, bool) {
	if component {
		name, ok := componentSections[id]
		return name, ok
	}
	name, ok := coreSections[id]
	return name, ok
}
