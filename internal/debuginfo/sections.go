package debuginfo

import (
	"debug/dwarf"

	"github.com/pkg/errors"
)

// Sections added to the image after construction when present.
var extraSections = []string{
	".debug_addr",
	".debug_line_str",
	".debug_loclists",
	".debug_rnglists",
	".debug_str_offsets",
}

// Open builds DWARF data from raw sections keyed by their ELF style names,
// such as ".debug_info". It returns nil without error when there is no
// .debug_info section.
func Open(sections map[string][]byte) (*dwarf.Data, error) {
	if len(sections[".debug_info"]) == 0 {
		return nil, nil
	}
	d, err := dwarf.New(
		sections[".debug_abbrev"],
		sections[".debug_aranges"],
		sections[".debug_frame"],
		sections[".debug_info"],
		sections[".debug_line"],
		sections[".debug_pubnames"],
		sections[".debug_ranges"],
		sections[".debug_str"],
	)
	if err != nil {
		return nil, errors.Wrap(err, "decoding DWARF")
	}
	for _, name := range extraSections {
		data, ok := sections[name]
		if !ok {
			continue
		}
		if err := d.AddSection(name, data); err != nil {
			return nil, errors.Wrapf(err, "adding %s", name)
		}
	}
	return d, nil
}
