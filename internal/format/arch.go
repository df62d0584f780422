package format

import (
	"debug/elf"
	"debug/macho"
)

var machoArchMap = map[macho.Cpu]string{
	macho.Cpu386:   "386",
	macho.CpuAmd64: "amd64",
	macho.CpuArm:   "arm",
	macho.CpuArm64: "arm64",
	macho.CpuPpc:   "ppc",
	macho.CpuPpc64: "ppc64",
}

var elfArchMap = map[elf.Machine]string{
	elf.EM_386:     "386",
	elf.EM_X86_64:  "amd64",
	elf.EM_ARM:     "arm",
	elf.EM_AARCH64: "arm64",
	elf.EM_RISCV:   "riscv64",
	elf.EM_PPC64:   "ppc64",
	elf.EM_S390:    "s390x",
	elf.EM_MIPS:    "mips",
}

func machoArch(c macho.Cpu) string {
	if a, ok := machoArchMap[c]; ok {
		return a
	}
	return c.String()
}

func elfArch(m elf.Machine) string {
	if a, ok := elfArchMap[m]; ok {
		return a
	}
	return m.String()
}
