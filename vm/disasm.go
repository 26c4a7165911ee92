package vm

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wudi/soc/values"
)

// Disassemble renders a compiled module's full prototype tree as
// symbolic bytecode text, used by the `soc disasm`
// subcommand.
func Disassemble(mod *values.Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s (%s constants)\n", mod.Path, humanize.Comma(int64(len(mod.Constants))))
	disassembleProto(&b, mod.Main, 0)
	return b.String()
}

func disassembleProto(b *strings.Builder, proto *values.Prototype, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%sfunc %s(arity=%d, registers=%d, bytes=%s)\n",
		indent, protoLabel(proto), proto.Arity, proto.NumRegisters,
		humanize.Bytes(uint64(len(proto.Code)*4)))
	for i, instr := range proto.Code {
		line := 0
		if i < len(proto.Lines) {
			line = proto.Lines[i]
		}
		fmt.Fprintf(b, "%s  %4d  [line %4d]  %s\n", indent, i, line, instr.Disassemble())
	}
	for _, child := range proto.Functions {
		disassembleProto(b, child, depth+1)
	}
}

func protoLabel(proto *values.Prototype) string {
	if proto.Name == "" {
		return "<anonymous>"
	}
	return proto.Name
}
