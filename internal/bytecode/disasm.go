package bytecode

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/sjson"
)

// Disassembler renders a Chunk's instruction stream as human-readable
// text, used by the CLI's disasm subcommand and by run --dump-bytecode.
type Disassembler struct {
	writer io.Writer
	chunk  *Chunk
}

// NewDisassembler builds a disassembler for chunk, writing to w.
func NewDisassembler(chunk *Chunk, w io.Writer) *Disassembler {
	return &Disassembler{writer: w, chunk: chunk}
}

// Disassemble prints the chunk's constant pool followed by its full
// instruction stream.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.writer, "== %s ==\n", d.chunk.Name)

	if len(d.chunk.Constants) > 0 {
		fmt.Fprintf(d.writer, "Constants:\n")
		for i, c := range d.chunk.Constants {
			fmt.Fprintf(d.writer, "  [%04d] %s\n", i, c.String())
		}
	}

	fmt.Fprintf(d.writer, "Code:\n")
	for offset := 0; offset < len(d.chunk.Code); {
		offset = d.DisassembleInstruction(offset)
	}
}

// DisassembleInstruction prints the instruction at offset and returns the
// offset of the next one, accounting for every opcode's operand width
// (OpClosure's trailing upvalue descriptors included).
func (d *Disassembler) DisassembleInstruction(offset int) int {
	code := d.chunk.Code
	if offset < 0 || offset >= len(code) {
		fmt.Fprintf(d.writer, "(invalid offset %d)\n", offset)
		return offset + 1
	}

	d.printHeader(offset)
	op := OpCode(code[offset])

	switch op {
	case OpJump, OpJumpIfFalse, OpLoop, OpSetupTry:
		return d.jumpInstruction(op, offset)
	case OpClosure:
		return d.closureInstruction(offset)
	case OpCallMethod, OpIncProp, OpDecProp:
		return d.twoByteInstruction(op, offset)
	default:
		width := OperandWidth(op)
		switch width {
		case 0:
			fmt.Fprintf(d.writer, "%s\n", op.String())
		case 1:
			operand := int(code[offset+1])
			fmt.Fprintf(d.writer, "%-16s %4d%s\n", op.String(), operand, d.constHint(op, operand))
		default:
			fmt.Fprintf(d.writer, "%-16s (width %d)\n", op.String(), width)
		}
		return offset + 1 + width
	}
}

// constHint prints the constant-pool value PUSH_CONST refers to, so a
// dump shows `PUSH_CONST 3 '"hello"'` instead of just the bare index.
func (d *Disassembler) constHint(op OpCode, index int) string {
	if op == OpPushConst && index >= 0 && index < len(d.chunk.Constants) {
		return fmt.Sprintf(" '%s'", d.chunk.Constants[index].String())
	}
	return ""
}

func (d *Disassembler) printHeader(offset int) {
	line := d.chunk.lineAt(offset)
	if offset > 0 && line == d.chunk.lineAt(offset-1) {
		fmt.Fprintf(d.writer, "%04d    | ", offset)
	} else {
		fmt.Fprintf(d.writer, "%04d %4d ", offset, line)
	}
}

func (d *Disassembler) jumpInstruction(op OpCode, offset int) int {
	jumpOffset := readU16(d.chunk.Code, offset+1)
	var target int
	if op == OpLoop {
		target = offset + 3 - jumpOffset
	} else {
		target = offset + 3 + jumpOffset
	}
	fmt.Fprintf(d.writer, "%-16s %4d -> %04d\n", op.String(), jumpOffset, target)
	return offset + 3
}

func (d *Disassembler) twoByteInstruction(op OpCode, offset int) int {
	a := d.chunk.Code[offset+1]
	b := d.chunk.Code[offset+2]
	fmt.Fprintf(d.writer, "%-16s %4d %4d\n", op.String(), a, b)
	return offset + 3
}

// closureInstruction prints CLOSURE's function-constant operand plus one
// line per captured upvalue, matching the compiler's emission in
// compiler_functions.go (isLocal byte, index byte per upvalue).
func (d *Disassembler) closureInstruction(offset int) int {
	code := d.chunk.Code
	constIx := int(code[offset+1])
	fmt.Fprintf(d.writer, "%-16s %4d '%s'\n", OpClosure.String(), constIx, d.chunk.Constants[constIx].String())

	upvalueCount := 0
	if fn, ok := functionFromConstant(d.chunk.Constants[constIx]); ok {
		upvalueCount = fn.UpvalueCount()
	}

	pos := offset + 2
	for i := 0; i < upvalueCount; i++ {
		isLocal := code[pos] != 0
		index := code[pos+1]
		kind := "upvalue"
		if isLocal {
			kind = "local"
		}
		fmt.Fprintf(d.writer, "%04d      |                     %s %d\n", pos, kind, index)
		pos += 2
	}
	return pos
}

// functionFromConstant unwraps the FunctionObject a CLOSURE operand
// refers to: the compiler stores it as a template closure with no
// upvalues bound yet (compiler_functions.go).
func functionFromConstant(v Value) (*FunctionObject, bool) {
	if !v.IsClosure() {
		return nil, false
	}
	return v.AsClosure().Function, true
}

// DisassembleToString renders chunk's full disassembly as a string, for
// snapshot tests and --dump-bytecode output.
func DisassembleToString(chunk *Chunk) string {
	var sb strings.Builder
	NewDisassembler(chunk, &sb).Disassemble()
	return sb.String()
}

// DisassembleToJSON renders chunk's disassembly as a JSON document (one
// object per instruction, plus the constant pool) instead of the
// line-oriented text format, for tooling that wants to consume a trace
// programmatically rather than parse --dump-bytecode's text columns.
// Built incrementally with sjson rather than marshaling a struct slice,
// since each instruction's shape (operand count, jump target, upvalue
// descriptors) varies by opcode the same way the JSON AST this module
// reads in does.
func DisassembleToJSON(chunk *Chunk) (string, error) {
	doc := `{"name":"","constants":[],"instructions":[]}`
	var err error
	doc, err = sjson.Set(doc, "name", chunk.Name)
	if err != nil {
		return "", err
	}
	for _, c := range chunk.Constants {
		doc, err = sjson.Set(doc, "constants.-1", c.String())
		if err != nil {
			return "", err
		}
	}

	for offset := 0; offset < len(chunk.Code); {
		op := OpCode(chunk.Code[offset])
		entry := map[string]any{
			"offset": offset,
			"line":   chunk.lineAt(offset),
			"op":     op.String(),
		}

		var next int
		switch op {
		case OpJump, OpJumpIfFalse, OpLoop, OpSetupTry:
			jumpOffset := readU16(chunk.Code, offset+1)
			entry["jumpOffset"] = jumpOffset
			next = offset + 3
		case OpClosure:
			constIx := int(chunk.Code[offset+1])
			entry["constIndex"] = constIx
			upvalueCount := 0
			if fn, ok := functionFromConstant(chunk.Constants[constIx]); ok {
				upvalueCount = fn.UpvalueCount()
			}
			next = offset + 2 + upvalueCount*2
		case OpCallMethod, OpIncProp, OpDecProp:
			entry["a"] = int(chunk.Code[offset+1])
			entry["b"] = int(chunk.Code[offset+2])
			next = offset + 3
		default:
			width := OperandWidth(op)
			if width == 1 {
				entry["operand"] = int(chunk.Code[offset+1])
			}
			next = offset + 1 + width
		}

		doc, err = sjson.SetRaw(doc, "instructions.-1", mustEncodeInstruction(entry))
		if err != nil {
			return "", err
		}
		offset = next
	}
	return doc, nil
}

// mustEncodeInstruction builds one instruction's JSON object by the same
// incremental sjson.Set approach as DisassembleToJSON's outer document,
// rather than pulling in encoding/json for a single flat map.
func mustEncodeInstruction(fields map[string]any) string {
	obj := "{}"
	for _, key := range []string{"offset", "line", "op", "jumpOffset", "constIndex", "a", "b", "operand"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		obj, _ = sjson.Set(obj, key, v)
	}
	return obj
}
