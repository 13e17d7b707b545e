package bytecode_test

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/vellum-lang/vellum/internal/bytecode"
	"github.com/vellum-lang/vellum/internal/jsonast"
)

func TestDisassembleToJSONProducesOneEntryPerInstruction(t *testing.T) {
	src := prog(consoleLog(strLit("hi")))
	program, err := jsonast.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fn, err := bytecode.Compile(program)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	doc, err := bytecode.DisassembleToJSON(fn.Chunk)
	if err != nil {
		t.Fatalf("DisassembleToJSON: %v", err)
	}
	if !gjson.Valid(doc) {
		t.Fatalf("expected valid JSON, got %s", doc)
	}

	result := gjson.Parse(doc)
	if result.Get("name").String() != fn.Chunk.Name {
		t.Fatalf("expected name %q, got %q", fn.Chunk.Name, result.Get("name").String())
	}
	instructions := result.Get("instructions").Array()
	if len(instructions) == 0 {
		t.Fatal("expected at least one disassembled instruction")
	}

	text := bytecode.DisassembleToString(fn.Chunk)
	textLines := 0
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.Contains(line, "==") || strings.Contains(line, "Constants:") || strings.Contains(line, "Code:") || strings.Contains(line, "[00") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		textLines++
	}
	if len(instructions) != textLines {
		t.Fatalf("expected JSON instruction count (%d) to match text disassembly instruction line count (%d)", len(instructions), textLines)
	}
}
