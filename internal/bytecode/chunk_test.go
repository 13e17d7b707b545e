package bytecode

import "testing"

func TestAddConstantReturnsSequentialIndices(t *testing.T) {
	c := NewChunk("test")
	i0, err := c.addConstant(NumberValue(1))
	if err != nil {
		t.Fatalf("addConstant: %v", err)
	}
	i1, err := c.addConstant(NumberValue(2))
	if err != nil {
		t.Fatalf("addConstant: %v", err)
	}
	if i0 != 0 || i1 != 1 {
		t.Fatalf("expected sequential indices 0,1, got %d,%d", i0, i1)
	}
}

func TestAddConstantOverflowsPastLimit(t *testing.T) {
	c := NewChunk("test")
	for i := 0; i < 256; i++ {
		if _, err := c.addConstant(NumberValue(float64(i))); err != nil {
			t.Fatalf("unexpected overflow at entry %d: %v", i, err)
		}
	}
	if _, err := c.addConstant(NumberValue(999)); err == nil {
		t.Fatal("expected an error when adding a 257th constant")
	}
}

func TestEmitJumpAndPatchJumpComputesForwardOffset(t *testing.T) {
	c := NewChunk("test")
	c.emitOp(OpPushTrue, 1)
	jumpPos := c.emitJump(OpJumpIfFalse, 1)
	c.emitOp(OpPop, 2)
	c.emitOp(OpPop, 3)
	if err := c.patchJump(jumpPos); err != nil {
		t.Fatalf("patchJump: %v", err)
	}

	target := readU16(c.Code, jumpPos)
	wantTarget := len(c.Code) - jumpPos - 2
	if target != wantTarget {
		t.Fatalf("expected patched offset %d, got %d", wantTarget, target)
	}
}

func TestEmitLoopEncodesBackwardOffset(t *testing.T) {
	c := NewChunk("test")
	loopStart := len(c.Code)
	c.emitOp(OpPushTrue, 1)
	c.emitOp(OpPop, 1)
	if err := c.emitLoop(loopStart, 2); err != nil {
		t.Fatalf("emitLoop: %v", err)
	}

	offsetPos := len(c.Code) - 2
	offset := readU16(c.Code, offsetPos)
	wantOffset := len(c.Code) - loopStart
	if offset != wantOffset {
		t.Fatalf("expected loop offset %d, got %d", wantOffset, offset)
	}
}

func TestLineAtOutOfRangeReturnsZero(t *testing.T) {
	c := NewChunk("test")
	c.emitOp(OpPushTrue, 7)
	if got := c.lineAt(0); got != 7 {
		t.Fatalf("expected line 7 at pc 0, got %d", got)
	}
	if got := c.lineAt(100); got != 0 {
		t.Fatalf("expected 0 for an out-of-range pc, got %d", got)
	}
}
