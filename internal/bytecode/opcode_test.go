package bytecode

import "testing"

func TestOperandWidthMatchesInstructionShape(t *testing.T) {
	cases := []struct {
		op   OpCode
		want int
	}{
		{OpPushConst, 1},
		{OpPop, 0},
		{OpGetLocal, 1},
		{OpJump, 2},
		{OpJumpIfFalse, 2},
		{OpLoop, 2},
		{OpSetupTry, 2},
		{OpCall, 1},
		{OpCallMethod, 2},
		{OpClosure, 1},
		{OpIncProp, 2},
		{OpGetIndex, 0},
	}
	for _, c := range cases {
		if got := OperandWidth(c.op); got != c.want {
			t.Errorf("OperandWidth(%s) = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestOpCodeStringIsNeverEmptyForDefinedOps(t *testing.T) {
	for op := OpCode(0); op < opCodeCount; op++ {
		if op.String() == "" {
			t.Errorf("opcode %d has no mnemonic registered", op)
		}
	}
}
