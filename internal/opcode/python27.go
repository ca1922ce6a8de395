package opcode

import "github.com/retroenv/retrogolib/set"

// CPython 2.7 opcode values, see Include/opcode.h of the 2.7 tree.
const (
	py27StopCode          = 0
	py27PopTop            = 1
	py27RotTwo            = 2
	py27RotThree          = 3
	py27DupTop            = 4
	py27RotFour           = 5
	py27Nop               = 9
	py27UnaryPositive     = 10
	py27UnaryNegative     = 11
	py27UnaryNot          = 12
	py27UnaryConvert      = 13
	py27UnaryInvert       = 15
	py27BinaryPower       = 19
	py27BinaryMultiply    = 20
	py27BinaryDivide      = 21
	py27BinaryModulo      = 22
	py27BinaryAdd         = 23
	py27BinarySubtract    = 24
	py27BinarySubscr      = 25
	py27BinaryFloorDivide = 26
	py27BinaryTrueDivide  = 27
	py27InplaceFloorDiv   = 28
	py27InplaceTrueDiv    = 29
	py27Slice0            = 30
	py27Slice1            = 31
	py27Slice2            = 32
	py27Slice3            = 33
	py27StoreSlice0       = 40
	py27StoreSlice1       = 41
	py27StoreSlice2       = 42
	py27StoreSlice3       = 43
	py27DeleteSlice0      = 50
	py27DeleteSlice1      = 51
	py27DeleteSlice2      = 52
	py27DeleteSlice3      = 53
	py27StoreMap          = 54
	py27InplaceAdd        = 55
	py27InplaceSubtract   = 56
	py27InplaceMultiply   = 57
	py27InplaceDivide     = 58
	py27InplaceModulo     = 59
	py27StoreSubscr       = 60
	py27DeleteSubscr      = 61
	py27BinaryLshift      = 62
	py27BinaryRshift      = 63
	py27BinaryAnd         = 64
	py27BinaryXor         = 65
	py27BinaryOr          = 66
	py27InplacePower      = 67
	py27GetIter           = 68
	py27PrintExpr         = 70
	py27PrintItem         = 71
	py27PrintNewline      = 72
	py27PrintItemTo       = 73
	py27PrintNewlineTo    = 74
	py27InplaceLshift     = 75
	py27InplaceRshift     = 76
	py27InplaceAnd        = 77
	py27InplaceXor        = 78
	py27InplaceOr         = 79
	py27BreakLoop         = 80
	py27WithCleanup       = 81
	py27LoadLocals        = 82
	py27ReturnValue       = 83
	py27ImportStar        = 84
	py27ExecStmt          = 85
	py27YieldValue        = 86
	py27PopBlock          = 87
	py27EndFinally        = 88
	py27BuildClass        = 89
	py27HaveArgument      = 90
	py27StoreName         = 90
	py27DeleteName        = 91
	py27UnpackSequence    = 92
	py27ForIter           = 93
	py27ListAppend        = 94
	py27StoreAttr         = 95
	py27DeleteAttr        = 96
	py27StoreGlobal       = 97
	py27DeleteGlobal      = 98
	py27DupTopX           = 99
	py27LoadConst         = 100
	py27LoadName          = 101
	py27BuildTuple        = 102
	py27BuildList         = 103
	py27BuildSet          = 104
	py27BuildMap          = 105
	py27LoadAttr          = 106
	py27CompareOp         = 107
	py27ImportName        = 108
	py27ImportFrom        = 109
	py27JumpForward       = 110
	py27JumpIfFalseOrPop  = 111
	py27JumpIfTrueOrPop   = 112
	py27JumpAbsolute      = 113
	py27PopJumpIfFalse    = 114
	py27PopJumpIfTrue     = 115
	py27LoadGlobal        = 116
	py27ContinueLoop      = 119
	py27SetupLoop         = 120
	py27SetupExcept       = 121
	py27SetupFinally      = 122
	py27LoadFast          = 124
	py27StoreFast         = 125
	py27DeleteFast        = 126
	py27RaiseVarargs      = 130
	py27CallFunction      = 131
	py27MakeFunction      = 132
	py27BuildSlice        = 133
	py27MakeClosure       = 134
	py27LoadClosure       = 135
	py27LoadDeref         = 136
	py27StoreDeref        = 137
	py27CallFunctionVar   = 140
	py27CallFunctionKw    = 141
	py27CallFunctionVarKw = 142
	py27SetupWith         = 143
	py27ExtendedArg       = 145
	py27SetAdd            = 146
	py27MapAdd            = 147
)

var py27Names = map[byte]string{
	py27StopCode:          "STOP_CODE",
	py27PopTop:            "POP_TOP",
	py27RotTwo:            "ROT_TWO",
	py27RotThree:          "ROT_THREE",
	py27DupTop:            "DUP_TOP",
	py27RotFour:           "ROT_FOUR",
	py27Nop:               "NOP",
	py27UnaryPositive:     "UNARY_POSITIVE",
	py27UnaryNegative:     "UNARY_NEGATIVE",
	py27UnaryNot:          "UNARY_NOT",
	py27UnaryConvert:      "UNARY_CONVERT",
	py27UnaryInvert:       "UNARY_INVERT",
	py27BinaryPower:       "BINARY_POWER",
	py27BinaryMultiply:    "BINARY_MULTIPLY",
	py27BinaryDivide:      "BINARY_DIVIDE",
	py27BinaryModulo:      "BINARY_MODULO",
	py27BinaryAdd:         "BINARY_ADD",
	py27BinarySubtract:    "BINARY_SUBTRACT",
	py27BinarySubscr:      "BINARY_SUBSCR",
	py27BinaryFloorDivide: "BINARY_FLOOR_DIVIDE",
	py27BinaryTrueDivide:  "BINARY_TRUE_DIVIDE",
	py27InplaceFloorDiv:   "INPLACE_FLOOR_DIVIDE",
	py27InplaceTrueDiv:    "INPLACE_TRUE_DIVIDE",
	py27Slice0:            "SLICE+0",
	py27Slice1:            "SLICE+1",
	py27Slice2:            "SLICE+2",
	py27Slice3:            "SLICE+3",
	py27StoreSlice0:       "STORE_SLICE+0",
	py27StoreSlice1:       "STORE_SLICE+1",
	py27StoreSlice2:       "STORE_SLICE+2",
	py27StoreSlice3:       "STORE_SLICE+3",
	py27DeleteSlice0:      "DELETE_SLICE+0",
	py27DeleteSlice1:      "DELETE_SLICE+1",
	py27DeleteSlice2:      "DELETE_SLICE+2",
	py27DeleteSlice3:      "DELETE_SLICE+3",
	py27StoreMap:          "STORE_MAP",
	py27InplaceAdd:        "INPLACE_ADD",
	py27InplaceSubtract:   "INPLACE_SUBTRACT",
	py27InplaceMultiply:   "INPLACE_MULTIPLY",
	py27InplaceDivide:     "INPLACE_DIVIDE",
	py27InplaceModulo:     "INPLACE_MODULO",
	py27StoreSubscr:       "STORE_SUBSCR",
	py27DeleteSubscr:      "DELETE_SUBSCR",
	py27BinaryLshift:      "BINARY_LSHIFT",
	py27BinaryRshift:      "BINARY_RSHIFT",
	py27BinaryAnd:         "BINARY_AND",
	py27BinaryXor:         "BINARY_XOR",
	py27BinaryOr:          "BINARY_OR",
	py27InplacePower:      "INPLACE_POWER",
	py27GetIter:           "GET_ITER",
	py27PrintExpr:         "PRINT_EXPR",
	py27PrintItem:         "PRINT_ITEM",
	py27PrintNewline:      "PRINT_NEWLINE",
	py27PrintItemTo:       "PRINT_ITEM_TO",
	py27PrintNewlineTo:    "PRINT_NEWLINE_TO",
	py27InplaceLshift:     "INPLACE_LSHIFT",
	py27InplaceRshift:     "INPLACE_RSHIFT",
	py27InplaceAnd:        "INPLACE_AND",
	py27InplaceXor:        "INPLACE_XOR",
	py27InplaceOr:         "INPLACE_OR",
	py27BreakLoop:         "BREAK_LOOP",
	py27WithCleanup:       "WITH_CLEANUP",
	py27LoadLocals:        "LOAD_LOCALS",
	py27ReturnValue:       "RETURN_VALUE",
	py27ImportStar:        "IMPORT_STAR",
	py27ExecStmt:          "EXEC_STMT",
	py27YieldValue:        "YIELD_VALUE",
	py27PopBlock:          "POP_BLOCK",
	py27EndFinally:        "END_FINALLY",
	py27BuildClass:        "BUILD_CLASS",
	py27StoreName:         "STORE_NAME",
	py27DeleteName:        "DELETE_NAME",
	py27UnpackSequence:    "UNPACK_SEQUENCE",
	py27ForIter:           "FOR_ITER",
	py27ListAppend:        "LIST_APPEND",
	py27StoreAttr:         "STORE_ATTR",
	py27DeleteAttr:        "DELETE_ATTR",
	py27StoreGlobal:       "STORE_GLOBAL",
	py27DeleteGlobal:      "DELETE_GLOBAL",
	py27DupTopX:           "DUP_TOPX",
	py27LoadConst:         "LOAD_CONST",
	py27LoadName:          "LOAD_NAME",
	py27BuildTuple:        "BUILD_TUPLE",
	py27BuildList:         "BUILD_LIST",
	py27BuildSet:          "BUILD_SET",
	py27BuildMap:          "BUILD_MAP",
	py27LoadAttr:          "LOAD_ATTR",
	py27CompareOp:         "COMPARE_OP",
	py27ImportName:        "IMPORT_NAME",
	py27ImportFrom:        "IMPORT_FROM",
	py27JumpForward:       "JUMP_FORWARD",
	py27JumpIfFalseOrPop:  "JUMP_IF_FALSE_OR_POP",
	py27JumpIfTrueOrPop:   "JUMP_IF_TRUE_OR_POP",
	py27JumpAbsolute:      "JUMP_ABSOLUTE",
	py27PopJumpIfFalse:    "POP_JUMP_IF_FALSE",
	py27PopJumpIfTrue:     "POP_JUMP_IF_TRUE",
	py27LoadGlobal:        "LOAD_GLOBAL",
	py27ContinueLoop:      "CONTINUE_LOOP",
	py27SetupLoop:         "SETUP_LOOP",
	py27SetupExcept:       "SETUP_EXCEPT",
	py27SetupFinally:      "SETUP_FINALLY",
	py27LoadFast:          "LOAD_FAST",
	py27StoreFast:         "STORE_FAST",
	py27DeleteFast:        "DELETE_FAST",
	py27RaiseVarargs:      "RAISE_VARARGS",
	py27CallFunction:      "CALL_FUNCTION",
	py27MakeFunction:      "MAKE_FUNCTION",
	py27BuildSlice:        "BUILD_SLICE",
	py27MakeClosure:       "MAKE_CLOSURE",
	py27LoadClosure:       "LOAD_CLOSURE",
	py27LoadDeref:         "LOAD_DEREF",
	py27StoreDeref:        "STORE_DEREF",
	py27CallFunctionVar:   "CALL_FUNCTION_VAR",
	py27CallFunctionKw:    "CALL_FUNCTION_KW",
	py27CallFunctionVarKw: "CALL_FUNCTION_VAR_KW",
	py27SetupWith:         "SETUP_WITH",
	py27ExtendedArg:       "EXTENDED_ARG",
	py27SetAdd:            "SET_ADD",
	py27MapAdd:            "MAP_ADD",
}

// newSet creates an opcode set from its members.
func newSet(ops ...byte) set.Set[byte] {
	s := set.New[byte]()
	for _, op := range ops {
		s.Add(op)
	}
	return s
}

// Python27 returns the instruction metadata table for CPython 2.7 bytecode.
func Python27() *Table {
	t := &Table{
		Version:      "2.7",
		Magic:        0x0a0df303,
		haveArgument: py27HaveArgument,

		Const: newSet(py27LoadConst),
		Name: newSet(
			py27StoreName, py27DeleteName, py27StoreAttr, py27DeleteAttr,
			py27StoreGlobal, py27DeleteGlobal, py27LoadName, py27LoadAttr,
			py27ImportName, py27ImportFrom, py27LoadGlobal,
		),
		JumpRel: newSet(
			py27ForIter, py27JumpForward, py27SetupLoop, py27SetupExcept,
			py27SetupFinally, py27SetupWith,
		),
		JumpAbs: newSet(
			py27JumpIfFalseOrPop, py27JumpIfTrueOrPop, py27JumpAbsolute,
			py27PopJumpIfFalse, py27PopJumpIfTrue, py27ContinueLoop,
		),
		Local:       newSet(py27LoadFast, py27StoreFast, py27DeleteFast),
		Compare:     newSet(py27CompareOp),
		Free:        newSet(py27LoadClosure, py27LoadDeref, py27StoreDeref),
		ExtendedArg: py27ExtendedArg,

		Statement: newSet(
			py27SetupLoop, py27BreakLoop, py27ContinueLoop,
			py27SetupFinally, py27EndFinally, py27SetupExcept, py27SetupWith,
			py27PopBlock, py27StoreFast, py27DeleteFast, py27StoreDeref,
			py27StoreGlobal, py27DeleteGlobal, py27StoreName, py27DeleteName,
			py27StoreAttr, py27DeleteAttr, py27StoreSubscr, py27DeleteSubscr,
			py27ReturnValue, py27RaiseVarargs, py27PopTop,
			py27PrintExpr, py27PrintItem, py27PrintNewline,
			py27PrintItemTo, py27PrintNewlineTo,
			py27StoreSlice0, py27StoreSlice1, py27StoreSlice2, py27StoreSlice3,
			py27DeleteSlice0, py27DeleteSlice1, py27DeleteSlice2, py27DeleteSlice3,
			py27JumpAbsolute, py27ExecStmt,
		),
		Designator: newSet(
			py27StoreFast, py27StoreName, py27StoreGlobal, py27StoreDeref,
			py27StoreAttr, py27StoreSubscr, py27UnpackSequence, py27JumpAbsolute,
			py27StoreSlice0, py27StoreSlice1, py27StoreSlice2, py27StoreSlice3,
		),

		PopJumpIfFalse:   py27PopJumpIfFalse,
		PopJumpIfTrue:    py27PopJumpIfTrue,
		JumpIfFalseOrPop: py27JumpIfFalseOrPop,
		JumpIfTrueOrPop:  py27JumpIfTrueOrPop,
		JumpForward:      py27JumpForward,
		JumpAbsolute:     py27JumpAbsolute,
		SetupLoop:        py27SetupLoop,
		ForIter:          py27ForIter,
		ReturnValue:      py27ReturnValue,
		PopBlock:         py27PopBlock,
		PopTop:           py27PopTop,
		RotTwo:           py27RotTwo,
		ListAppend:       py27ListAppend,

		CompareOps: []string{
			"<", "<=", "==", "!=", ">", ">=",
			"in", "not in", "is", "is not", "exception match", "BAD",
		},
	}

	for op, name := range py27Names {
		t.names[op] = name
	}
	return t
}
