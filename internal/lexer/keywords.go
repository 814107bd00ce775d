package lexer

import "basiccompiler/internal/token"

// keywords maps the upper-cased spelling of a reserved word to its
// token type. Multi-word END keywords (END IF, END SUB, ...) are
// folded into one compound token by the scanner itself, through
// endWords below; underscored words such as BOUNDS_CHECK and
// FORCE_YIELD are single lexemes.
var keywords = map[string]token.Type{
	"OPTION":       token.KwOption,
	"BASE":         token.KwBase,
	"EXPLICIT":     token.KwExplicit,
	"BOUNDS_CHECK": token.KwBoundsCheck,
	"UNICODE":      token.KwUnicode,
	"ASCII":        token.KwAscii,
	"DETECTSTRING": token.KwDetectStr,
	"CANCELLABLE":  token.KwCancellable,
	"FORCE_YIELD":  token.KwForceYield,
	"SAMM":         token.KwSamm,
	"BITWISE":      token.KwBitwise,
	"LOGICAL":      token.KwLogical,
	"ERROR":        token.KwError,
	"ON":           token.KwOn,
	"OFF":          token.KwOff,

	"DIM":      token.KwDim,
	"REDIM":    token.KwRedim,
	"PRESERVE": token.KwPreserve,
	"GLOBAL":   token.KwGlobal,
	"CONSTANT": token.KwConstant,
	"TYPE":     token.KwType,
	"CLASS":    token.KwClass,
	"EXTENDS":  token.KwExtends,
	"METHOD":   token.KwMethod,
	"NEW":      token.KwNew,
	"SUPER":    token.KwSuper,
	"NOTHING":  token.KwNothing,
	"IS":       token.KwIs,
	"DELETE":   token.KwDelete,
	"AS":       token.KwAs,

	"SUB":      token.KwSub,
	"FUNCTION": token.KwFunction,
	"RETURN":   token.KwReturn,
	"BYREF":    token.KwByref,
	"BYVAL":    token.KwByval,
	"CALL":     token.KwCall,

	"IF":     token.KwIf,
	"THEN":   token.KwThen,
	"ELSE":   token.KwElse,
	"ELSEIF": token.KwElseIf,

	"FOR":    token.KwFor,
	"TO":     token.KwTo,
	"STEP":   token.KwStep,
	"NEXT":   token.KwNext,
	"EACH":   token.KwEach,
	"IN":     token.KwIn,
	"WHILE":  token.KwWhile,
	"WEND":   token.KwWend,
	"DO":     token.KwDo,
	"LOOP":   token.KwLoop,
	"UNTIL":  token.KwUntil,
	"REPEAT": token.KwRepeat,
	"EXIT":   token.KwExit,

	"SELECT":    token.KwSelect,
	"CASE":      token.KwCase,
	"OTHERWISE": token.KwOtherwise,

	"MATCH": token.KwMatch,

	"TRY":     token.KwTry,
	"CATCH":   token.KwCatch,
	"FINALLY": token.KwFinally,
	"THROW":   token.KwThrow,

	"GOTO":    token.KwGoto,
	"GOSUB":   token.KwGosub,
	"RESTORE": token.KwRestore,
	"DATA":    token.KwData,
	"READ":    token.KwRead,

	"AFTER":       token.KwAfter,
	"EVERY":       token.KwEvery,
	"AFTERFRAMES": token.KwAfterFrames,
	"EVERYFRAME":  token.KwEveryFrame,
	"DONE":        token.KwDoneKw,

	"PRINT":    token.KwPrint,
	"INPUT":    token.KwInput,
	"INPUT_AT": token.KwInputAt,

	"LIST":    token.KwList,
	"OF":      token.KwOf,
	"ANY":     token.KwAny,
	"HASHMAP": token.KwHashmap,
	"OBJECT":  token.KwObject,

	"AND": token.KwAnd,
	"OR":  token.KwOr,
	"NOT": token.KwNot,
	"XOR": token.KwXor,
	"IMP": token.KwImp,
	"EQV": token.KwEqv,
	"MOD": token.KwMod,

	"BYTE":      token.KwByte,
	"SHORT":     token.KwShort,
	"INTEGER":   token.KwInteger,
	"LONG":      token.KwLong,
	"UBYTE":     token.KwUByte,
	"USHORT":    token.KwUShort,
	"UINTEGER":  token.KwUInteger,
	"ULONG":     token.KwULong,
	"SINGLE":    token.KwSingle,
	"DOUBLE":    token.KwDouble,
	"STRING":    token.KwStringT,
}

// endWords maps a closer keyword (IF, SUB, ...) following END to its
// compound token type, used by the scanner to fold "END IF" etc. into
// a single logical token type string used by the parser.
var endWords = map[string]token.Type{
	"IF":       token.KwEndIf,
	"SUB":      token.KwEndSub,
	"FUNCTION": token.KwEndFunction,
	"TYPE":     token.KwEndType,
	"CLASS":    token.KwEndClass,
	"METHOD":   token.KwEndMethod,
	"SELECT":   token.KwEndSelect,
	"MATCH":    token.KwEndMatch,
	"TRY":      token.KwEndTry,
}
