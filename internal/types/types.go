// Package types implements the static type system shared by the
// parser, semantic analyzer, and IR generator: TypeDescriptor plus the
// coercion lattice of spec.md §3/§4.3.
package types

// BaseType is the scalar/aggregate kind a TypeDescriptor carries.
type BaseType int

const (
	Unknown BaseType = iota
	Void
	Byte
	Short
	Integer
	Long
	UByte
	UShort
	UInteger
	ULong
	Single
	Double
	String
	Unicode
	UserDefined
	ClassInstance
	Object
	List
	Hashmap
)

func (b BaseType) String() string {
	switch b {
	case Void:
		return "VOID"
	case Byte:
		return "BYTE"
	case Short:
		return "SHORT"
	case Integer:
		return "INTEGER"
	case Long:
		return "LONG"
	case UByte:
		return "UBYTE"
	case UShort:
		return "USHORT"
	case UInteger:
		return "UINTEGER"
	case ULong:
		return "ULONG"
	case Single:
		return "SINGLE"
	case Double:
		return "DOUBLE"
	case String:
		return "STRING"
	case Unicode:
		return "UNICODE"
	case UserDefined:
		return "USER_DEFINED"
	case ClassInstance:
		return "CLASS_INSTANCE"
	case Object:
		return "OBJECT"
	case List:
		return "LIST"
	case Hashmap:
		return "HASHMAP"
	default:
		return "UNKNOWN"
	}
}

// TypeDescriptor fully describes a BASIC value's static type. Only the
// fields relevant to Base are populated; e.g. UDTName is set only when
// Base == UserDefined.
type TypeDescriptor struct {
	Base           BaseType
	UDTName        string
	UDTTypeID      int
	ClassName      string
	ListElement    *TypeDescriptor
	ObjectTypeName string
}

func Basic(b BaseType) TypeDescriptor { return TypeDescriptor{Base: b} }

func UDT(name string, id int) TypeDescriptor {
	return TypeDescriptor{Base: UserDefined, UDTName: name, UDTTypeID: id}
}

func Class(name string) TypeDescriptor {
	return TypeDescriptor{Base: ClassInstance, ClassName: name}
}

func ListOf(elem TypeDescriptor) TypeDescriptor {
	return TypeDescriptor{Base: List, ListElement: &elem}
}

// BitWidth returns the storage width in bits for scalar numeric types,
// 0 for anything else (strings, UDTs, class instances are handled by
// the runtime, not by fixed-width storage here).
func (t TypeDescriptor) BitWidth() int {
	switch t.Base {
	case Byte, UByte:
		return 8
	case Short, UShort:
		return 16
	case Integer, UInteger, Single:
		return 32
	case Long, ULong, Double:
		return 64
	default:
		return 0
	}
}

func (t TypeDescriptor) IsUnsigned() bool {
	switch t.Base {
	case UByte, UShort, UInteger, ULong:
		return true
	default:
		return false
	}
}

func (t TypeDescriptor) IsInteger() bool {
	switch t.Base {
	case Byte, Short, Integer, Long, UByte, UShort, UInteger, ULong:
		return true
	default:
		return false
	}
}

func (t TypeDescriptor) IsFloat() bool {
	return t.Base == Single || t.Base == Double
}

func (t TypeDescriptor) IsString() bool {
	return t.Base == String || t.Base == Unicode
}

func (t TypeDescriptor) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

func (t TypeDescriptor) IsClassInstance() bool {
	return t.Base == ClassInstance
}

func (t TypeDescriptor) Equal(o TypeDescriptor) bool {
	if t.Base != o.Base {
		return false
	}
	switch t.Base {
	case UserDefined:
		return t.UDTName == o.UDTName
	case ClassInstance:
		return t.ClassName == o.ClassName
	case List:
		if t.ListElement == nil || o.ListElement == nil {
			return t.ListElement == o.ListElement
		}
		return t.ListElement.Equal(*o.ListElement)
	default:
		return true
	}
}

// Coercion is the result of checking whether a value of type `from`
// may appear where `to` is expected.
type Coercion int

const (
	Identical Coercion = iota
	ImplicitSafe
	ImplicitLossy
	ExplicitRequired
	Incompatible
)

func (c Coercion) String() string {
	switch c {
	case Identical:
		return "IDENTICAL"
	case ImplicitSafe:
		return "IMPLICIT_SAFE"
	case ImplicitLossy:
		return "IMPLICIT_LOSSY"
	case ExplicitRequired:
		return "EXPLICIT_REQUIRED"
	default:
		return "INCOMPATIBLE"
	}
}

// integerRank orders integer widths for widening/narrowing decisions.
var integerRank = map[BaseType]int{
	Byte: 0, UByte: 0,
	Short: 1, UShort: 1,
	Integer: 2, UInteger: 2,
	Long: 3, ULong: 3,
}

// CheckCoercion implements the lattice of spec.md §4.3:
//
//	check_coercion(T, T)                  == IDENTICAL
//	check_coercion(INTEGER, LONG)         == IMPLICIT_SAFE   (widening)
//	check_coercion(DOUBLE, INTEGER)       == EXPLICIT_REQUIRED (float->int)
//	check_coercion(STRING, INTEGER)       == EXPLICIT_REQUIRED (string<->number)
//	narrowing between integer widths, or DOUBLE->SINGLE        == IMPLICIT_LOSSY
//	STRING<->UNICODE                                            == IMPLICIT_SAFE
func CheckCoercion(from, to TypeDescriptor) Coercion {
	if from.Equal(to) {
		return Identical
	}

	if from.IsString() && to.IsString() {
		return ImplicitSafe
	}

	if from.IsNumeric() && to.IsString() || from.IsString() && to.IsNumeric() {
		return ExplicitRequired
	}

	if from.IsInteger() && to.IsInteger() {
		fr, fok := integerRank[from.Base]
		tr, tok := integerRank[to.Base]
		if fok && tok {
			if tr > fr {
				return ImplicitSafe
			}
			if tr < fr {
				return ImplicitLossy
			}
			// Same width, signed<->unsigned: lossy (reinterpretation).
			return ImplicitLossy
		}
	}

	if from.IsInteger() && to.IsFloat() {
		return ImplicitSafe
	}
	if from.IsFloat() && to.IsInteger() {
		return ExplicitRequired
	}
	if from.Base == Double && to.Base == Single {
		return ImplicitLossy
	}
	if from.Base == Single && to.Base == Double {
		return ImplicitSafe
	}

	if from.Base == ClassInstance && to.Base == ClassInstance {
		// Upcast to a named ancestor is checked by the caller (sema
		// has the class hierarchy); the lattice alone can't know it,
		// so treat distinct class names as requiring an explicit IS
		// check rather than silently allowing or rejecting here.
		return ExplicitRequired
	}

	if from.Base == UserDefined && to.Base == UserDefined {
		if from.UDTName == to.UDTName {
			return Identical
		}
		return Incompatible
	}

	return Incompatible
}
