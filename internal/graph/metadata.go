package graph

// BuiltInType enumerates the keyword types.
type BuiltInType int

const (
	BuiltInObject BuiltInType = iota
	BuiltInString
	BuiltInBool
	BuiltInChar
	BuiltInSByte
	BuiltInByte
	BuiltInShort
	BuiltInUShort
	BuiltInInt
	BuiltInUInt
	BuiltInLong
	BuiltInULong
	BuiltInFloat
	BuiltInDouble
	BuiltInDecimal
	BuiltInVoid
)

var builtInInfo = []struct {
	keyword  string
	metadata string
}{
	BuiltInObject:  {"object", "System.Object"},
	BuiltInString:  {"string", "System.String"},
	BuiltInBool:    {"bool", "System.Boolean"},
	BuiltInChar:    {"char", "System.Char"},
	BuiltInSByte:   {"sbyte", "System.SByte"},
	BuiltInByte:    {"byte", "System.Byte"},
	BuiltInShort:   {"short", "System.Int16"},
	BuiltInUShort:  {"ushort", "System.UInt16"},
	BuiltInInt:     {"int", "System.Int32"},
	BuiltInUInt:    {"uint", "System.UInt32"},
	BuiltInLong:    {"long", "System.Int64"},
	BuiltInULong:   {"ulong", "System.UInt64"},
	BuiltInFloat:   {"float", "System.Single"},
	BuiltInDouble:  {"double", "System.Double"},
	BuiltInDecimal: {"decimal", "System.Decimal"},
	BuiltInVoid:    {"void", "System.Void"},
}

// BuiltInTypes lists every keyword type.
func BuiltInTypes() []BuiltInType {
	out := make([]BuiltInType, len(builtInInfo))
	for i := range builtInInfo {
		out[i] = BuiltInType(i)
	}
	return out
}

func (b BuiltInType) Keyword() string      { return builtInInfo[b].keyword }
func (b BuiltInType) MetadataName() string { return builtInInfo[b].metadata }
func (b BuiltInType) String() string       { return b.Keyword() }

// ParseBuiltInType maps a type keyword to its BuiltInType.
func ParseBuiltInType(keyword string) (BuiltInType, bool) {
	for i, info := range builtInInfo {
		if info.keyword == keyword {
			return BuiltInType(i), true
		}
	}
	return 0, false
}

// MetadataProvider supplies host types imported from compiled libraries.
// Every method returns nil while the metadata has not been imported; callers
// defer resolution in that case.
type MetadataProvider interface {
	BuiltInType(b BuiltInType) TypeEntity
	// ArrayBaseType is the class every array type derives from (System.Array).
	ArrayBaseType() TypeEntity
	// NullableDefinition is the generic definition T? expands to (System.Nullable<T>).
	NullableDefinition() TypeEntity
}
