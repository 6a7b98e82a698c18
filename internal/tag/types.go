package tag

import "fmt"

// Type identifies how an entry's payload is encoded.
type Type uint32

const (
	TypeNull        Type = 0
	TypeChar        Type = 1
	TypeInt8        Type = 2
	TypeInt16       Type = 3
	TypeInt32       Type = 4
	TypeInt64       Type = 5
	TypeString      Type = 6
	TypeBin         Type = 7
	TypeStringArray Type = 8
	TypeI18NString  Type = 9
)

var typeNames = map[Type]string{
	TypeNull:        "null",
	TypeChar:        "char",
	TypeInt8:        "int8",
	TypeInt16:       "int16",
	TypeInt32:       "int32",
	TypeInt64:       "int64",
	TypeString:      "string",
	TypeBin:         "bin",
	TypeStringArray: "string_array",
	TypeI18NString:  "i18n_string",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// ParseType maps a type name as produced by Type.String back to a Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tag type %q", name)
}

// Width returns the byte width of one element of a fixed-width type, or 0
// for variable-width (string) types and Null.
func (t Type) Width() int {
	switch t {
	case TypeChar, TypeInt8, TypeBin:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32:
		return 4
	case TypeInt64:
		return 8
	}
	return 0
}

// IsString reports whether the payload is a sequence of NUL-terminated strings.
func (t Type) IsString() bool {
	return t == TypeString || t == TypeStringArray || t == TypeI18NString
}

// Known reports whether t is one of the defined type tags.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}
