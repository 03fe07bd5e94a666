package dialect

import "fmt"

// Kind is the source language a translation unit is analysed as.
type Kind uint8

const (
	Unknown Kind = iota
	C
	CXX

	kindCount
)

func (k Kind) String() string {
	switch k {
	case C:
		return "c"
	case CXX:
		return "c++"
	default:
		return "unknown"
	}
}

func (k Kind) GoString() string {
	return fmt.Sprintf("dialect.Kind(%s)", k.String())
}

// Parse accepts the spellings used in cxxsema.toml and on the command line.
func Parse(s string) (Kind, error) {
	switch s {
	case "", "auto":
		return Unknown, nil
	case "c", "C":
		return C, nil
	case "c++", "cpp", "cxx", "C++":
		return CXX, nil
	}
	return Unknown, fmt.Errorf("unknown dialect %q (want auto, c or c++)", s)
}

// FromExtension maps a file extension to a dialect; headers stay Unknown.
func FromExtension(ext string) Kind {
	switch ext {
	case ".c":
		return C
	case ".cc", ".cpp", ".cxx", ".c++", ".C", ".hh", ".hpp", ".hxx":
		return CXX
	}
	return Unknown
}
