package export

import "strings"

// Characters observed in what are not really file extensions.
const unexpectedChars = "=&"

// ExtensionType classifies a file extension for the Alt export:
//
//	Num  all digits
//	Bak  contains a tilde (editor backup)
//	Hex  long hexadecimal string
//	Not  contains characters that never appear in real extensions
//	Txt  everything else
func ExtensionType(ext string) string {
	ext = strings.TrimPrefix(ext, ".")

	switch {
	case isNumeric(ext):
		return "Num"
	case strings.Contains(ext, "~"):
		return "Bak"
	case len(ext) > 5 && isHex(ext):
		// Require a minimum length. For example, the extension '.accdb'
		// is valid hexadecimal, but should be type 'Txt'.
		return "Hex"
	case strings.ContainsAny(ext, unexpectedChars):
		return "Not"
	default:
		return "Txt"
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
