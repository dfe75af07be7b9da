package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// GlifExtension is appended to every exported glyph filename.
const GlifExtension = ".glif"

const maxFileNameLength = 255

var illegalCharacters = func() map[rune]struct{} {
	set := map[rune]struct{}{}
	for _, r := range "\"*+/:<>?[\\]|" {
		set[r] = struct{}{}
	}
	for r := rune(0); r < 32; r++ {
		set[r] = struct{}{}
	}
	set[0x7F] = struct{}{}
	return set
}()

var reservedFileNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "clock$": {}, "nul": {}, "a:-z:": {}, "com1": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "com2": {}, "com3": {}, "com4": {},
}

// UserNameToFileName converts a glyph name into a file-system safe name.
//
// Illegal characters become "_", every character that changes under
// lower-casing is followed by "_", a leading "." becomes "_" when no prefix is
// given, the result is clipped on a rune boundary so prefix+name+suffix fits in
// 255 bytes, and any dot-separated segment that matches a reserved device name
// is prefixed with "_".
func UserNameToFileName(userName, prefix, suffix string) string {
	if userName == "" {
		return prefix + suffix
	}
	if prefix == "" && strings.HasPrefix(userName, ".") {
		userName = "_" + userName[1:]
	}

	var b strings.Builder
	b.Grow(len(userName) * 2)
	for _, r := range userName {
		if _, illegal := illegalCharacters[r]; illegal {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
		if unicode.ToLower(r) != r {
			b.WriteRune('_')
		}
	}

	filtered := clampBytes(b.String(), maxFileNameLength-len(prefix)-len(suffix))

	parts := strings.Split(filtered, ".")
	for i, part := range parts {
		if _, reserved := reservedFileNames[strings.ToLower(part)]; reserved {
			parts[i] = "_" + part
		}
	}
	return prefix + strings.Join(parts, ".") + suffix
}

// clampBytes cuts s to at most limit bytes without splitting a rune.
func clampBytes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	end := 0
	for i, r := range s {
		if i+utf8.RuneLen(r) > limit {
			break
		}
		end = i + utf8.RuneLen(r)
	}
	return s[:end]
}

// GlifFileName returns the on-disk filename for a glyph name.
func GlifFileName(name string) string {
	return UserNameToFileName(name, "", GlifExtension)
}
