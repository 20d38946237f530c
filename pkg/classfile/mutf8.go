package classfile

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// decodeModifiedUTF8 decodes the modified UTF-8 of JVMS §4.4.7: NUL is
// encoded as C0 80 and supplementary characters as surrogate pairs of
// three-byte sequences. Invalid sequences become U+FFFD.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c != 0 && c < 0x80:
			sb.WriteByte(c)
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && cont(b[i+1]):
			sb.WriteRune(rune(c&0x1F)<<6 | rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && cont(b[i+1]) && cont(b[i+2]):
			r := three(b[i:])
			i += 3
			if utf16.IsSurrogate(r) && r < 0xDC00 && i+2 < len(b) && b[i] == 0xED && cont(b[i+1]) && cont(b[i+2]) {
				if lo := three(b[i:]); lo >= 0xDC00 && lo <= 0xDFFF {
					r = utf16.DecodeRune(r, lo)
					i += 3
				}
			}
			// lone surrogates are written as U+FFFD by WriteRune
			sb.WriteRune(r)
		default:
			sb.WriteRune(utf8.RuneError)
			i++
		}
	}
	return sb.String()
}

func cont(c byte) bool { return c&0xC0 == 0x80 }

func three(b []byte) rune {
	return rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
}
