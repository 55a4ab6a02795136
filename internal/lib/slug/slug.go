// Package slug реализует генерацию URL-слагов для средств и статей.
package slug

import (
	"strconv"
	"strings"
	"unicode"
)

// Make строит слаг из произвольного названия: нижний регистр, латинские
// буквы и цифры, остальные символы схлопываются в одиночные дефисы.
func Make(name string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// MakeUnique добавляет числовой суффикс к слагу при коллизии.
func MakeUnique(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}
