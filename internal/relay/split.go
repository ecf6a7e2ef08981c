package relay

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// SplitReply разбивает текст на части не длиннее maxLen символов.
// Символы считаются как в Telegram: в кодовых единицах UTF-16, поэтому
// эмодзи и прочие символы вне BMP занимают две единицы.
// Текст, помещающийся в лимит, возвращается одной частью без изменений.
// Разрыв ищется сначала по переводу строки, затем по пробелу во второй
// половине окна; если их нет, текст режется по лимиту.
func SplitReply(text string, maxLen int) []string {
	runes := []rune(text)
	if maxLen <= 0 || utf16Len(runes) <= maxLen {
		return []string{text}
	}

	var parts []string
	for utf16Len(runes) > maxLen {
		cut := breakPoint(runes[:windowEnd(runes, maxLen)])
		if part := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace); part != "" {
			parts = append(parts, part)
		}
		runes = trimLeadingSpace(runes[cut:])
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	// невалидные руны кодируются как U+FFFD
	return 1
}

// windowEnd возвращает число рун, помещающихся в maxLen единиц UTF-16.
// Окно всегда содержит хотя бы одну руну, чтобы цикл продвигался.
func windowEnd(runes []rune, maxLen int) int {
	units := 0
	for i, r := range runes {
		units += runeUnits(r)
		if units > maxLen {
			if i == 0 {
				return 1
			}
			return i
		}
	}
	return len(runes)
}

func breakPoint(window []rune) int {
	lowest := len(window) / 2
	for i := len(window) - 1; i >= lowest; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i >= lowest; i-- {
		if unicode.IsSpace(window[i]) {
			return i + 1
		}
	}
	return len(window)
}

func trimLeadingSpace(runes []rune) []rune {
	for len(runes) > 0 && unicode.IsSpace(runes[0]) {
		runes = runes[1:]
	}
	return runes
}
