package cli

import (
	"fmt"
	"strings"
	"unicode"
)

// Split разбивает строку интерактивного ввода на аргументы.
// Кавычка открывает группу только в начале аргумента, "" дает пустой аргумент,
// апостроф внутри слова (I'm) остается буквой.
// Обратный слэш экранирует только кавычку или другой слэш и только вне
// одинарных кавычек; в остальных случаях он литерал (C:\temp\new).
func Split(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		inArg bool
		quote rune
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && quote != '\'' && i+1 < len(runes) && isEscapable(runes[i+1]):
			i++
			cur.WriteRune(runes[i])
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case (r == '"' || r == '\'') && !inArg:
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated %c quote", ErrUsage, quote)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func isEscapable(r rune) bool {
	return r == '"' || r == '\'' || r == '\\'
}
