package textutil

import "strings"

// bracketSymbols maps the escaped bracket tokens emitted by Penn Treebank style
// tokenizers back to the characters they stand for.
var bracketSymbols = map[string]string{
	"-LRB-": "(",
	"-RRB-": ")",
	"-LCB-": "{",
	"-RCB-": "}",
	"-LSB-": "[",
	"-RSB-": "]",
}

// CleanSymbol restores an escaped bracket token; other tokens pass through.
func CleanSymbol(tok string) string {
	if s, ok := bracketSymbols[tok]; ok {
		return s
	}
	return tok
}

// CleanSymbols applies CleanSymbol to every token, returning a new slice.
func CleanSymbols(toks []string) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = CleanSymbol(t)
	}
	return out
}

// StripNonASCII drops every code point above 0x7F. Nothing is transliterated.
func StripNonASCII(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
