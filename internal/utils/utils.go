package utils

import "strings"

// UniqueSymbols trims symbols, drops blanks and keeps the first occurrence of
// each symbol in its original order.
func UniqueSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var unique []string
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
	}
	return unique
}
