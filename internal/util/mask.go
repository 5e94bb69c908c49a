package util

import "strings"

// MaskSecret deja visible el prefijo de la API key (pk_live_, tk_test_) y los
// últimos 4 caracteres. Pensado para logs.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	prefix := ""
	if parts := strings.SplitN(s, "_", 3); len(parts) == 3 {
		prefix = parts[0] + "_" + parts[1] + "_"
		s = parts[2]
	}
	if len(s) <= 4 {
		return prefix + "****"
	}
	return prefix + "…" + s[len(s)-4:]
}
