package util

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatFileSize: 1536 => "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	pow := 0
	v := float64(bytes)
	for v >= 1024 && pow < len(sizeUnits)-1 {
		v /= 1024
		pow++
	}
	v = math.Round(v*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[pow]
}

var (
	companySuffix = regexp.MustCompile(`(?i)\b(inc|corp|corporation|llc|ltd|limited)\b`)
	nonAS2        = regexp.MustCompile(`[^A-Z0-9]+`)
	nonSlug       = regexp.MustCompile(`[^a-z0-9]+`)
)

// GenerateAS2ID arma un AS2 id a partir de un nombre de empresa:
// "Acme Corp" => "ACME-AS2".
func GenerateAS2ID(company string) string {
	name := companySuffix.ReplaceAllString(company, "")
	id := nonAS2.ReplaceAllString(strings.ToUpper(strings.TrimSpace(name)), "-")
	id = strings.Trim(id, "-")
	if !strings.HasSuffix(id, "-AS2") {
		id += "-AS2"
	}
	return id
}

// Slugify pasa a lower-kebab: "Acme Pharma!" => "acme-pharma".
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// UniqueSlug agrega un sufijo hex de 6 caracteres al slug.
func UniqueSlug(name string) string {
	return Slugify(name) + "-" + RandomHex(3)
}

// RandomHex devuelve n bytes aleatorios en hex (2n caracteres).
func RandomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("util: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
