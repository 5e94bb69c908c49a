package util

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

const (
	ContentTypeX12     = "application/edi-x12"
	ContentTypeEDIFACT = "application/edifact"
	ContentTypeXML     = "application/xml"
	ContentTypeJSON    = "application/json"
	ContentTypeBinary  = "application/octet-stream"
)

var extTypes = map[string]string{
	".edi":  ContentTypeX12,
	".x12":  ContentTypeX12,
	".xml":  ContentTypeXML,
	".json": ContentTypeJSON,
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".text": "text/plain",
	".csv":  "text/csv",
	".zip":  "application/zip",
}

// ContentTypeFromFilename resuelve por extensión; desconocida => octet-stream.
func ContentTypeFromFilename(name string) string {
	if t, ok := extTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return ContentTypeBinary
}

// DetectContentType prueba primero el nombre de archivo y después el contenido:
// ISA => X12, UNA/UNB => EDIFACT, '<' => XML, JSON válido => JSON.
func DetectContentType(content, filename string) string {
	if filename != "" {
		if t := ContentTypeFromFilename(filename); t != ContentTypeBinary {
			return t
		}
	}
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "ISA"):
		return ContentTypeX12
	case strings.HasPrefix(trimmed, "UNA"), strings.HasPrefix(trimmed, "UNB"):
		return ContentTypeEDIFACT
	case strings.HasPrefix(trimmed, "<"):
		return ContentTypeXML
	case trimmed != "" && json.Valid([]byte(trimmed)):
		return ContentTypeJSON
	}
	return ContentTypeBinary
}
