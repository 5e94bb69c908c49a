package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Request describe un llamado a la API. Path es relativo a BaseURL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON se serializa como cuerpo; excluyente con Multipart.
	JSON      any
	Multipart *Multipart
	Headers   http.Header
	// Tenant es el scope del llamado; "" = scope de cuenta.
	Tenant string
	// Idempotent genera un Idempotency-Key si IdempotencyKey viene vacío.
	// La misma key se manda en todos los reintentos.
	Idempotent     bool
	IdempotencyKey string
}

// Multipart es un cuerpo multipart/form-data.
type Multipart struct {
	Fields []Field
	Files  []File
}

type Field struct {
	Name, Value string
}

type File struct {
	Field    string
	FileName string
	Content  []byte
}

// Response es la respuesta cruda de un intento exitoso (< 400).
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode deserializa el cuerpo JSON en v. Cuerpo vacío no es error.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("transport: decode response: %w", err)
	}
	return nil
}

// body arma el cuerpo y el content-type. Se llama en cada intento porque el
// reader se consume.
func (r Request) body() (io.Reader, string, error) {
	switch {
	case r.Multipart != nil:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range r.Multipart.Fields {
			if err := w.WriteField(f.Name, f.Value); err != nil {
				return nil, "", err
			}
		}
		for _, f := range r.Multipart.Files {
			part, err := w.CreateFormFile(f.Field, f.FileName)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	case r.JSON != nil:
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("transport: encode body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
	return nil, "", nil
}
