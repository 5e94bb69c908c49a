package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/as2aas/internal/transport"
)

// do ejecuta req con el scope de tenant resuelto para ctx.
func (c *Client) do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req.Tenant = c.tenantFor(ctx)
	return c.tr.Do(ctx, req)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*transport.Response, error) {
	return c.do(ctx, transport.Request{Method: http.MethodGet, Path: path, Query: q})
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*transport.Response, error) {
	return c.do(ctx, transport.Request{Method: method, Path: path, JSON: body})
}

// getOne hace GET y decodifica un objeto suelto o envuelto en data.
func getOne[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	res, err := c.get(ctx, path, q)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](res)
}

// getList hace GET y decodifica {"data":[...]} o un arreglo suelto.
func getList[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	res, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	return decodeList[T](res)
}

func sendOne[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	res, err := c.send(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](res)
}

// sendOneIdempotent manda el POST con Idempotency-Key estable entre reintentos.
func sendOneIdempotent[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	res, err := c.do(ctx, transport.Request{Method: http.MethodPost, Path: path, JSON: body, Idempotent: true})
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](res)
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeOne acepta {"data":{...}} o el objeto directo.
func decodeOne[T any](res *transport.Response) (T, error) {
	var out T
	var env dataEnvelope
	if err := json.Unmarshal(res.Body, &env); err == nil {
		if d := bytes.TrimSpace(env.Data); len(d) > 0 && d[0] == '{' {
			if err := json.Unmarshal(d, &out); err != nil {
				return out, fmt.Errorf("as2aas: decode response: %w", err)
			}
			return out, nil
		}
	}
	return out, res.Decode(&out)
}

// decodeList acepta {"data":[...]} o el arreglo directo.
func decodeList[T any](res *transport.Response) ([]T, error) {
	body := bytes.TrimSpace(res.Body)
	if len(body) == 0 {
		return []T{}, nil
	}
	var out []T
	if body[0] == '[' {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("as2aas: decode list: %w", err)
		}
		return out, nil
	}
	var env struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("as2aas: decode list: %w", err)
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return env.Data, nil
}
