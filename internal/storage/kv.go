package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// KV stores objects in a remote key-value service over HTTP:
// PUT/GET/DELETE /kv/{key} and GET /kv/{prefix}/* for prefix scans.
// File bytes travel base64-encoded inside the JSON value.
type KV struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewKV(baseURL, apiKey string) *KV {
	return &KV{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// kvNode is the body for PUT /kv/{key}.
type kvNode struct {
	Value     kvValue `json:"value"`
	Source    string  `json:"source,omitempty"`
	ExpiresAt string  `json:"expires_at,omitempty"`
}

type kvValue struct {
	Data        string    `json:"data"`
	ContentType string    `json:"content_type,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Created     time.Time `json:"created"`
}

// kvNodeResponse is the response from GET /kv/{key} and an entry of a
// prefix scan.
type kvNodeResponse struct {
	Key   string  `json:"key_path"`
	Value kvValue `json:"value"`
}

func (c *KV) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func statusErr(op, key string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s %s: status %d: %s", op, key, resp.StatusCode, string(respBody))
}

func (c *KV) Put(ctx context.Context, key string, obj Object) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	obj = stamp(obj)
	body, err := json.Marshal(kvNode{
		Value: kvValue{
			Data:        base64.StdEncoding.EncodeToString(obj.Data),
			ContentType: obj.ContentType,
			Filename:    obj.Filename,
			Created:     obj.Created,
		},
		Source: "docredact",
	})
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/kv/"+key, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusErr("put node", key, resp)
	}
	return nil
}

func (c *KV) Get(ctx context.Context, key string) (Object, error) {
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/kv/"+key, nil)
	if err != nil {
		return Object{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("get node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Object{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Object{}, statusErr("get node", key, resp)
	}

	var node kvNodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return Object{}, fmt.Errorf("decode node: %w", err)
	}
	return node.Value.object()
}

func (v kvValue) object() (Object, error) {
	data, err := base64.StdEncoding.DecodeString(v.Data)
	if err != nil {
		return Object{}, fmt.Errorf("decode object data: %w", err)
	}
	return Object{Data: data, ContentType: v.ContentType, Filename: v.Filename, Created: v.Created}, nil
}

func (c *KV) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/kv/"+key, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusErr("delete node", key, resp)
}

// kvPrefixes are the top-level key spaces the service writes to.
var kvPrefixes = []string{"uploads", "processed"}

func (c *KV) Sweep(ctx context.Context, before time.Time) (int, error) {
	n := 0
	for _, prefix := range kvPrefixes {
		nodes, err := c.listChildren(ctx, prefix)
		if err != nil {
			return n, err
		}
		for _, node := range nodes {
			if !node.Value.Created.Before(before) {
				continue
			}
			if err := c.Delete(ctx, node.Key); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func (c *KV) listChildren(ctx context.Context, prefix string) ([]kvNodeResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/kv/"+prefix+"/*", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr("list children", prefix, resp)
	}

	var result struct {
		Nodes []kvNodeResponse `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	return result.Nodes, nil
}

func (c *KV) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
