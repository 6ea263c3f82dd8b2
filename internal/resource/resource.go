// Package resource maps each bookstore API operation to a typed call.
// Every accessor issues exactly one request and returns errors unmodified.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/Dmitrij-bot/vinabook/internal/client"
)

var (
	// ErrValidation marks input rejected before any request is made.
	ErrValidation = errors.New("validation failed")

	ErrUnexpectedPayload = errors.New("unexpected response payload")
)

// Requester is the subset of *client.Client the accessors use.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
	Post(ctx context.Context, path string, body interface{}) ([]byte, error)
	Put(ctx context.Context, path string, body interface{}) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, method, path string, form client.Form) ([]byte, error)
}

type Accessor struct {
	c Requester
}

var _ Interface = (*Accessor)(nil)

func New(c Requester) *Accessor {
	return &Accessor{c: c}
}

// decodeField unmarshals the value at path into v. A JSON null leaves v
// untouched.
func decodeField(body []byte, path string, v interface{}) error {
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return fmt.Errorf("%w: missing %q", ErrUnexpectedPayload, path)
	}
	if res.Type == gjson.Null {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Raw), v); err != nil {
		return fmt.Errorf("%w: decode %q: %v", ErrUnexpectedPayload, path, err)
	}
	return nil
}

func decodeBody(body []byte, v interface{}) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}
	return nil
}

func decodeMessage(body []byte) Message {
	return Message{Message: gjson.GetBytes(body, "message").String()}
}

func pageQuery(page, limit int) url.Values {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

func listPage[T any](ctx context.Context, c Requester, path string, page, limit int) (Page[T], error) {
	q := pageQuery(page, limit)

	body, err := c.Get(ctx, path, q)
	if err != nil {
		return Page[T]{}, err
	}

	var p Page[T]
	if err := decodeBody(body, &p); err != nil {
		return Page[T]{}, err
	}
	if p.Rows == nil {
		p.Rows = []T{}
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.Limit, _ = strconv.Atoi(q.Get("limit"))

	return p, nil
}

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id is required", ErrValidation, kind)
	}
	return nil
}
