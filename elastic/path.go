package elastic

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/value"
)

// Path is a request path built from segments. Segments are joined with
// "/" in the order given; empty segments are kept. Path values are
// immutable: Path returns a new value and never shares storage with the
// receiver.
type Path struct {
	client *Client
	segs   []string
	err    error
}

// Path starts a path from segs. Segments may be strings, integers of any
// width, or fmt.Stringer values; anything else fails when a verb is
// invoked.
func (c *Client) Path(segs ...any) Path {
	return Path{client: c}.Path(segs...)
}

// Path returns a copy of p with segs appended.
func (p Path) Path(segs ...any) Path {
	out := Path{
		client: p.client,
		segs:   make([]string, len(p.segs), len(p.segs)+len(segs)),
		err:    p.err,
	}
	copy(out.segs, p.segs)
	for _, seg := range segs {
		s, err := formatSegment(seg)
		if err != nil {
			if out.err == nil {
				out.err = err
			}
			continue
		}
		out.segs = append(out.segs, s)
	}
	return out
}

// String returns the joined path.
func (p Path) String() string {
	return strings.Join(p.segs, "/")
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segs...)
}

// Err returns the first rejected segment, if any.
func (p Path) Err() error {
	return p.err
}

// Get sends GET to the path.
func (p Path) Get(ctx context.Context, opts ...RequestOption) (value.Value, error) {
	return p.send(ctx, http.MethodGet, opts)
}

// Put sends PUT to the path.
func (p Path) Put(ctx context.Context, opts ...RequestOption) (value.Value, error) {
	return p.send(ctx, http.MethodPut, opts)
}

// Post sends POST to the path.
func (p Path) Post(ctx context.Context, opts ...RequestOption) (value.Value, error) {
	return p.send(ctx, http.MethodPost, opts)
}

// Delete sends DELETE to the path.
func (p Path) Delete(ctx context.Context, opts ...RequestOption) (value.Value, error) {
	return p.send(ctx, http.MethodDelete, opts)
}

// Head sends HEAD to the path.
func (p Path) Head(ctx context.Context, opts ...RequestOption) (value.Value, error) {
	return p.send(ctx, http.MethodHead, opts)
}

func (p Path) send(ctx context.Context, method string, opts []RequestOption) (value.Value, error) {
	if p.err != nil {
		return value.Value{}, p.err
	}
	if p.client == nil {
		return value.Value{}, errors.InvalidInput("path", "path is not bound to a client")
	}
	return p.client.call(ctx, method, p.String(), opts)
}

func formatSegment(seg any) (string, error) {
	switch s := seg.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		if rv := reflect.ValueOf(s); rv.Kind() == reflect.Pointer && rv.IsNil() {
			break
		}
		return s.String(), nil
	}

	if seg != nil {
		rv := reflect.ValueOf(seg)
		switch rv.Kind() {
		case reflect.String:
			return rv.String(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return strconv.FormatUint(rv.Uint(), 10), nil
		}
	}
	return "", errors.InvalidInput("path", fmt.Sprintf("unsupported path segment of type %T", seg)).
		WithDetail("segment_type", fmt.Sprintf("%T", seg))
}
