package elastic

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/kbukum/rawes/codec"
	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/value"
)

// Request is one call to the service.
type Request struct {
	// Method is GET, PUT, POST, DELETE or HEAD.
	Method string
	// Path is relative to the client's base path.
	Path string
	// Body is encoded with codec.EncodeBody: nil sends nothing, string and
	// []byte are sent verbatim, anything else as JSON.
	Body any
	// Params become the query string. Values may be strings, bools,
	// numbers, times or fmt.Stringer values.
	Params map[string]any
	// Encoder overrides body encoding for the values it recognizes.
	Encoder codec.EncodeFunc
}

// Response is the decoded service reply.
type Response struct {
	// Status is the status code the service reported.
	Status int
	// Body is the decoded reply. An empty reply decodes as null.
	Body value.Value
}

// IsSuccess returns true if the service reported a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithData sets the request body.
func WithData(body any) RequestOption {
	return func(r *Request) {
		r.Body = body
	}
}

// WithParams merges params into the query parameters.
func WithParams(params map[string]any) RequestOption {
	return func(r *Request) {
		for k, v := range params {
			setParam(r, k, v)
		}
	}
}

// WithParam sets one query parameter.
func WithParam(key string, v any) RequestOption {
	return func(r *Request) {
		setParam(r, key, v)
	}
}

// WithEncoder overrides body encoding for this request.
func WithEncoder(fn codec.EncodeFunc) RequestOption {
	return func(r *Request) {
		r.Encoder = fn
	}
}

func setParam(r *Request, key string, v any) {
	if r.Params == nil {
		r.Params = make(map[string]any)
	}
	r.Params[key] = v
}

// encodeParams renders query parameter values as strings.
func encodeParams(params map[string]any) (map[string]string, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		s, err := formatParam(v)
		if err != nil {
			return nil, errors.SerializationFailure(fmt.Sprintf("%T", v), err).WithDetail("param", k)
		}
		out[k] = s
	}
	return out, nil
}

func formatParam(v any) (string, error) {
	switch p := v.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case bool:
		return strconv.FormatBool(p), nil
	case json.Number:
		return p.String(), nil
	case time.Time:
		return p.UTC().Format(codec.TimeLayout), nil
	case time.Duration:
		return strconv.FormatInt(p.Milliseconds(), 10) + "ms", nil
	case fmt.Stringer:
		return p.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("unsupported float value %v", f)
		}
		return strconv.FormatFloat(f, 'f', -1, rv.Type().Bits()), nil
	}
	return "", fmt.Errorf("unsupported parameter type %T", v)
}
