package thriftclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/apache/thrift/lib/go/thrift"
)

// Method is the Rest service's method enum.
type Method int32

const (
	MethodGet     Method = 0
	MethodPut     Method = 1
	MethodPost    Method = 2
	MethodDelete  Method = 3
	MethodHead    Method = 4
	MethodOptions Method = 5
)

var methodNames = map[Method]string{
	MethodGet:     http.MethodGet,
	MethodPut:     http.MethodPut,
	MethodPost:    http.MethodPost,
	MethodDelete:  http.MethodDelete,
	MethodHead:    http.MethodHead,
	MethodOptions: http.MethodOptions,
}

// String returns the HTTP verb for m.
func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int32(m))
}

// ParseMethod maps an HTTP verb to the Rest method enum.
func ParseMethod(verb string) (Method, error) {
	verb = strings.ToUpper(verb)
	for m, s := range methodNames {
		if s == verb {
			return m, nil
		}
	}
	return 0, fmt.Errorf("thriftclient: unsupported method %q", verb)
}

// RestRequest mirrors the service's RestRequest struct.
type RestRequest struct {
	Method     Method
	URI        string
	Parameters map[string]string
	Headers    map[string]string
	Body       []byte
}

// RestResponse mirrors the service's RestResponse struct. Status carries
// the HTTP status code value.
type RestResponse struct {
	Status  int32
	Headers map[string]string
	Body    []byte
}

// ExecuteArgs is the argument struct of Rest.execute.
type ExecuteArgs struct {
	Request *RestRequest
}

// ExecuteResult is the result struct of Rest.execute.
type ExecuteResult struct {
	Success *RestResponse
}

var (
	_ thrift.TStruct = (*RestRequest)(nil)
	_ thrift.TStruct = (*RestResponse)(nil)
	_ thrift.TStruct = (*ExecuteArgs)(nil)
	_ thrift.TStruct = (*ExecuteResult)(nil)
)

// Write encodes the request.
func (r *RestRequest) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "RestRequest"); err != nil {
		return err
	}
	if err := writeI32Field(ctx, p, "method", 1, int32(r.Method)); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "uri", 2, r.URI); err != nil {
		return err
	}
	if r.Parameters != nil {
		if err := writeMapField(ctx, p, "parameters", 3, r.Parameters); err != nil {
			return err
		}
	}
	if r.Headers != nil {
		if err := writeMapField(ctx, p, "headers", 4, r.Headers); err != nil {
			return err
		}
	}
	if r.Body != nil {
		if err := writeBinaryField(ctx, p, "body", 5, r.Body); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes the request, skipping unknown fields.
func (r *RestRequest) Read(ctx context.Context, p thrift.TProtocol) error {
	var haveMethod, haveURI bool
	err := readStruct(ctx, p, func(id int16, typ thrift.TType) (bool, error) {
		switch {
		case id == 1 && typ == thrift.I32:
			v, err := p.ReadI32(ctx)
			r.Method, haveMethod = Method(v), true
			return true, err
		case id == 2 && typ == thrift.STRING:
			v, err := p.ReadString(ctx)
			r.URI, haveURI = v, true
			return true, err
		case id == 3 && typ == thrift.MAP:
			m, err := readStringMap(ctx, p)
			r.Parameters = m
			return true, err
		case id == 4 && typ == thrift.MAP:
			m, err := readStringMap(ctx, p)
			r.Headers = m
			return true, err
		case id == 5 && typ == thrift.STRING:
			v, err := p.ReadBinary(ctx)
			r.Body = v
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if !haveMethod || !haveURI {
		return thrift.NewTProtocolExceptionWithType(thrift.INVALID_DATA, fmt.Errorf("RestRequest: method and uri are required"))
	}
	return nil
}

// Write encodes the response.
func (r *RestResponse) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "RestResponse"); err != nil {
		return err
	}
	if err := writeI32Field(ctx, p, "status", 1, r.Status); err != nil {
		return err
	}
	if r.Headers != nil {
		if err := writeMapField(ctx, p, "headers", 2, r.Headers); err != nil {
			return err
		}
	}
	if r.Body != nil {
		if err := writeBinaryField(ctx, p, "body", 3, r.Body); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes the response, skipping unknown fields.
func (r *RestResponse) Read(ctx context.Context, p thrift.TProtocol) error {
	var haveStatus bool
	err := readStruct(ctx, p, func(id int16, typ thrift.TType) (bool, error) {
		switch {
		case id == 1 && typ == thrift.I32:
			v, err := p.ReadI32(ctx)
			r.Status, haveStatus = v, true
			return true, err
		case id == 2 && typ == thrift.MAP:
			m, err := readStringMap(ctx, p)
			r.Headers = m
			return true, err
		case id == 3 && typ == thrift.STRING:
			v, err := p.ReadBinary(ctx)
			r.Body = v
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if !haveStatus {
		return thrift.NewTProtocolExceptionWithType(thrift.INVALID_DATA, fmt.Errorf("RestResponse: status is required"))
	}
	return nil
}

// Write encodes the execute arguments.
func (a *ExecuteArgs) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "execute_args"); err != nil {
		return err
	}
	if a.Request != nil {
		if err := p.WriteFieldBegin(ctx, "request", thrift.STRUCT, 1); err != nil {
			return err
		}
		if err := a.Request.Write(ctx, p); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes the execute arguments.
func (a *ExecuteArgs) Read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(id int16, typ thrift.TType) (bool, error) {
		if id == 1 && typ == thrift.STRUCT {
			a.Request = &RestRequest{}
			return true, a.Request.Read(ctx, p)
		}
		return false, nil
	})
}

// Write encodes the execute result.
func (r *ExecuteResult) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "execute_result"); err != nil {
		return err
	}
	if r.Success != nil {
		if err := p.WriteFieldBegin(ctx, "success", thrift.STRUCT, 0); err != nil {
			return err
		}
		if err := r.Success.Write(ctx, p); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes the execute result.
func (r *ExecuteResult) Read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(id int16, typ thrift.TType) (bool, error) {
		if id == 0 && typ == thrift.STRUCT {
			r.Success = &RestResponse{}
			return true, r.Success.Read(ctx, p)
		}
		return false, nil
	})
}

// readStruct walks the fields of a struct. field reports whether it
// consumed the value; unconsumed fields are skipped.
func readStruct(ctx context.Context, p thrift.TProtocol, field func(id int16, typ thrift.TType) (bool, error)) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, typ, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if typ == thrift.STOP {
			break
		}
		ok, err := field(id, typ)
		if err != nil {
			return err
		}
		if !ok {
			if err := p.Skip(ctx, typ); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func readStringMap(ctx context.Context, p thrift.TProtocol) (map[string]string, error) {
	kt, vt, size, err := p.ReadMapBegin(ctx)
	if err != nil {
		return nil, err
	}
	if size > 0 && (kt != thrift.STRING || vt != thrift.STRING) {
		return nil, thrift.NewTProtocolExceptionWithType(thrift.INVALID_DATA, fmt.Errorf("expected map<string,string>"))
	}
	m := make(map[string]string, size)
	for i := 0; i < size; i++ {
		k, err := p.ReadString(ctx)
		if err != nil {
			return nil, err
		}
		v, err := p.ReadString(ctx)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, p.ReadMapEnd(ctx)
}

func writeI32Field(ctx context.Context, p thrift.TProtocol, name string, id int16, v int32) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.I32, id); err != nil {
		return err
	}
	if err := p.WriteI32(ctx, v); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}

func writeStringField(ctx context.Context, p thrift.TProtocol, name string, id int16, v string) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.STRING, id); err != nil {
		return err
	}
	if err := p.WriteString(ctx, v); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}

func writeBinaryField(ctx context.Context, p thrift.TProtocol, name string, id int16, v []byte) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.STRING, id); err != nil {
		return err
	}
	if err := p.WriteBinary(ctx, v); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}

func writeMapField(ctx context.Context, p thrift.TProtocol, name string, id int16, m map[string]string) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.MAP, id); err != nil {
		return err
	}
	if err := p.WriteMapBegin(ctx, thrift.STRING, thrift.STRING, len(m)); err != nil {
		return err
	}
	for k, v := range m {
		if err := p.WriteString(ctx, k); err != nil {
			return err
		}
		if err := p.WriteString(ctx, v); err != nil {
			return err
		}
	}
	if err := p.WriteMapEnd(ctx); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}
