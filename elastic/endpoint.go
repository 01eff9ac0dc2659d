package elastic

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/kbukum/rawes/errors"
)

const (
	// DefaultPort is used when the URL names no port.
	DefaultPort = 9200
	// DefaultThriftPort is used for thrift:// URLs without a port.
	DefaultThriftPort = 9500

	thriftPortMin = 9500
	thriftPortMax = 9600
)

// TransportKind selects the wire protocol of an endpoint.
type TransportKind int

const (
	// TransportHTTP speaks HTTP/1.1, or HTTP/2 when enabled.
	TransportHTTP TransportKind = iota
	// TransportThrift speaks the service's Rest.execute Thrift call.
	TransportThrift
)

// String returns the transport name used in logs and metrics.
func (k TransportKind) String() string {
	switch k {
	case TransportHTTP:
		return "http"
	case TransportThrift:
		return "thrift"
	default:
		return "unknown"
	}
}

// Endpoint is a parsed service address.
type Endpoint struct {
	// Scheme is http, https or thrift.
	Scheme string
	Host   string
	Port   int
	Kind   TransportKind
	// Path is a base prefix given in the URL, without surrounding slashes.
	Path string
}

// ParseEndpoint parses a service URL such as "localhost:9200",
// "https://search.example.com" or "thrift://10.0.0.5:9500".
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, errors.InvalidInput("url", "url is empty")
	}

	target := raw
	if !strings.Contains(raw, "://") {
		target = "//" + raw
	}
	u, err := url.Parse(target)
	if err != nil {
		return Endpoint{}, errors.InvalidInput("url", err.Error())
	}

	ep := Endpoint{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		Path:   strings.Trim(u.Path, "/"),
	}
	if ep.Host == "" {
		return Endpoint{}, errors.InvalidInput("url", "missing host in "+strconv.Quote(raw))
	}

	switch ep.Scheme {
	case "":
	case "http", "https":
		ep.Kind = TransportHTTP
	case "thrift":
		ep.Kind = TransportThrift
	default:
		return Endpoint{}, errors.InvalidInput("url", "unsupported scheme "+strconv.Quote(ep.Scheme))
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Endpoint{}, errors.InvalidInput("url", "invalid port "+strconv.Quote(p))
		}
		ep.Port = port
	} else if ep.Scheme == "thrift" {
		ep.Port = DefaultThriftPort
	} else {
		ep.Port = DefaultPort
	}

	if ep.Scheme == "" {
		if ep.Port >= thriftPortMin && ep.Port <= thriftPortMax {
			ep.Kind = TransportThrift
			ep.Scheme = "thrift"
		} else {
			ep.Kind = TransportHTTP
			ep.Scheme = "http"
		}
	}
	return ep, nil
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// BaseURL returns scheme://host:port, without the path prefix.
func (e Endpoint) BaseURL() string {
	return e.Scheme + "://" + e.Address()
}

// String returns the endpoint as a URL including its path prefix.
func (e Endpoint) String() string {
	if e.Path == "" {
		return e.BaseURL()
	}
	return e.BaseURL() + "/" + e.Path
}
