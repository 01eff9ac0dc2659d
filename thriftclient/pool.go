package thriftclient

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
)

var errPoolClosed = errors.New("connection pool is closed")

// conn is one exclusive connection with its protocol stack.
type conn struct {
	raw    net.Conn
	base   *connTransport
	trans  thrift.TTransport
	client *thrift.TStandardClient
}

func (c *conn) close() error {
	return c.raw.Close()
}

// answered reports whether any reply bytes arrived during the current call.
func (c *conn) answered() bool {
	return c.base.read > 0
}

// pool hands out exclusive connections. A connection goes back to the
// idle list only after a clean round trip; anything else closes it.
type pool struct {
	cfg       Config
	tlsConfig *tls.Config
	tconf     *thrift.TConfiguration

	mu     sync.Mutex
	idle   []*conn
	closed bool
}

func newPool(cfg Config, tlsConfig *tls.Config) *pool {
	return &pool{
		cfg:       cfg,
		tlsConfig: tlsConfig,
		tconf: &thrift.TConfiguration{
			ConnectTimeout: cfg.ConnectTimeout,
			TLSConfig:      tlsConfig,
		},
	}
}

// get returns an idle connection or dials a new one. reused is true for
// connections taken from the idle list; the server may have closed those
// since they were put back.
func (p *pool) get(ctx context.Context) (c *conn, reused bool, err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, false, errPoolClosed
	}
	if n := len(p.idle); n > 0 {
		c = p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return c, true, nil
	}
	p.mu.Unlock()

	c, err = p.dial(ctx)
	return c, false, err
}

// put returns a healthy connection to the idle list.
func (p *pool) put(c *conn) {
	_ = c.raw.SetDeadline(time.Time{})

	p.mu.Lock()
	if p.closed || len(p.idle) >= p.cfg.MaxIdleConns {
		p.mu.Unlock()
		_ = c.close()
		return
	}
	p.idle = append(p.idle, c)
	p.mu.Unlock()
}

// discard closes a connection whose stream state is unknown.
func (p *pool) discard(c *conn) {
	_ = c.close()
}

func (p *pool) dial(ctx context.Context) (*conn, error) {
	dialer := &net.Dialer{Timeout: p.cfg.ConnectTimeout}

	var (
		raw net.Conn
		err error
	)
	if p.tlsConfig != nil {
		td := &tls.Dialer{NetDialer: dialer, Config: p.tlsConfig}
		raw, err = td.DialContext(ctx, "tcp", p.cfg.Address)
	} else {
		raw, err = dialer.DialContext(ctx, "tcp", p.cfg.Address)
	}
	if err != nil {
		return nil, err
	}

	trans, base := wrapTransport(raw, p.cfg.Framed, p.cfg.BufferSize, p.tconf)
	proto := thrift.NewTBinaryProtocolConf(trans, p.tconf)
	return &conn{
		raw:    raw,
		base:   base,
		trans:  trans,
		client: thrift.NewTStandardClient(proto, proto),
	}, nil
}

// idleCount reports the number of pooled connections.
func (p *pool) idleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *pool) close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for _, c := range idle {
		if err := c.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
