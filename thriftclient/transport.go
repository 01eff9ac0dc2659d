package thriftclient

import (
	"context"
	"net"

	"github.com/apache/thrift/lib/go/thrift"
)

// connTransport exposes a net.Conn as a thrift.TTransport. Deadlines are
// owned by the caller; thrift.TSocket would reset them on every read.
type connTransport struct {
	net.Conn
	// read counts bytes received since the last reset.
	read int
}

var _ thrift.TTransport = (*connTransport)(nil)

func (t *connTransport) Open() error                 { return nil }
func (t *connTransport) IsOpen() bool                { return t.Conn != nil }
func (t *connTransport) Flush(context.Context) error { return nil }
func (t *connTransport) RemainingBytes() uint64      { return ^uint64(0) }

func (t *connTransport) Read(b []byte) (int, error) {
	n, err := t.Conn.Read(b)
	t.read += n
	return n, err
}

// wrapTransport stacks the buffered or framed transport over conn and
// returns the stack with its base.
func wrapTransport(conn net.Conn, framed bool, bufferSize int, conf *thrift.TConfiguration) (thrift.TTransport, *connTransport) {
	base := &connTransport{Conn: conn}
	if framed {
		return thrift.NewTFramedTransportConf(base, conf), base
	}
	return thrift.NewTBufferedTransport(base, bufferSize), base
}
