package thriftclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/kbukum/rawes/logger"
)

// HandlerFunc answers one Rest.execute call.
type HandlerFunc func(ctx context.Context, req *RestRequest) *RestResponse

// ServerConfig configures a Server. Framed and BufferSize must match the clients.
type ServerConfig struct {
	Framed     bool
	BufferSize int
	Logger     *logger.Logger
}

// Server serves Rest.execute over a listener. Each connection is handled
// on its own goroutine, one call at a time.
type Server struct {
	handler HandlerFunc
	cfg     ServerConfig
	tconf   *thrift.TConfiguration
	log     *logger.Logger

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a server for handler.
func NewServer(handler HandlerFunc, cfg ServerConfig) *Server {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		handler: handler,
		cfg:     cfg,
		tconf:   &thrift.TConfiguration{},
		log:     log.WithComponent("thrift-server"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections until Close is called. It returns nil after Close.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return net.ErrClosed
	}
	s.ln = ln
	s.mu.Unlock()

	for {
		c, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = c.Close()
			return nil
		}
		s.conns[c] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.serveConn(c)
	}
}

// Close stops accepting, closes open connections and waits for their
// goroutines to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) serveConn(c net.Conn) {
	defer func() {
		_ = c.Close()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		s.wg.Done()
	}()

	ctx := context.Background()
	trans, _ := wrapTransport(c, s.cfg.Framed, s.cfg.BufferSize, s.tconf)
	proto := thrift.NewTBinaryProtocolConf(trans, s.tconf)

	for {
		if err := s.handleOne(ctx, proto); err != nil {
			var te thrift.TTransportException
			if !errors.As(err, &te) || te.TypeId() != thrift.END_OF_FILE {
				s.log.Debug("thrift connection closed", logger.Fields(logger.FieldError, err.Error()))
			}
			return
		}
	}
}

func (s *Server) handleOne(ctx context.Context, proto thrift.TProtocol) error {
	name, typ, seq, err := proto.ReadMessageBegin(ctx)
	if err != nil {
		return err
	}

	if name != executeMethod || typ != thrift.CALL {
		if err := proto.Skip(ctx, thrift.STRUCT); err != nil {
			return err
		}
		if err := proto.ReadMessageEnd(ctx); err != nil {
			return err
		}
		exc := thrift.NewTApplicationException(thrift.UNKNOWN_METHOD, fmt.Sprintf("unknown method %q", name))
		return writeReply(ctx, proto, name, thrift.EXCEPTION, seq, exc)
	}

	args := &ExecuteArgs{}
	if err := args.Read(ctx, proto); err != nil {
		return err
	}
	if err := proto.ReadMessageEnd(ctx); err != nil {
		return err
	}
	if args.Request == nil {
		exc := thrift.NewTApplicationException(thrift.PROTOCOL_ERROR, "execute: missing request")
		return writeReply(ctx, proto, name, thrift.EXCEPTION, seq, exc)
	}

	resp := s.handler(ctx, args.Request)
	if resp == nil {
		exc := thrift.NewTApplicationException(thrift.INTERNAL_ERROR, "execute: handler returned no response")
		return writeReply(ctx, proto, name, thrift.EXCEPTION, seq, exc)
	}
	return writeReply(ctx, proto, name, thrift.REPLY, seq, &ExecuteResult{Success: resp})
}

type messageBody interface {
	Write(ctx context.Context, p thrift.TProtocol) error
}

func writeReply(ctx context.Context, proto thrift.TProtocol, name string, typ thrift.TMessageType, seq int32, body messageBody) error {
	if err := proto.WriteMessageBegin(ctx, name, typ, seq); err != nil {
		return err
	}
	if err := body.Write(ctx, proto); err != nil {
		return err
	}
	if err := proto.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return proto.Flush(ctx)
}
