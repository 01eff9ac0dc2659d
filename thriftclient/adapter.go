package thriftclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/kbukum/rawes/logger"
	"github.com/kbukum/rawes/resilience"
)

const executeMethod = "execute"

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l.WithComponent("thriftclient")
		}
	}
}

// Adapter calls Rest.execute over pooled Thrift connections.
type Adapter struct {
	config Config
	pool   *pool
	cb     *resilience.CircuitBreaker
	log    *logger.Logger
}

// New creates a new Thrift adapter. No connection is made until the first call.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config
	if cfg.TLS != nil {
		built, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		tlsConfig = built
	}

	a := &Adapter{
		config: cfg,
		pool:   newPool(cfg, tlsConfig),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.OnStateChange == nil {
			cbCfg.OnStateChange = resilience.LogStateChange(a.log)
		}
		a.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	return a, nil
}

// Do executes one Rest.execute call. The service's status is returned as
// data; only failures to complete the round trip are errors.
func (a *Adapter) Do(ctx context.Context, req *RestRequest) (*RestResponse, error) {
	if a.config.Retry != nil {
		return resilience.Retry(ctx, *a.config.Retry, func() (*RestResponse, error) {
			return a.doOnce(ctx, req)
		})
	}
	return a.doOnce(ctx, req)
}

func (a *Adapter) doOnce(ctx context.Context, req *RestRequest) (*RestResponse, error) {
	if a.cb == nil {
		return a.execute(ctx, req)
	}

	var resp *RestResponse
	err := a.cb.Execute(func() error {
		var execErr error
		resp, execErr = a.execute(ctx, req)
		return execErr
	})
	if err == resilience.ErrCircuitOpen {
		return nil, newError(ErrCodeConnection, true, err)
	}
	return resp, err
}

func (a *Adapter) execute(ctx context.Context, req *RestRequest) (*RestResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	c, reused, err := a.pool.get(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}

	result, err := a.call(ctx, c, req)
	if err != nil && reused && !c.answered() && classify(ctx, err).Code == ErrCodeConnection {
		// The server closed the idle connection; nothing was executed.
		a.log.Debug("idle thrift connection closed by peer, redialing", logger.Fields(
			logger.FieldEndpoint, a.config.Address,
			logger.FieldError, err.Error(),
		))
		if c, err = a.pool.dial(ctx); err == nil {
			result, err = a.call(ctx, c, req)
		}
	}
	if err != nil {
		a.log.Warn("thrift call failed", logger.Fields(
			logger.FieldEndpoint, a.config.Address,
			logger.FieldMethod, req.Method.String(),
			logger.FieldPath, req.URI,
			logger.FieldError, err.Error(),
		))
		return nil, classify(ctx, err)
	}

	if result.Success == nil {
		return nil, newError(ErrCodeProtocol, false, errMissingResult)
	}

	a.log.Debug("thrift round trip", logger.Fields(
		logger.FieldMethod, req.Method.String(),
		logger.FieldPath, req.URI,
		logger.FieldStatus, result.Success.Status,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return result.Success, nil
}

// call makes one round trip on c. The connection goes back to the pool only
// after a clean round trip.
func (a *Adapter) call(ctx context.Context, c *conn, req *RestRequest) (*ExecuteResult, error) {
	deadline, _ := ctx.Deadline()
	_ = c.raw.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.raw.SetDeadline(time.Now())
	})

	c.base.read = 0
	result := &ExecuteResult{}
	_, err := c.client.Call(ctx, executeMethod, &ExecuteArgs{Request: req}, result)
	interrupted := !stop()
	if err != nil || interrupted {
		a.pool.discard(c)
		if err == nil {
			err = ctx.Err()
		}
		return nil, err
	}
	a.pool.put(c)
	return result, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// IsAvailable reports false while the circuit breaker is open.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	if a.cb != nil {
		return a.cb.State() != resilience.StateOpen
	}
	return true
}

// Close closes all idle connections. Calls after Close fail.
func (a *Adapter) Close(_ context.Context) error {
	return a.pool.close()
}

// GetConfig returns the adapter's configuration.
func (a *Adapter) GetConfig() Config {
	return a.config
}
