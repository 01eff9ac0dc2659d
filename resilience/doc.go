// Package resilience provides retry and circuit breaking for the rawes
// transports.
//
// Both are opt-in: a transport with a nil RetryConfig or
// CircuitBreakerConfig makes exactly one attempt per call.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("thrift"))
//	resp, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Response, error) {
//	    var resp *Response
//	    err := cb.Execute(func() (err error) { resp, err = send(ctx, req); return err })
//	    return resp, err
//	})
package resilience
