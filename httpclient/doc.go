// Package httpclient is the HTTP transport used by the rawes client.
//
// An Adapter sends a fully-encoded Request to BaseURL + Path and returns
// the raw Response. Non-2xx statuses come back with both the Response and
// a classified *Error, so callers that treat service statuses as data
// can keep the body.
//
// # Basic Usage
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:9200",
//	    Auth:    httpclient.BasicAuth("elastic", "secret"),
//	})
//
//	resp, err := a.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "tweets/_status",
//	})
//
// # With Resilience
//
// Retry and circuit breaking are off unless configured:
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "http://localhost:9200",
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("search"),
//	})
package httpclient
