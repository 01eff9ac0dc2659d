// Package thriftclient is the Thrift transport used by the rawes client.
//
// It speaks the search service's Rest service:
//
//	service Rest {
//	    RestResponse execute(1: required RestRequest request)
//	}
//
// over the binary protocol, on a buffered (default) or framed transport.
// Each call checks an exclusive connection out of a small pool and only
// returns it after a clean round trip, so a half-read reply is never seen
// by another caller.
//
//	a, err := thriftclient.New(thriftclient.Config{Address: "localhost:9500"})
//	resp, err := a.Do(ctx, &thriftclient.RestRequest{
//	    Method: thriftclient.MethodGet,
//	    URI:    "/tweets/_status",
//	})
//
// Server wraps a handler function in the same protocol, which the
// in-process fake search service uses for its Thrift front end.
package thriftclient
