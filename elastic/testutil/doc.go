// Package testutil provides an in-memory search service for tests.
//
// The Service speaks the service's REST API over HTTP and over Thrift
// (Rest.execute); both front ends share one store, so the same scenario
// can run against either transport:
//
//	svc := testutil.NewService()
//	tu.T(t).Setup(svc)
//
//	httpClient, _ := elastic.New(elastic.Config{URL: svc.HTTPURL()})
//	thriftClient, _ := elastic.New(elastic.Config{URL: svc.ThriftURL()})
//
// Writes are visible immediately, so the refresh parameter is accepted
// and ignored. Responses follow the 0.x shapes: ok, exists, _source,
// hits.total and {"error": ..., "status": 404}.
package testutil
