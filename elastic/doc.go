// Package elastic is a thin client for a document-search service's REST
// API, reachable over HTTP or Thrift.
//
// A Client binds one endpoint and exposes the REST verbs. Paths are given
// either as a single string or built segment by segment:
//
//	client, err := elastic.New(elastic.Config{URL: "localhost:9200"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	doc, err := client.Get(ctx, "tweets/tweet/1")
//
//	_, err = client.Path("tweets", "tweet", 2).Put(ctx,
//	    elastic.WithData(map[string]any{"user": "dan"}),
//	    elastic.WithParam("refresh", true),
//	)
//
// Responses are decoded into value.Value. A non-success status from the
// service is not an error: a missing document decodes as
// {"exists": false} and callers inspect it by key. Errors are reserved for
// calls that could not complete (TRANSPORT_FAILURE, TIMEOUT), bodies that
// could not be encoded (SERIALIZATION_FAILURE), responses that are not
// JSON (DECODE_FAILURE), and rejected input (INVALID_INPUT).
//
// The transport is chosen from the URL: an http, https or thrift scheme
// wins; without one a port in 9500..9600 selects Thrift.
package elastic
