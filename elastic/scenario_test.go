package elastic_test

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/rawes/codec"
	"github.com/kbukum/rawes/elastic"
	"github.com/kbukum/rawes/elastic/testutil"
	tu "github.com/kbukum/rawes/testutil"
	"github.com/kbukum/rawes/value"
)

const (
	testIndex = "rawes_test"
	testType  = "bulk_type"
)

func startService(t *testing.T, opts ...testutil.Option) *testutil.Service {
	t.Helper()
	svc := testutil.NewService(opts...)
	tu.T(t).Setup(svc)
	return svc
}

func newClient(t *testing.T, cfg elastic.Config, opts ...elastic.Option) *elastic.Client {
	t.Helper()
	client, err := elastic.New(cfg, opts...)
	if err != nil {
		t.Fatalf("elastic.New(%q): %v", cfg.URL, err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client
}

// must fails the test when a client call returns an error:
//
//	v := must(t)(c.Get(ctx, "idx"))
func must(t *testing.T) func(value.Value, error) value.Value {
	return func(v value.Value, err error) value.Value {
		t.Helper()
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		return v
	}
}

func lookupInt(t *testing.T, v value.Value, keys ...any) int64 {
	t.Helper()
	got, ok := v.Lookup(keys...)
	if !ok {
		t.Fatalf("%v missing in %s", keys, v)
	}
	n, ok := got.Int()
	if !ok {
		t.Fatalf("%v = %s, want integer", keys, got)
	}
	return n
}

func lookupBool(t *testing.T, v value.Value, keys ...any) bool {
	t.Helper()
	got, ok := v.Lookup(keys...)
	if !ok {
		t.Fatalf("%v missing in %s", keys, v)
	}
	b, ok := got.Bool()
	if !ok {
		t.Fatalf("%v = %s, want bool", keys, got)
	}
	return b
}

func lookupString(t *testing.T, v value.Value, keys ...any) string {
	t.Helper()
	got, ok := v.Lookup(keys...)
	if !ok {
		t.Fatalf("%v missing in %s", keys, v)
	}
	s, ok := got.Str()
	if !ok {
		t.Fatalf("%v = %s, want string", keys, got)
	}
	return s
}

// TestScenarios runs the same suite over both transports against one
// service state.
func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		opts []testutil.Option
		cfg  func(svc *testutil.Service) elastic.Config
	}{
		{"http", nil, func(svc *testutil.Service) elastic.Config {
			return elastic.Config{URL: svc.HTTPURL()}
		}},
		{"thrift", nil, func(svc *testutil.Service) elastic.Config {
			return elastic.Config{URL: svc.ThriftURL()}
		}},
		{"thrift framed", []testutil.Option{testutil.WithFramedThrift()}, func(svc *testutil.Service) elastic.Config {
			return elastic.Config{URL: svc.ThriftURL(), Framed: true}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := startService(t, tt.opts...)
			client := newClient(t, tt.cfg(svc))
			ctx := context.Background()

			t.Run("reset indices", func(t *testing.T) { resetIndices(ctx, t, client) })
			t.Run("document search", func(t *testing.T) { documentSearch(ctx, t, client) })
			t.Run("document update", func(t *testing.T) { documentUpdate(ctx, t, client) })
			t.Run("document delete", func(t *testing.T) { documentDelete(ctx, t, client) })
			t.Run("bulk load", func(t *testing.T) { bulkLoad(ctx, t, client) })
			t.Run("datetime encoder", func(t *testing.T) { datetimeEncoder(ctx, t, client) })
			t.Run("custom encoder", func(t *testing.T) { customEncoder(ctx, t, client) })
		})
	}
}

func resetIndices(ctx context.Context, t *testing.T, c *elastic.Client) {
	status := must(t)(c.Get(ctx, testIndex+"/_status"))
	if status.Get("status").Equal(value.NewInt(404)) {
		must(t)(c.Put(ctx, testIndex))
	}

	must(t)(c.Delete(ctx, testIndex))
	status = must(t)(c.Get(ctx, testIndex+"/_status"))
	if got := lookupInt(t, status, "status"); got != 404 {
		t.Fatalf("status after delete = %d, want 404", got)
	}

	must(t)(c.Put(ctx, testIndex))
	status = must(t)(c.Get(ctx, testIndex+"/_status"))
	if !lookupBool(t, status, "ok") {
		t.Fatal("index not recreated")
	}
}

func documentSearch(ctx context.Context, t *testing.T, c *elastic.Client) {
	r1 := must(t)(c.Post(ctx, testIndex+"/tweet/",
		elastic.WithData(map[string]any{
			"user":      "dwnoble",
			"post_date": "2012-8-27T08:00:30",
			"message":   "Tweeting about elasticsearch",
		}),
		elastic.WithParam("refresh", true),
	))
	if !lookupBool(t, r1, "ok") {
		t.Fatalf("post tweet: %s", r1)
	}

	r2 := must(t)(c.Put(ctx, testIndex+"/post/2",
		elastic.WithData(map[string]any{
			"user":      "dan",
			"post_date": "2012-8-27T09:30:03",
			"title":     "Elasticsearch",
			"body":      "Blogging about elasticsearch",
		}),
		elastic.WithParam("refresh", "true"),
	))
	if !lookupBool(t, r2, "ok") {
		t.Fatalf("put post: %s", r2)
	}

	matchAll := map[string]any{"query": map[string]any{"match_all": map[string]any{}}}

	one := must(t)(c.Get(ctx, testIndex+"/tweet/_search",
		elastic.WithData(matchAll), elastic.WithParam("size", 2)))
	if got := lookupInt(t, one, "hits", "total"); got != 1 {
		t.Errorf("tweet hits = %d, want 1", got)
	}

	both := must(t)(c.Get(ctx, testIndex+"/tweet,post/_search",
		elastic.WithData(matchAll), elastic.WithParam("size", "2")))
	if got := lookupInt(t, both, "hits", "total"); got != 2 {
		t.Errorf("tweet,post hits = %d, want 2", got)
	}
}

func documentUpdate(ctx context.Context, t *testing.T, c *elastic.Client) {
	doc := c.Path(testIndex).Path("sometype").Path("123")

	before := must(t)(doc.Get(ctx))
	if lookupBool(t, before, "exists") {
		t.Fatal("document exists before insert")
	}

	inserted := must(t)(c.Path(testIndex, "sometype", 123).Put(ctx,
		elastic.WithData(map[string]any{"value": 100, "other": "stuff"}),
		elastic.WithParam("refresh", "true"),
	))
	if !lookupBool(t, inserted, "ok") {
		t.Fatalf("insert: %s", inserted)
	}

	updated := must(t)(doc.Path("_update").Post(ctx,
		elastic.WithData(map[string]any{
			"script": "ctx._source.value += value",
			"params": map[string]any{"value": 50},
		}),
		elastic.WithParam("refresh", "true"),
	))
	if !lookupBool(t, updated, "ok") {
		t.Fatalf("update: %s", updated)
	}

	after := must(t)(doc.Get(ctx))
	if got := lookupInt(t, after, "_source", "value"); got != 150 {
		t.Errorf("value after update = %d, want 150", got)
	}
}

func documentDelete(ctx context.Context, t *testing.T, c *elastic.Client) {
	before := must(t)(c.Path(testIndex, "persontype", "555").Get(ctx))
	if lookupBool(t, before, "exists") {
		t.Fatal("document exists before insert")
	}

	inserted := must(t)(c.Path(testIndex, "persontype", 555).Put(ctx,
		elastic.WithData(map[string]any{"name": "bob"}),
		elastic.WithParam("refresh", "true"),
	))
	if !lookupBool(t, inserted, "ok") {
		t.Fatalf("insert: %s", inserted)
	}

	deleted := must(t)(c.Path(testIndex).Path("persontype/555").Delete(ctx))
	if !lookupBool(t, deleted, "ok") {
		t.Fatalf("delete: %s", deleted)
	}

	after := must(t)(c.Path(testIndex).Path("persontype").Path("555").Get(ctx))
	if lookupBool(t, after, "exists") {
		t.Error("document still exists after delete")
	}
}

func countDocs(ctx context.Context, t *testing.T, c *elastic.Client) int64 {
	t.Helper()
	res := must(t)(c.Path(testIndex, testType).Path("_search").Get(ctx, elastic.WithParam("size", 0)))
	return lookupInt(t, res, "hits", "total")
}

func bulkLoad(ctx context.Context, t *testing.T, c *elastic.Client) {
	bulk := c.Path(testIndex, testType).Path("_bulk")
	base := countDocs(ctx, t, c)

	body := `
        {"index" : {}}
        {"key":"value1"}
        {"index" : {}}
        {"key":"value2"}
        {"index" : {}}
        {"key":"value3"}
        `
	must(t)(bulk.Post(ctx, elastic.WithData(body), elastic.WithParam("refresh", "true")))
	if got := countDocs(ctx, t, c); got != base+3 {
		t.Errorf("count after string bulk = %d, want %d", got, base+3)
	}

	items := []any{
		map[string]any{"index": map[string]any{}},
		map[string]any{"key": "value4"},
		map[string]any{"index": map[string]any{}},
		map[string]any{"key": "value5"},
		map[string]any{"index": map[string]any{}},
		map[string]any{"key": "value6"},
	}
	payload, err := codec.EncodeBulk(items, nil)
	if err != nil {
		t.Fatalf("EncodeBulk: %v", err)
	}
	must(t)(bulk.Post(ctx, elastic.WithData(payload), elastic.WithParam("refresh", "true")))
	if got := countDocs(ctx, t, c); got != base+6 {
		t.Errorf("count after list bulk = %d, want %d", got, base+6)
	}
}

// eastern is a fixed UTC-5 zone, standard time on the east coast.
var eastern = time.FixedZone("EST", -5*60*60)

func datetimeEncoder(ctx context.Context, t *testing.T, c *elastic.Client) {
	checkDateDocument(ctx, t, c, "datetimetesttype", 123, nil, "2012-11-12T14:30:03Z")
}

func customEncoder(ctx context.Context, t *testing.T, c *elastic.Client) {
	checkDateDocument(ctx, t, c, "customdatetimetesttype", 456, codec.DateOnly, "2012-11-12")
}

func checkDateDocument(ctx context.Context, t *testing.T, c *elastic.Client, typ string, id int, enc codec.EncodeFunc, want string) {
	t.Helper()
	doc := c.Path(testIndex, typ, id)

	before := must(t)(doc.Get(ctx))
	if lookupBool(t, before, "exists") {
		t.Fatal("document exists before insert")
	}

	mapping := must(t)(c.Get(ctx, testIndex+"/"+typ+"/_mapping"))
	if got := lookupInt(t, mapping, "status"); got != 404 {
		t.Fatalf("mapping status before insert = %d, want 404", got)
	}

	inserted := must(t)(doc.Put(ctx,
		elastic.WithData(map[string]any{
			"name":    "dateme",
			"updated": time.Date(2012, 11, 12, 9, 30, 3, 0, eastern),
		}),
		elastic.WithParam("refresh", "true"),
		elastic.WithEncoder(enc),
	))
	if !lookupBool(t, inserted, "ok") {
		t.Fatalf("insert: %s", inserted)
	}

	mapping = must(t)(c.Get(ctx, testIndex+"/"+typ+"/_mapping"))
	if got := lookupString(t, mapping, typ, "properties", "updated", "format"); got != "dateOptionalTime" {
		t.Errorf("mapping format = %q, want dateOptionalTime", got)
	}

	after := must(t)(doc.Get(ctx))
	if !lookupBool(t, after, "exists") {
		t.Fatal("document missing after insert")
	}
	if got := lookupString(t, after, "_source", "updated"); got != want {
		t.Errorf("stored date = %q, want %q", got, want)
	}
}

// TestTransportEquivalence replays one request script over each transport
// from the same starting state and compares every response.
func TestTransportEquivalence(t *testing.T) {
	svc := startService(t)
	ctx := context.Background()

	type step struct {
		method string
		path   string
		opts   []elastic.RequestOption
	}
	script := []step{
		{"GET", "equiv/_status", nil},
		{"PUT", "equiv", nil},
		{"PUT", "equiv", nil},
		{"PUT", "equiv/doc/1", []elastic.RequestOption{elastic.WithData(map[string]any{"n": 1, "tags": []string{"a", "b"}})}},
		{"PUT", "equiv/doc/1", []elastic.RequestOption{elastic.WithData(map[string]any{"n": 2.5})}},
		{"GET", "equiv/doc/1", nil},
		{"GET", "equiv/doc/2", nil},
		{"GET", "equiv/doc/_mapping", nil},
		{"GET", "equiv/other/_mapping", nil},
		{"POST", "equiv/doc/1/_update", []elastic.RequestOption{elastic.WithData(map[string]any{"doc": map[string]any{"extra": true}})}},
		{"GET", "equiv/doc/_search", []elastic.RequestOption{elastic.WithParams(map[string]any{"size": 5, "refresh": true})}},
		{"GET", "equiv/doc/_count", nil},
		{"DELETE", "equiv/doc/1", nil},
		{"DELETE", "equiv/doc/1", nil},
		{"GET", "equiv/unknown/verb/here/too", nil},
		{"DELETE", "equiv", nil},
		{"DELETE", "equiv", nil},
	}

	run := func(t *testing.T, url string) []*elastic.Response {
		tu.T(t).Reset(svc)
		client := newClient(t, elastic.Config{URL: url})
		out := make([]*elastic.Response, 0, len(script))
		for _, s := range script {
			req := elastic.Request{Method: s.method, Path: s.path}
			for _, opt := range s.opts {
				opt(&req)
			}
			resp, err := client.Execute(ctx, req)
			if err != nil {
				t.Fatalf("%s %s: %v", s.method, s.path, err)
			}
			out = append(out, resp)
		}
		return out
	}

	httpResults := run(t, svc.HTTPURL())
	thriftResults := run(t, svc.ThriftURL())

	for i, s := range script {
		h, th := httpResults[i], thriftResults[i]
		if h.Status != th.Status {
			t.Errorf("%s %s: status http=%d thrift=%d", s.method, s.path, h.Status, th.Status)
		}
		if !h.Body.Equal(th.Body) {
			t.Errorf("%s %s: body http=%s thrift=%s", s.method, s.path, h.Body, th.Body)
		}
	}
}

// TestScenarios_HTTPS runs the document round trip over TLS with HTTP/2.
func TestScenarios_HTTPS(t *testing.T) {
	svc := startService(t, testutil.WithTLS())
	client := newClient(t, elastic.Config{
		URL:         svc.HTTPURL(),
		EnableHTTP2: true,
		TLS:         &elastic.TLSConfig{SkipVerify: true},
	})
	ctx := context.Background()

	must(t)(client.Put(ctx, "secure/doc/1", elastic.WithData(map[string]any{"v": "x"})))
	got := must(t)(client.Get(ctx, "secure/doc/1"))
	if s := lookupString(t, got, "_source", "v"); s != "x" {
		t.Errorf("_source.v = %q", s)
	}
}
