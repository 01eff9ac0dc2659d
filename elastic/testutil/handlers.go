package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/rawes/logger"
	"github.com/kbukum/rawes/value"
)

const (
	serviceVersion = "0.20.6"
	defaultSize    = 10
)

var shards = gin.H{"total": 1, "successful": 1, "failed": 0}

// newEngine builds the router. Every path goes through dispatch, which
// routes on segments the way the service does.
func (s *Service) newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(recovery(s.log), requestLogger(s.log))
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodHead} {
		engine.Handle(method, "/*path", s.dispatch)
	}
	return engine
}

// recovery turns handler panics into 500 responses.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					logger.FieldPath, c.Request.URL.Path,
					logger.FieldMethod, c.Request.Method,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(
					fmt.Sprintf("ElasticSearchException[%v]", err), http.StatusInternalServerError))
			}
		}()
		c.Next()
	}
}

// requestLogger logs every request at a level chosen by status.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logger.Fields(
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldStatus, status,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		switch {
		case status >= 500:
			log.Error("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}

func errorBody(msg string, status int) gin.H {
	return gin.H{"error": msg, "status": status}
}

func indexMissing(name string) gin.H {
	return errorBody(fmt.Sprintf("IndexMissingException[[%s] missing]", name), http.StatusNotFound)
}

// splitPath splits the request path into segments, keeping empty ones.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func splitList(s string) []string {
	if s == "" || s == "_all" {
		return nil
	}
	return strings.Split(s, ",")
}

func (s *Service) dispatch(c *gin.Context) {
	segs := splitPath(c.Param("path"))
	method := c.Request.Method

	switch len(segs) {
	case 0:
		if method == http.MethodGet || method == http.MethodHead {
			s.root(c)
			return
		}
	case 1:
		switch segs[0] {
		case "_search":
			s.search(c, nil, nil)
			return
		case "_count":
			s.count(c, nil, nil)
			return
		case "_bulk":
			if method == http.MethodPost || method == http.MethodPut {
				s.bulk(c, "", "")
				return
			}
		default:
			switch method {
			case http.MethodPut, http.MethodPost:
				s.createIndex(c, segs[0])
				return
			case http.MethodDelete:
				s.deleteIndex(c, segs[0])
				return
			case http.MethodHead:
				s.indexExists(c, segs[0])
				return
			}
		}
	case 2:
		idx := segs[0]
		switch segs[1] {
		case "_status":
			s.status(c, idx)
			return
		case "_refresh", "_flush":
			s.refresh(c, idx)
			return
		case "_search":
			s.search(c, splitList(idx), nil)
			return
		case "_count":
			s.count(c, splitList(idx), nil)
			return
		case "_bulk":
			if method == http.MethodPost || method == http.MethodPut {
				s.bulk(c, idx, "")
				return
			}
		case "_mapping":
			if method == http.MethodGet {
				s.indexMapping(c, idx)
				return
			}
		default:
			if method == http.MethodPost {
				s.indexDoc(c, idx, segs[1], "")
				return
			}
		}
	case 3:
		idx, typ := segs[0], segs[1]
		switch segs[2] {
		case "_search":
			s.search(c, splitList(idx), splitList(typ))
			return
		case "_count":
			s.count(c, splitList(idx), splitList(typ))
			return
		case "_bulk":
			if method == http.MethodPost || method == http.MethodPut {
				s.bulk(c, idx, typ)
				return
			}
		case "_mapping":
			if method == http.MethodGet {
				s.typeMapping(c, idx, typ)
				return
			}
		default:
			id := segs[2]
			switch method {
			case http.MethodGet, http.MethodHead:
				if id != "" {
					s.getDoc(c, idx, typ, id)
					return
				}
			case http.MethodPut:
				if id != "" {
					s.indexDoc(c, idx, typ, id)
					return
				}
			case http.MethodPost:
				s.indexDoc(c, idx, typ, id)
				return
			case http.MethodDelete:
				s.deleteDoc(c, idx, typ, id)
				return
			}
		}
	case 4:
		if segs[3] == "_update" && method == http.MethodPost {
			s.updateDoc(c, segs[0], segs[1], segs[2])
			return
		}
	}

	c.JSON(http.StatusBadRequest, errorBody(
		fmt.Sprintf("No handler found for uri [%s] and method [%s]", c.Request.URL.Path, method),
		http.StatusBadRequest))
}

// readBody decodes the request body. An empty body is null.
func readBody(c *gin.Context) (value.Value, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("failed to read body: "+err.Error(), http.StatusBadRequest))
		return value.Value{}, false
	}
	v, err := value.Decode(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("MapperParsingException[failed to parse]; "+err.Error(), http.StatusBadRequest))
		return value.Value{}, false
	}
	return v, true
}

func (s *Service) root(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"status":  http.StatusOK,
		"name":    s.name,
		"version": gin.H{"number": serviceVersion},
		"tagline": "You Know, for Search",
	})
}

func (s *Service) createIndex(c *gin.Context, name string) {
	if !s.store.createIndex(name) {
		c.JSON(http.StatusBadRequest, errorBody(
			fmt.Sprintf("IndexAlreadyExistsException[[%s] Already exists]", name), http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "acknowledged": true})
}

func (s *Service) deleteIndex(c *gin.Context, name string) {
	if !s.store.deleteIndex(name) {
		c.JSON(http.StatusNotFound, indexMissing(name))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "acknowledged": true})
}

func (s *Service) indexExists(c *gin.Context, name string) {
	if s.store.hasIndex(name) {
		c.Status(http.StatusOK)
		return
	}
	c.Status(http.StatusNotFound)
}

func (s *Service) status(c *gin.Context, name string) {
	if !s.store.hasIndex(name) {
		c.JSON(http.StatusNotFound, indexMissing(name))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"_shards": shards,
		"indices": gin.H{
			name: gin.H{"docs": gin.H{"num_docs": s.store.numDocs(name)}},
		},
	})
}

func (s *Service) refresh(c *gin.Context, name string) {
	for _, n := range splitList(name) {
		if !s.store.hasIndex(n) {
			c.JSON(http.StatusNotFound, indexMissing(n))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "_shards": shards})
}

func (s *Service) indexDoc(c *gin.Context, idx, typ, id string) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	if body.Kind() != value.KindObject {
		c.JSON(http.StatusBadRequest, errorBody("MapperParsingException[failed to parse, document is empty]", http.StatusBadRequest))
		return
	}
	if c.Query("op_type") == "create" || c.Query("op_type") == "_create" {
		if doc, _ := s.store.get(idx, typ, id); doc != nil {
			c.JSON(http.StatusConflict, errorBody(
				fmt.Sprintf("DocumentAlreadyExistsException[[%s][%s]: document already exists]", idx, id),
				http.StatusConflict))
			return
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	version, created := s.store.put(idx, typ, id, body)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"ok":       true,
		"_index":   idx,
		"_type":    typ,
		"_id":      id,
		"_version": version,
	})
}

func (s *Service) getDoc(c *gin.Context, idx, typ, id string) {
	doc, indexFound := s.store.get(idx, typ, id)
	if !indexFound {
		c.JSON(http.StatusNotFound, indexMissing(idx))
		return
	}
	if c.Request.Method == http.MethodHead {
		if doc == nil {
			c.Status(http.StatusNotFound)
		} else {
			c.Status(http.StatusOK)
		}
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"_index": idx, "_type": typ, "_id": id, "exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"_index":   idx,
		"_type":    typ,
		"_id":      id,
		"_version": doc.version,
		"exists":   true,
		"_source":  doc.source,
	})
}

func (s *Service) deleteDoc(c *gin.Context, idx, typ, id string) {
	doc, indexFound := s.store.remove(idx, typ, id)
	if !indexFound {
		c.JSON(http.StatusNotFound, indexMissing(idx))
		return
	}
	resp := gin.H{"ok": true, "_index": idx, "_type": typ, "_id": id, "found": doc != nil}
	if doc == nil {
		resp["_version"] = 1
		c.JSON(http.StatusNotFound, resp)
		return
	}
	resp["_version"] = doc.version + 1
	c.JSON(http.StatusOK, resp)
}

func (s *Service) updateDoc(c *gin.Context, idx, typ, id string) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	script, hasScript := body.Get("script").Str()
	doc := body.Get("doc")
	if !hasScript && doc.Kind() != value.KindObject {
		c.JSON(http.StatusBadRequest, errorBody(
			"ActionRequestValidationException[Validation Failed: 1: script or doc is missing;]", http.StatusBadRequest))
		return
	}

	version, found, err := s.store.update(idx, typ, id, func(src value.Value) (value.Value, error) {
		if hasScript {
			return runScript(script, body.Get("params"), src)
		}
		return mergeDoc(src, doc), nil
	})
	switch {
	case err != nil:
		c.JSON(http.StatusBadRequest, errorBody(
			"ElasticSearchIllegalArgumentException["+err.Error()+"]", http.StatusBadRequest))
		return
	case !found:
		c.JSON(http.StatusNotFound, errorBody(
			fmt.Sprintf("DocumentMissingException[[%s][%s][%s]: document missing]", idx, typ, id), http.StatusNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"_index":   idx,
		"_type":    typ,
		"_id":      id,
		"_version": version,
	})
}

// searchRequest holds the parsed query, size and from of a search.
type searchRequest struct {
	match func(value.Value) bool
	size  int
	from  int
}

func parseSearch(c *gin.Context, body value.Value) (searchRequest, error) {
	req := searchRequest{size: defaultSize}

	if n, ok := body.Get("size").Int(); ok {
		req.size = int(n)
	}
	if n, ok := body.Get("from").Int(); ok {
		req.from = int(n)
	}
	if p := c.Query("size"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return req, fmt.Errorf("failed to parse size [%s]", p)
		}
		req.size = n
	}
	if p := c.Query("from"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return req, fmt.Errorf("failed to parse from [%s]", p)
		}
		req.from = n
	}

	match, err := parseQuery(body.Get("query"))
	if err != nil {
		return req, err
	}
	req.match = match
	return req, nil
}

// parseQuery supports match_all, term and match (exact field equality).
// Field names may be dotted.
func parseQuery(q value.Value) (func(value.Value) bool, error) {
	obj, ok := q.Object()
	if !ok || obj.Len() == 0 {
		return nil, nil
	}
	if obj.Len() != 1 {
		return nil, fmt.Errorf("query must have exactly one clause")
	}
	clause := obj.Members()[0]
	switch clause.Key {
	case "match_all":
		return nil, nil
	case "term", "match":
		fields, ok := clause.Value.Object()
		if !ok || fields.Len() != 1 {
			return nil, fmt.Errorf("[%s] query requires one field", clause.Key)
		}
		field := fields.Members()[0]
		want := field.Value
		if want.Kind() == value.KindObject {
			want = want.Get("query")
		}
		path := make([]any, 0)
		for _, p := range strings.Split(field.Key, ".") {
			path = append(path, p)
		}
		return func(src value.Value) bool {
			got, ok := src.Lookup(path...)
			return ok && got.Equal(want)
		}, nil
	}
	return nil, fmt.Errorf("No query registered for [%s]", clause.Key)
}

func (s *Service) search(c *gin.Context, indices, types []string) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	req, err := parseSearch(c, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"SearchPhaseExecutionException[Failed to execute phase [query]; "+err.Error()+"]", http.StatusBadRequest))
		return
	}

	hits, found := s.store.search(indices, types, req.match)
	if !found {
		c.JSON(http.StatusNotFound, indexMissing(strings.Join(indices, ",")))
		return
	}

	page := make([]gin.H, 0)
	for i := req.from; i < len(hits) && len(page) < req.size; i++ {
		h := hits[i]
		page = append(page, gin.H{
			"_index":  h.index,
			"_type":   h.typ,
			"_id":     h.doc.id,
			"_score":  1.0,
			"_source": h.doc.source,
		})
	}

	var maxScore any
	if len(hits) > 0 {
		maxScore = 1.0
	}
	c.JSON(http.StatusOK, gin.H{
		"took":      1,
		"timed_out": false,
		"_shards":   shards,
		"hits": gin.H{
			"total":     len(hits),
			"max_score": maxScore,
			"hits":      page,
		},
	})
}

func (s *Service) count(c *gin.Context, indices, types []string) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	q := body
	if body.Has("query") {
		q = body.Get("query")
	}
	match, err := parseQuery(q)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("QueryParsingException["+err.Error()+"]", http.StatusBadRequest))
		return
	}
	hits, found := s.store.search(indices, types, match)
	if !found {
		c.JSON(http.StatusNotFound, indexMissing(strings.Join(indices, ",")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(hits), "_shards": shards})
}

func (s *Service) indexMapping(c *gin.Context, idx string) {
	if !s.store.hasIndex(idx) {
		c.JSON(http.StatusNotFound, indexMissing(idx))
		return
	}
	types := gin.H{}
	for _, typ := range s.store.typeNames(idx) {
		if m, ok := s.store.mapping(idx, typ); ok {
			types[typ] = m
		}
	}
	c.JSON(http.StatusOK, gin.H{idx: types})
}

func (s *Service) typeMapping(c *gin.Context, idx, typ string) {
	m, ok := s.store.mapping(idx, typ)
	if !ok {
		c.JSON(http.StatusNotFound, errorBody(
			fmt.Sprintf("TypeMissingException[[%s] type[[%s]] missing]", idx, typ), http.StatusNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{typ: m})
}

// bulk applies newline-delimited action/document pairs. Supported actions
// are index, create and delete.
func (s *Service) bulk(c *gin.Context, defaultIndex, defaultType string) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("failed to read body: "+err.Error(), http.StatusBadRequest))
		return
	}

	var lines []value.Value
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		v, err := value.Decode(line)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("Failed to derive xcontent from bulk line: "+err.Error(), http.StatusBadRequest))
			return
		}
		lines = append(lines, v)
	}
	if err := scanner.Err(); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error(), http.StatusBadRequest))
		return
	}

	items := make([]gin.H, 0, len(lines)/2)
	for i := 0; i < len(lines); i++ {
		action, ok := lines[i].Object()
		if !ok || action.Len() != 1 {
			c.JSON(http.StatusBadRequest, errorBody(
				fmt.Sprintf("Malformed action/metadata line [%d]", i+1), http.StatusBadRequest))
			return
		}
		op := action.Members()[0]
		meta := op.Value
		idx := stringOr(meta.Get("_index"), defaultIndex)
		typ := stringOr(meta.Get("_type"), defaultType)
		id := stringOr(meta.Get("_id"), "")

		switch op.Key {
		case "index", "create":
			if i+1 >= len(lines) {
				c.JSON(http.StatusBadRequest, errorBody(
					fmt.Sprintf("Validation Failed: source is missing for action [%d]", i+1), http.StatusBadRequest))
				return
			}
			i++
			source := lines[i]
			item := gin.H{"_index": idx, "_type": typ}
			switch {
			case idx == "" || typ == "":
				item["error"] = "index and type are required"
			case op.Key == "create" && id != "" && s.docExists(idx, typ, id):
				item["_id"] = id
				item["error"] = "DocumentAlreadyExistsException[document already exists]"
			default:
				if id == "" {
					id = uuid.NewString()
				}
				version, _ := s.store.put(idx, typ, id, source)
				item["_id"] = id
				item["_version"] = version
				item["ok"] = true
			}
			items = append(items, gin.H{op.Key: item})
		case "delete":
			item := gin.H{"_index": idx, "_type": typ, "_id": id}
			doc, _ := s.store.remove(idx, typ, id)
			item["ok"] = true
			item["found"] = doc != nil
			items = append(items, gin.H{"delete": item})
		default:
			c.JSON(http.StatusBadRequest, errorBody(
				fmt.Sprintf("Malformed action/metadata line [%d], expected one of [create, delete, index] but found [%s]", i+1, op.Key),
				http.StatusBadRequest))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"took": 1, "items": items})
}

func (s *Service) docExists(idx, typ, id string) bool {
	doc, _ := s.store.get(idx, typ, id)
	return doc != nil
}

func stringOr(v value.Value, def string) string {
	if s, ok := v.Str(); ok && s != "" {
		return s
	}
	if n, ok := v.Int(); ok && v.Kind() == value.KindInt {
		return strconv.FormatInt(n, 10)
	}
	return def
}
