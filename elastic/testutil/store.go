package testutil

import (
	"regexp"
	"sort"
	"sync"

	"github.com/kbukum/rawes/value"
)

// dateOptionalTime matches the strings the service's dynamic mapping
// detects as dates.
var dateOptionalTime = regexp.MustCompile(
	`^\d{4}-\d{1,2}-\d{1,2}(T\d{1,2}(:\d{1,2}(:\d{1,2}(\.\d{1,9})?)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)

type document struct {
	id      string
	version int64
	seq     uint64
	source  value.Value
}

type fieldMapping struct {
	Type       string
	Format     string
	Properties map[string]*fieldMapping
}

type docType struct {
	docs    map[string]*document
	mapping map[string]*fieldMapping
}

type index struct {
	types map[string]*docType
}

// store holds indices. Documents are never mutated after insertion, so
// snapshots share them.
type store struct {
	mu      sync.RWMutex
	indices map[string]*index
	seq     uint64
}

type storeSnapshot struct {
	indices map[string]*index
	seq     uint64
}

func newStore() *store {
	return &store{indices: make(map[string]*index)}
}

func newIndex() *index {
	return &index{types: make(map[string]*docType)}
}

func (s *store) createIndex(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; ok {
		return false
	}
	s.indices[name] = newIndex()
	return true
}

func (s *store) deleteIndex(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; !ok {
		return false
	}
	delete(s.indices, name)
	return true
}

func (s *store) hasIndex(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[name]
	return ok
}

func (s *store) numDocs(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[name]
	if !ok {
		return 0
	}
	n := 0
	for _, t := range idx.types {
		n += len(t.docs)
	}
	return n
}

// put stores source under id, creating the index and type as needed.
func (s *store) put(indexName, typeName, id string, source value.Value) (version int64, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(indexName, typeName, id, source)
}

func (s *store) putLocked(indexName, typeName, id string, source value.Value) (int64, bool) {
	idx, ok := s.indices[indexName]
	if !ok {
		idx = newIndex()
		s.indices[indexName] = idx
	}
	t, ok := idx.types[typeName]
	if !ok {
		t = &docType{docs: make(map[string]*document), mapping: make(map[string]*fieldMapping)}
		idx.types[typeName] = t
	}

	s.seq++
	doc := &document{id: id, version: 1, seq: s.seq, source: source}
	prev, exists := t.docs[id]
	if exists {
		doc.version = prev.version + 1
		doc.seq = prev.seq
	}
	t.docs[id] = doc
	inferMapping(t.mapping, source)
	return doc.version, !exists
}

func (s *store) get(indexName, typeName, id string) (*document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[indexName]
	if !ok {
		return nil, false
	}
	t, ok := idx.types[typeName]
	if !ok {
		return nil, true
	}
	return t.docs[id], true
}

func (s *store) remove(indexName, typeName, id string) (*document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[indexName]
	if !ok {
		return nil, false
	}
	t, ok := idx.types[typeName]
	if !ok {
		return nil, true
	}
	doc := t.docs[id]
	delete(t.docs, id)
	return doc, true
}

// update replaces a document with fn's result. It reports a missing index
// or document through found.
func (s *store) update(indexName, typeName, id string, fn func(value.Value) (value.Value, error)) (version int64, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[indexName]
	if !ok {
		return 0, false, nil
	}
	t, ok := idx.types[typeName]
	if !ok {
		return 0, false, nil
	}
	doc, ok := t.docs[id]
	if !ok {
		return 0, false, nil
	}
	updated, err := fn(doc.source)
	if err != nil {
		return 0, true, err
	}
	version, _ = s.putLocked(indexName, typeName, id, updated)
	return version, true, nil
}

type hit struct {
	index string
	typ   string
	doc   *document
}

// search returns the documents of the given indices and types in
// insertion order. Empty indexNames means all indices; empty typeNames
// means all types.
func (s *store) search(indexNames, typeNames []string, match func(value.Value) bool) ([]hit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(indexNames) == 0 {
		for name := range s.indices {
			indexNames = append(indexNames, name)
		}
	}

	var hits []hit
	for _, name := range indexNames {
		idx, ok := s.indices[name]
		if !ok {
			return nil, false
		}
		names := typeNames
		if len(names) == 0 {
			for typ := range idx.types {
				names = append(names, typ)
			}
		}
		for _, typ := range names {
			t, ok := idx.types[typ]
			if !ok {
				continue
			}
			for _, doc := range t.docs {
				if match == nil || match(doc.source) {
					hits = append(hits, hit{index: name, typ: typ, doc: doc})
				}
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].doc.seq < hits[j].doc.seq })
	return hits, true
}

// mapping renders a type's mapping, or reports it missing. A type has no
// mapping until its first document.
func (s *store) mapping(indexName, typeName string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[indexName]
	if !ok {
		return nil, false
	}
	t, ok := idx.types[typeName]
	if !ok {
		return nil, false
	}
	return map[string]any{"properties": renderProperties(t.mapping)}, true
}

func (s *store) typeNames(indexName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[indexName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(idx.types))
	for name := range idx.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices = make(map[string]*index)
	s.seq = 0
}

func (s *store) snapshot() *storeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &storeSnapshot{indices: copyIndices(s.indices), seq: s.seq}
}

func (s *store) restore(snap *storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices = copyIndices(snap.indices)
	s.seq = snap.seq
}

func copyIndices(in map[string]*index) map[string]*index {
	out := make(map[string]*index, len(in))
	for name, idx := range in {
		cp := newIndex()
		for typ, t := range idx.types {
			docs := make(map[string]*document, len(t.docs))
			for id, doc := range t.docs {
				docs[id] = doc
			}
			cp.types[typ] = &docType{docs: docs, mapping: copyMapping(t.mapping)}
		}
		out[name] = cp
	}
	return out
}

func copyMapping(in map[string]*fieldMapping) map[string]*fieldMapping {
	if in == nil {
		return nil
	}
	out := make(map[string]*fieldMapping, len(in))
	for k, f := range in {
		out[k] = &fieldMapping{Type: f.Type, Format: f.Format, Properties: copyMapping(f.Properties)}
	}
	return out
}

// inferMapping adds fields of source not yet mapped. Existing fields keep
// their first mapping.
func inferMapping(props map[string]*fieldMapping, source value.Value) {
	obj, ok := source.Object()
	if !ok {
		return
	}
	for _, m := range obj.Members() {
		existing, ok := props[m.Key]
		if !ok {
			if f := inferField(m.Value); f != nil {
				props[m.Key] = f
			}
			continue
		}
		if existing.Properties != nil && m.Value.Kind() == value.KindObject {
			inferMapping(existing.Properties, m.Value)
		}
	}
}

func inferField(v value.Value) *fieldMapping {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.Str()
		if dateOptionalTime.MatchString(s) {
			return &fieldMapping{Type: "date", Format: "dateOptionalTime"}
		}
		return &fieldMapping{Type: "string"}
	case value.KindInt:
		return &fieldMapping{Type: "long"}
	case value.KindFloat:
		return &fieldMapping{Type: "double"}
	case value.KindBool:
		return &fieldMapping{Type: "boolean"}
	case value.KindObject:
		f := &fieldMapping{Properties: make(map[string]*fieldMapping)}
		inferMapping(f.Properties, v)
		return f
	case value.KindArray:
		for _, e := range v.Elements() {
			if f := inferField(e); f != nil {
				return f
			}
		}
	}
	return nil
}

func renderProperties(props map[string]*fieldMapping) map[string]any {
	out := make(map[string]any, len(props))
	for k, f := range props {
		m := map[string]any{}
		if f.Type != "" {
			m["type"] = f.Type
		}
		if f.Format != "" {
			m["format"] = f.Format
		}
		if f.Properties != nil {
			m["properties"] = renderProperties(f.Properties)
		}
		out[k] = m
	}
	return out
}
