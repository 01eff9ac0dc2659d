package value

import (
	"testing"

	"github.com/kbukum/rawes/errors"
)

func TestValue_Query(t *testing.T) {
	v, err := Decode([]byte(`{"hits":{"total":2,"hits":[{"_id":"1","_source":{"value":150}},{"_id":"2","_source":{"value":7}}]}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	tests := []struct {
		expr string
		want []string
	}{
		{".hits.total", []string{"2"}},
		{".hits.hits[]._id", []string{`"1"`, `"2"`}},
		{"[.hits.hits[]._source.value] | add", []string{"157"}},
		{".hits.hits | map(select(._source.value > 100)) | length", []string{"1"}},
		{".missing", []string{"null"}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := v.Query(tt.expr)
			if err != nil {
				t.Fatalf("Query(%q): %v", tt.expr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Query(%q) = %v, want %v", tt.expr, got, tt.want)
			}
			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("Query(%q)[%d] = %s, want %s", tt.expr, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValue_Query_Errors(t *testing.T) {
	v := NewObject(Member{"a", NewInt(1)})

	if _, err := v.Query(".a |"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("parse error: got %v", err)
	}
	if _, err := v.Query(".a[0]"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("runtime error: got %v", err)
	}
}

func TestValue_Query_KeepsMemberOrder(t *testing.T) {
	v, err := Decode([]byte(`{"took":3,"hits":{"total":1,"hits":[{"_source":{"zeta":1,"alpha":{"y":2,"b":3}},"_id":"1"}]}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{".", `{"took":3,"hits":{"total":1,"hits":[{"_source":{"zeta":1,"alpha":{"y":2,"b":3}},"_id":"1"}]}}`},
		{".hits.hits[0]._source", `{"zeta":1,"alpha":{"y":2,"b":3}}`},
		{".hits.hits[0] | del(._id)", `{"_source":{"zeta":1,"alpha":{"y":2,"b":3}}}`},
		{".hits.hits[0]._source + {extra: true, another: 0}", `{"zeta":1,"alpha":{"y":2,"b":3},"another":0,"extra":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := v.Query(tt.expr)
			if err != nil {
				t.Fatalf("Query(%q): %v", tt.expr, err)
			}
			if len(got) != 1 || got[0].String() != tt.want {
				t.Errorf("Query(%q) = %v, want %s", tt.expr, got, tt.want)
			}
		})
	}
}
