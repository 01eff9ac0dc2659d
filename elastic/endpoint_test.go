package elastic

import "testing"

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw  string
		want Endpoint
	}{
		{"localhost", Endpoint{Scheme: "http", Host: "localhost", Port: 9200, Kind: TransportHTTP}},
		{"localhost:9200", Endpoint{Scheme: "http", Host: "localhost", Port: 9200, Kind: TransportHTTP}},
		{"localhost:9500", Endpoint{Scheme: "thrift", Host: "localhost", Port: 9500, Kind: TransportThrift}},
		{"10.0.0.5:9600", Endpoint{Scheme: "thrift", Host: "10.0.0.5", Port: 9600, Kind: TransportThrift}},
		{"localhost:9601", Endpoint{Scheme: "http", Host: "localhost", Port: 9601, Kind: TransportHTTP}},
		{"localhost:9499", Endpoint{Scheme: "http", Host: "localhost", Port: 9499, Kind: TransportHTTP}},
		{"http://localhost:9500", Endpoint{Scheme: "http", Host: "localhost", Port: 9500, Kind: TransportHTTP}},
		{"thrift://localhost:9200", Endpoint{Scheme: "thrift", Host: "localhost", Port: 9200, Kind: TransportThrift}},
		{"thrift://search", Endpoint{Scheme: "thrift", Host: "search", Port: 9500, Kind: TransportThrift}},
		{"https://search.example.com", Endpoint{Scheme: "https", Host: "search.example.com", Port: 9200, Kind: TransportHTTP}},
		{"HTTP://localhost:80/es/", Endpoint{Scheme: "http", Host: "localhost", Port: 80, Kind: TransportHTTP, Path: "es"}},
		{"[::1]:9200", Endpoint{Scheme: "http", Host: "::1", Port: 9200, Kind: TransportHTTP}},
		{"  localhost:9201  ", Endpoint{Scheme: "http", Host: "localhost", Port: 9201, Kind: TransportHTTP}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseEndpoint(tt.raw)
			if err != nil {
				t.Fatalf("ParseEndpoint: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseEndpoint(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseEndpoint_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"ftp://localhost",
		"localhost:abc",
		"localhost:0",
		"localhost:70000",
		"http://:9200",
	} {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseEndpoint(raw); !IsInvalidInput(err) {
				t.Errorf("ParseEndpoint(%q) error = %v, want INVALID_INPUT", raw, err)
			}
		})
	}
}

func TestEndpoint_Strings(t *testing.T) {
	ep := Endpoint{Scheme: "http", Host: "::1", Port: 9200, Path: "es/v0"}
	if got := ep.Address(); got != "[::1]:9200" {
		t.Errorf("Address() = %q", got)
	}
	if got := ep.BaseURL(); got != "http://[::1]:9200" {
		t.Errorf("BaseURL() = %q", got)
	}
	if got := ep.String(); got != "http://[::1]:9200/es/v0" {
		t.Errorf("String() = %q", got)
	}
}

func TestTransportKind_String(t *testing.T) {
	if TransportHTTP.String() != "http" || TransportThrift.String() != "thrift" || TransportKind(9).String() != "unknown" {
		t.Error("unexpected transport kind names")
	}
}
