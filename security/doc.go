// Package security holds the TLS settings shared by the rawes transports.
//
// The same TLSConfig drives the HTTP transport's *http.Transport and the
// Thrift transport's SSL socket.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
