// Package client defines the backend contract and constructs a concrete
// backend from a target specification.
package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/TritonDataCenter/manta-chum/models"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"

	"github.com/minio/pkg/certs"
	"golang.org/x/net/http2"
)

// Backend performs one operation against the target. Each worker owns its
// own Backend instance; backends are the only holders of queue access.
//
// A (nil, nil) return means the operation's precondition was not met (for
// example a read with nothing written yet): a silent no-op, not an error and
// not reportable.
type Backend interface {
	Write() (*models.Record, error)
	Read() (*models.Record, error)
	Delete() (*models.Record, error)
}

// FillProber is implemented by backends that can measure how full the
// target filesystem is, as a 0..100 percentage. Required for percentage
// data caps.
type FillProber interface {
	Fill() (float64, error)
}

// Options carries everything a backend constructor may need beyond the
// target address.
type Options struct {
	Worker int      // worker index, used as the record's identity
	Sizes  []uint64 // expanded file-size pool
	Queue  *queue.Queue

	// s3/webdav transport settings
	AccessKey  string
	SecretKey  string
	Region     string
	TLS        bool
	Insecure   bool
	Bucket     string
	Concurrent int
}

// constructors by scheme, filled in by the backend packages to avoid an
// import cycle with this package.
var constructors = map[string]func(address string, opts Options) (Backend, error){}

// Register makes a backend constructor available to New. Called from the
// backend packages' init functions.
func Register(scheme string, ctor func(address string, opts Options) (Backend, error)) {
	constructors[scheme] = ctor
}

// New parses a "<scheme>:<address-or-path>" target and builds the matching
// backend. Unknown schemes are a startup configuration error.
func New(target string, opts Options) (Backend, error) {
	scheme, address, ok := strings.Cut(target, ":")
	if !ok || address == "" {
		return nil, fmt.Errorf("malformed target %q (want <scheme>:<address-or-path>)", target)
	}
	ctor, ok := constructors[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("unknown target scheme %q", scheme)
	}
	return ctor(address, opts)
}

// Transport builds the HTTP transport shared by the network backends.
func Transport(opts Options) http.RoundTripper {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   opts.Concurrent,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		ResponseHeaderTimeout: 2 * time.Minute,
		// Set this value so that the underlying transport round-tripper
		// doesn't try to auto decode the body of objects with
		// content-encoding set to `gzip`.
		//
		// Refer:
		//    https://golang.org/src/net/http/transport.go?h=roundTrip#L1843
		DisableCompression: true,
	}
	if opts.TLS {
		tlsConfig := &tls.Config{
			RootCAs:    mustGetSystemCertPool(),
			MinVersion: tls.VersionTLS12,
		}
		if opts.Insecure {
			tlsConfig.InsecureSkipVerify = true
		}
		tr.TLSClientConfig = tlsConfig

		// Because we create a custom TLSClientConfig, we have to opt-in to HTTP/2.
		// See https://github.com/golang/go/issues/14275
		http2.ConfigureTransport(tr)
	}
	return tr
}

// mustGetSystemCertPool - return system CAs or empty pool in case of error (or windows)
func mustGetSystemCertPool() *x509.CertPool {
	rootCAs, err := certs.GetRootCAs("")
	if err != nil {
		rootCAs, err = x509.SystemCertPool()
		if err != nil {
			return x509.NewCertPool()
		}
	}
	return rootCAs
}
