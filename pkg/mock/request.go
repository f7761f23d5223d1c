package mock

import (
	"net/http"
	"strconv"
	"strings"
)

// Request describes an outgoing request before it reaches the network.
//
// Either URL is set, or the URL is assembled from Protocol, Host, Port and
// Path. Path may carry a raw "?search" string; Query may carry structured
// query data. Both are honored by the normalizer.
type Request struct {
	Method   string
	URL      string
	Protocol string
	Host     string
	Port     int
	Path     string
	Headers  map[string]any
	Query    map[string]any
	Body     any

	// Raw is the originating *http.Request when the descriptor came from the
	// RoundTripper path. Nil for descriptors built by hand.
	Raw *http.Request
}

// MethodName returns the upper-cased method, defaulting to GET.
func (r *Request) MethodName() string {
	if r == nil || r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// FullURL returns the absolute request URL.
func (r *Request) FullURL() string {
	if r == nil {
		return ""
	}
	if r.URL != "" {
		return r.URL
	}

	scheme := strings.TrimSuffix(strings.ToLower(r.Protocol), ":")
	if scheme == "" {
		scheme = "http"
	}
	host := r.Host
	if host == "" {
		host = "localhost"
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	if r.Port != 0 && !defaultPort(scheme, r.Port) {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.Port))
	}
	if r.Path == "" || r.Path[0] != '/' {
		b.WriteByte('/')
	}
	b.WriteString(r.Path)
	return b.String()
}

func defaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

// FromHTTP builds a descriptor from an *http.Request without consuming its
// body. The body is read later, and only when a mock matches.
func FromHTTP(req *http.Request) *Request {
	headers := make(map[string]any, len(req.Header))
	for k, v := range req.Header {
		headers[k] = v
	}
	if req.Host != "" && req.Header.Get("Host") == "" {
		headers["Host"] = req.Host
	}
	return &Request{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: headers,
		Raw:     req,
	}
}
