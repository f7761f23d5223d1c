package intercept

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/getmockd/netmock/pkg/mock"
)

// BuildContext builds the handler context for desc. Query parameters come
// from the raw search string of the URL and from desc.Query; the structured
// mapping wins per key. Missing parts default to empty maps.
func BuildContext(desc *mock.Request, params map[string]string) *mock.Context {
	if desc == nil {
		desc = &mock.Request{}
	}

	query := ParseQuery(searchOf(desc.FullURL()))
	for k, v := range desc.Query {
		query[k] = queryValue(v)
	}

	p := make(map[string]string, len(params))
	for k, v := range params {
		p[k] = v
	}

	return &mock.Context{
		Raw:     desc,
		Query:   query,
		Params:  p,
		Headers: FlattenHeaders(desc.Headers),
		Body:    desc.Body,
	}
}

// ParseQuery parses a search string such as "?a=1&b=x+y". Keys and values
// are percent-decoded with '+' as space; undecodable parts are kept raw.
// A key without '=' maps to "". Later duplicates win.
func ParseQuery(search string) map[string]string {
	out := make(map[string]string)
	search = strings.TrimPrefix(search, "?")
	if search == "" {
		return out
	}
	for _, pair := range strings.Split(search, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out[unescape(key)] = unescape(value)
	}
	return out
}

// FlattenHeaders converts header values to strings under canonical keys.
// Multi-valued headers are joined with ", ".
func FlattenHeaders(headers map[string]any) map[string]string {
	out := make(map[string]string, len(headers))

	// Sorted so that keys differing only in case resolve deterministically.
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		out[http.CanonicalHeaderKey(k)] = headerValue(headers[k])
	}
	return out
}

func headerValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func queryValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		if len(val) == 0 {
			return ""
		}
		return val[len(val)-1]
	case []any:
		if len(val) == 0 {
			return ""
		}
		return queryValue(val[len(val)-1])
	default:
		return fmt.Sprint(val)
	}
}

func searchOf(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	_, search, found := strings.Cut(rawURL, "?")
	if !found {
		return ""
	}
	return search
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
