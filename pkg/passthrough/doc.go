// Package passthrough decides which unmatched requests may reach the real
// network.
//
// An Allowlist starts closed. Requests are let through when their URL is
// allowed by at least one rule and excluded by none:
//
//	al := passthrough.New()
//	_ = al.AllowURL("http://127.0.0.1:*/**")
//	al.AllowHost("*.internal.test")
//	_ = al.Exclude("**/admin/**")
//
// URL rules are doublestar globs matched against scheme, host and path (the
// query string and fragment are ignored). Host rules use simple '*' globs and
// are case-insensitive.
package passthrough
