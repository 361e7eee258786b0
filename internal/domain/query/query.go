// Package query implements the single-line query string used both in search
// URLs and as the request sent to the results endpoint.
//
// The grammar is one token per space: "key:value" tokens for whitelisted keys,
// everything else is free text. Values containing spaces cannot be expressed.
package query

import (
	"strings"
)

// Whitelisted token keys.
const (
	KeyDocumentType = "document-type"
	KeyRadius       = "radius"
	KeyLat          = "lat"
	KeyLng          = "lng"
	KeyPerson       = "person"
	KeyOrganization = "organization"
	KeyAfter        = "after"
	KeyBefore       = "before"
	KeySort         = "sort"
)

// Keys lists every key a token may carry. Anything else is free text.
var Keys = []string{
	KeyDocumentType,
	KeyRadius,
	KeyLat,
	KeyLng,
	KeyPerson,
	KeyOrganization,
	KeyAfter,
	KeyBefore,
	KeySort,
}

var keySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Keys))
	for _, k := range Keys {
		m[k] = struct{}{}
	}
	return m
}()

// IsKey reports whether k is a whitelisted token key.
func IsKey(k string) bool {
	_, ok := keySet[k]
	return ok
}

// Params maps token keys to their raw values.
type Params map[string]string

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string { return p[key] }

// Has reports whether key carries a non-empty value.
func (p Params) Has(key string) bool { return p[key] != "" }

// Decoded is the structured form of a query string.
type Decoded struct {
	Params   Params
	FreeText string
}

// Fragmenter is anything that contributes a query fragment.
// A fragment is either empty or one or more "key:value " tokens.
type Fragmenter interface {
	QueryString() string
}

// Encode joins facet fragments and the free text into the canonical form.
func Encode(fragments []string, freeText string) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f)
	}
	b.WriteString(freeText)
	return trimOne(b.String())
}

// EncodeFacets encodes fragments in registration order.
func EncodeFacets[F Fragmenter](facets []F, freeText string) string {
	fragments := make([]string, len(facets))
	for i, f := range facets {
		fragments[i] = f.QueryString()
	}
	return Encode(fragments, freeText)
}

// Decode splits raw into params and free text.
// A part is a param only when it has exactly one colon and a whitelisted key;
// a later duplicate key overrides an earlier one.
func Decode(raw string) Decoded {
	d := Decoded{Params: Params{}}
	var words []string
	for _, part := range strings.Split(raw, " ") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if ok && !strings.Contains(value, ":") && IsKey(key) {
			d.Params[key] = value
			continue
		}
		words = append(words, part)
	}
	d.FreeText = strings.Join(words, " ")
	return d
}

// Token formats a single "key:value " fragment.
func Token(key, value string) string {
	return key + ":" + value + " "
}

// trimOne drops a single leading and a single trailing whitespace character.
func trimOne(s string) string {
	if s != "" && isSpace(s[0]) {
		s = s[1:]
	}
	if s != "" && isSpace(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
