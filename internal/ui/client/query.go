package client

import (
	"net/url"
	"strings"
)

// Param is a single query parameter
type Param struct {
	Key   string
	Value string
}

// Query is an ordered set of query parameters.
//
// Unlike url.Values the parameters are encoded in the order they were added.
type Query []Param

// NewQuery builds a Query from alternating key/value strings. A trailing key without a value is ignored.
func NewQuery(kv ...string) Query {
	q := make(Query, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		q = q.Set(kv[i], kv[i+1])
	}
	return q
}

// Set adds the parameter, or replaces the value in place when the key is already present.
func (q Query) Set(key, value string) Query {
	for i := range q {
		if q[i].Key == key {
			q[i].Value = value
			return q
		}
	}
	return append(q, Param{Key: key, Value: value})
}

// Encode returns the parameters as "k1=v1&k2=v2" using URL query escaping
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
