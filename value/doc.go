// Package value holds decoded service responses.
//
// A Value is a tagged union over the JSON kinds. Objects keep the key
// order of the response body, and integers that fit in int64 stay exact.
// Missing keys and out-of-range indexes yield a Null value, so lookups
// chain without intermediate checks:
//
//	total, ok := v.Get("hits").Get("total").Int()
//
// Service fields such as "exists", "ok" and "status" are ordinary members.
package value
