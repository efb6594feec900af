// Package envelope maps the backend's heterogeneous response shapes into
// the single contract the rendering layer depends on. It is pure: no I/O,
// and deliberately permissive, because response shape is not contractually
// guaranteed across endpoints.
package envelope

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// List is the normalized shape of every list endpoint, whether the backend
// returned a bare array or a paginated {results, count, next, previous}
// object. Items is never nil.
type List struct {
	Items      []json.RawMessage
	TotalCount int
	Next       string
	Previous   string
}

// NormalizeList derives a List from either backend list shape.
//
// A bare array of N elements yields TotalCount N with no pagination
// cursors. A paginated object yields items from "results" (a missing or
// null array collapses to empty) and trusts "count" even when it disagrees
// with len(results), since the backend counts across all pages. An object
// with no "results" at all normalizes to an empty list.
func NormalizeList(raw []byte) *List {
	list := &List{Items: []json.RawMessage{}}

	parsed := gjson.ParseBytes(raw)
	switch {
	case parsed.IsArray():
		for _, item := range parsed.Array() {
			list.Items = append(list.Items, json.RawMessage(item.Raw))
		}
		list.TotalCount = len(list.Items)

	case parsed.IsObject():
		results := parsed.Get("results")
		if results.IsArray() {
			for _, item := range results.Array() {
				list.Items = append(list.Items, json.RawMessage(item.Raw))
			}
		}
		if count := parsed.Get("count"); count.Exists() {
			list.TotalCount = int(count.Int())
		} else {
			list.TotalCount = len(list.Items)
		}
		list.Next = stringOrEmpty(parsed.Get("next"))
		list.Previous = stringOrEmpty(parsed.Get("previous"))
	}

	if list.TotalCount < 0 {
		list.TotalCount = 0
	}
	return list
}

// NormalizeDashboard guarantees the known subsections of a
// dashboard-statistics payload are present: "stats" and "pipeline" default
// to null and the endpoint's recent-items key defaults to an empty array,
// so callers can use uniform presence checks instead of guarding every
// key. The payload is otherwise passed through unchanged.
func NormalizeDashboard(raw []byte, recentKey string) []byte {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		raw = []byte(`{}`)
	}

	out := raw
	for _, key := range []string{"stats", "pipeline"} {
		if !gjson.GetBytes(out, key).Exists() {
			out, _ = sjson.SetRawBytes(out, key, []byte(`null`))
		}
	}
	recent := gjson.GetBytes(out, recentKey)
	if !recent.Exists() || recent.Type == gjson.Null {
		out, _ = sjson.SetRawBytes(out, recentKey, []byte(`[]`))
	}
	return out
}

// ErrorMessage extracts a best-effort human-readable message from an error
// response body. Backends in the wild answer with {"error": ...},
// {"message": ...}, {"detail": ...} or plain text.
func ErrorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		for _, key := range []string{"error", "message", "detail"} {
			if v := parsed.Get(key); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}

	msg := strings.TrimSpace(string(body))
	const maxLen = 200
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func stringOrEmpty(v gjson.Result) string {
	if v.Type == gjson.Null {
		return ""
	}
	return v.String()
}
