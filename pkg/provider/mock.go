package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type filter struct {
	key, op, value string
}

// MockHandler serves provider fixtures from fsys: a request for
// /<anything>/<resource>?k=v reads <resource>.json, a JSON array, and keeps the
// entries whose fields match every k=v pair and date>=/date<= bound.
func MockHandler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := path.Base(r.URL.Path)
		b, err := fs.ReadFile(fsys, resource+".json")
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"Not Found"}`)
			return
		}

		var entries []map[string]any
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&entries); err != nil {
			logrus.WithError(err).WithField("resource", resource).Error("invalid fixture")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		filters := parseFilters(r.URL.RawQuery)
		matched := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			if matches(e, filters) {
				matched = append(matched, e)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(matched)
	})
}

func parseFilters(rawQuery string) []filter {
	filters := []filter{}
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		for _, op := range []string{">=", "<=", ">", "<", "="} {
			if i := strings.Index(part, op); i > 0 {
				value, err := url.QueryUnescape(part[i+len(op):])
				if err != nil {
					value = part[i+len(op):]
				}
				key, _ := url.QueryUnescape(part[:i])
				filters = append(filters, filter{key: key, op: op, value: value})
				break
			}
		}
	}
	return filters
}

func matches(entry map[string]any, filters []filter) bool {
	for _, f := range filters {
		v, ok := entry[f.key]
		if !ok {
			return false
		}
		if f.op == "=" {
			if fmt.Sprint(v) != f.value {
				return false
			}
			continue
		}
		got, err1 := parseTime(fmt.Sprint(v))
		want, err2 := parseTime(f.value)
		if err1 != nil || err2 != nil {
			return false
		}
		switch f.op {
		case ">=":
			if got.Before(want) {
				return false
			}
		case "<=":
			if got.After(want) {
				return false
			}
		case ">":
			if !got.After(want) {
				return false
			}
		case "<":
			if !got.Before(want) {
				return false
			}
		}
	}
	return true
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}
