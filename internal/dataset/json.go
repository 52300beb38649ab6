package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

type jsonReader struct{}

func (jsonReader) CanRead(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Read loads a JSON array of flat objects. Column order follows first
// appearance across records; nested values are kept as raw JSON text.
func (jsonReader) Read(path string, opt LoadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	root := gjson.ParseBytes(data)
	// Tolerate a wrapper object holding the records under "data" or "rows".
	if root.IsObject() {
		for _, key := range []string{"data", "rows", "records"} {
			if arr := root.Get(key); arr.IsArray() {
				root = arr
				break
			}
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("json dataset %s: expected an array of objects", filepath.Base(path))
	}

	var headers []string
	seen := map[string]int{}
	rows := make([]map[string]string, 0)
	var badRecord error
	root.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			badRecord = fmt.Errorf("json dataset %s: array element is not an object", filepath.Base(path))
			return false
		}
		row := make(map[string]string)
		rec.ForEach(func(k, v gjson.Result) bool {
			name := k.String()
			if _, ok := seen[name]; !ok {
				seen[name] = len(headers)
				headers = append(headers, name)
			}
			if v.Type == gjson.Null {
				row[name] = ""
			} else {
				row[name] = v.String()
			}
			return true
		})
		rows = append(rows, row)
		return true
	})
	if badRecord != nil {
		return nil, badRecord
	}

	t := New(filepath.Base(path), headers)
	t.TotalRows = len(rows)
	for _, row := range rows {
		if opt.MaxRows > 0 && len(t.Rows) >= opt.MaxRows {
			t.Truncated = true
			break
		}
		rec := make([]string, len(headers))
		for name, idx := range seen {
			rec[idx] = row[name]
		}
		t.AppendRow(rec)
	}
	return t, nil
}
