package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func (csvReader) Read(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim, err = sniffDelimiter(path)
		if err != nil {
			return nil, err
		}
	}
	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(filepath.Base(path), nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := New(filepath.Base(path), header)
	maxRows := opt.MaxRows
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.TotalRows+1, err)
		}
		t.TotalRows++
		if maxRows > 0 && len(t.Rows) >= maxRows {
			t.Truncated = true
			continue
		}
		t.AppendRow(rec)
	}
	if !t.Truncated {
		t.TotalRows = len(t.Rows)
	}
	return t, nil
}

// sniffDelimiter inspects the first non-empty line and picks the candidate
// separator with the highest count. .tsv files short-circuit to tab.
func sniffDelimiter(path string) (rune, error) {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t', nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open for sniff: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := ""
	for sc.Scan() {
		line = strings.TrimSpace(sc.Text())
		if line != "" {
			break
		}
	}
	best := ','
	bestCnt := 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(cand)); n > bestCnt {
			best = cand
			bestCnt = n
		}
	}
	return best, nil
}
