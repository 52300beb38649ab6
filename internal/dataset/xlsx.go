package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Read extracts rows from the selected worksheet. If opt.Sheet is empty and
// opt.SheetIndex <= 0, the first sheet is used. SheetIndex is 1-based.
func (xlsxReader) Read(path string, opt LoadOptions) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	workbookXML := zipEntry(zr, "xl/workbook.xml")
	relsXML := zipEntry(zr, "xl/_rels/workbook.xml.rels")
	sharedXML := zipEntry(zr, "xl/sharedStrings.xml")
	sheets := sheetCatalog(workbookXML)
	rels := sheetRelationships(relsXML)

	target := ""
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.Sheet) {
				if rel, ok := rels[s.RID]; ok {
					target = sheetPath(rel)
				}
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.Name
			}
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.Sheet, filepath.Base(path), strings.Join(names, ", "))
		}
	}
	if target == "" {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		var rid string
		for _, s := range sheets {
			if s.SheetID == idx {
				rid = s.RID
				break
			}
		}
		if rid != "" {
			if rel, ok := rels[rid]; ok {
				target = sheetPath(rel)
			}
		}
		if target == "" {
			target = filepath.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx))
		}
	}

	shared := sharedStrings(sharedXML)
	rows := newXLSXRowScanner(zipEntry(zr, target), shared)
	header, ok := rows.Next()
	if !ok || len(header) == 0 {
		return New(filepath.Base(path), nil), nil
	}
	t := New(filepath.Base(path), header)
	for {
		rec, ok := rows.Next()
		if !ok {
			break
		}
		t.TotalRows++
		if opt.MaxRows > 0 && len(t.Rows) >= opt.MaxRows {
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

type workbookSheet struct {
	Name    string
	SheetID int
	RID     string
}

func sheetCatalog(data []byte) []workbookSheet {
	var sheets []workbookSheet
	if len(data) == 0 {
		return sheets
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var s workbookSheet
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					s.Name = a.Value
				case "sheetId":
					s.SheetID = digitsPrefix(a.Value)
				case "id":
					s.RID = a.Value // in r: namespace
				}
			}
			sheets = append(sheets, s)
		}
	}
}

func sheetRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var id, tgt string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "Id":
					id = a.Value
				case "Target":
					tgt = a.Value
				}
			}
			if id != "" && tgt != "" {
				out[id] = tgt
			}
		}
	}
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

func sharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write([]byte(se))
			}
		}
	}
}

// xlsxRowScanner walks worksheet XML emitting one []string per row. Cells
// keep their sheet positions; gaps become empty strings.
type xlsxRowScanner struct {
	dec    *xml.Decoder
	shared []string
	inRow  bool
	curRow []string
	maxCol int
}

func newXLSXRowScanner(data []byte, shared []string) *xlsxRowScanner {
	return &xlsxRowScanner{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *xlsxRowScanner) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.curRow = nil
				r.maxCol = 0
			}
			if r.inRow && se.Name.Local == "c" {
				var rAttr, tAttr string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						rAttr = a.Value
					case "t":
						tAttr = a.Value
					}
				}
				col := cellColumn(rAttr)
				if col+1 > r.maxCol {
					r.maxCol = col + 1
				}
				val := r.cellValue(tAttr)
				if len(r.curRow) <= col {
					tmp := make([]string, col+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.curRow) < r.maxCol {
					tmp := make([]string, r.maxCol)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.inRow = false
				return r.curRow, true
			}
		}
	}
}

func (r *xlsxRowScanner) cellValue(tAttr string) string {
	var val string
	// read until end of c; capture <v> or <is><t>
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write([]byte(ch))
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if tAttr == "s" { // shared string
					idx := digitsPrefix(val)
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				return val
			}
		}
	}
}

// cellColumn converts refs like "C12" to a 0-based column index.
func cellColumn(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func digitsPrefix(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// sheetPath converts relationship Target paths to ZIP entry paths. Targets
// may carry a leading slash that ZIP entries do not.
func sheetPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return filepath.Join("xl", rel)
}
