package dataset

// Sample returns the built-in demonstration table used by the smoke command
// and the examples scaffold.
func Sample() *Table {
	t := New("sample_customers", []string{"age", "income", "spend", "city"})
	rows := [][]string{
		{"25", "50000", "45000", "Beijing"},
		{"30", "60000", "55000", "Shanghai"},
		{"35", "75000", "68000", "Guangzhou"},
		{"40", "90000", "82000", "Shenzhen"},
		{"45", "100000", "92000", "Hangzhou"},
	}
	for _, r := range rows {
		t.AppendRow(r)
	}
	t.TotalRows = len(t.Rows)
	t.Detect(DefaultParseOptions())
	return t
}
