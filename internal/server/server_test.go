package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/datascopehq/datascope-cli/internal/appstate"
	"github.com/datascopehq/datascope-cli/internal/config"
)

const sampleCSV = "age,income,spend,city\n" +
	"25,50000,45000,Beijing\n" +
	"30,60000,55000,Shanghai\n" +
	"35,75000,68000,Guangzhou\n" +
	"40,90000,82000,Shenzhen\n" +
	"45,100000,92000,Hangzhou\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	store, err := appstate.Open(filepath.Join(root, "datascope.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cfg := &config.Global{
		ServerHost:        "localhost",
		ServerPort:        8501,
		VizStyle:          "academic",
		AnalysisMaxRows:   10000,
		AnalysisMaxFileMB: 10,
	}
	return New(cfg, store, Options{Version: "0.0.0-test", Root: root})
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodGet, path, nil))
}

func postJSON(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(s, req)
}

func del(s *Server, path string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodDelete, path, nil))
}

// uploadFile posts one multipart dataset and returns the new dataset id.
func uploadFile(t *testing.T, s *Server, name, content string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(s, req)
	return gjson.Get(rec.Body.String(), "dataset.id").String(), rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if got := gjson.Get(rec.Body.String(), "status").String(); got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
}

func TestHealthReportsRunCounter(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.store.IncrementRunCount(); err != nil {
		t.Fatalf("increment: %v", err)
	}
	rec := get(s, "/api/health")
	if got := gjson.Get(rec.Body.String(), "runs").Int(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestVersion(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/api/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("version status = %d", rec.Code)
	}
	body := rec.Body.String()
	if got := gjson.Get(body, "app").String(); got != "DataScope" {
		t.Errorf("app = %q", got)
	}
	if got := gjson.Get(body, "version").String(); got != "0.0.0-test" {
		t.Errorf("version = %q", got)
	}
	if gjson.Get(body, "go").String() == "" {
		t.Error("go version missing")
	}
}

func TestLandingPageCreatesSession(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("landing status = %d", rec.Code)
	}
	sid := rec.Header().Get(sessionHeader)
	if sid == "" {
		t.Fatal("no session id header")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "DataScope") {
		t.Error("landing page missing app name")
	}
	if !strings.Contains(body, sid) {
		t.Error("landing page missing session id")
	}
	if !strings.Contains(body, "no dataset loaded") {
		t.Error("landing page should report the empty dataset state")
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), sessionCookie+"=") {
		t.Errorf("no session cookie, got %q", rec.Header().Get("Set-Cookie"))
	}
	if _, err := s.store.GetSession(sid); err != nil {
		t.Errorf("session %s not persisted: %v", sid, err)
	}
}

func TestLandingPageShowsActiveDataset(t *testing.T) {
	s := newTestServer(t)
	_, up := uploadFile(t, s, "sales.csv", sampleCSV)
	sid := up.Header().Get(sessionHeader)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, sid)
	body := do(s, req).Body.String()
	if !strings.Contains(body, "sales.csv (5 rows, 4 cols)") {
		t.Errorf("landing page missing dataset line: %s", body)
	}
}

func TestSessionReusedFromHeader(t *testing.T) {
	s := newTestServer(t)
	sid := get(s, "/").Header().Get(sessionHeader)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, sid)
	if got := do(s, req).Header().Get(sessionHeader); got != sid {
		t.Errorf("session id = %q, want %q", got, sid)
	}

	sessions, err := s.store.ListSessions()
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestUnknownSessionIDGetsReplaced(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, "stale-id")
	rec := do(s, req)
	if got := rec.Header().Get(sessionHeader); got == "" || got == "stale-id" {
		t.Errorf("session id = %q, want a fresh one", got)
	}
}

func TestUploadDataset(t *testing.T) {
	s := newTestServer(t)
	id, rec := uploadFile(t, s, "sales.csv", sampleCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	if id == "" {
		t.Fatalf("no dataset id in %s", rec.Body.String())
	}
	body := rec.Body.String()
	if got := gjson.Get(body, "dataset.rows").Int(); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
	if !gjson.Get(body, "validation.valid").Bool() {
		t.Errorf("validation not valid: %s", gjson.Get(body, "validation.issues").Raw)
	}
	if kind := gjson.Get(body, "dataset.kinds.age").String(); kind != "numeric" {
		t.Errorf("age kind = %q", kind)
	}
	path := gjson.Get(body, "dataset.path").String()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stored upload missing: %v", err)
	}

	sid := rec.Header().Get(sessionHeader)
	st, err := s.store.GetSession(sid)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	ref, ok := st.Dataset.Get()
	if !ok || ref.ID != id {
		t.Errorf("session dataset ref = %+v ok=%v, want id %s", ref, ok, id)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	s := newTestServer(t)
	_, rec := uploadFile(t, s, "data.parquet", "not a table")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported") {
		t.Errorf("error should name the unsupported format: %s", rec.Body.String())
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/datasets", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetAndListDatasets(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := gjson.Get(rec.Body.String(), "name").String(); got != "sales.csv" {
		t.Errorf("name = %q", got)
	}

	rec = get(s, "/api/datasets")
	if n := gjson.Get(rec.Body.String(), "datasets.#").Int(); n != 1 {
		t.Errorf("datasets = %d, want 1", n)
	}

	if rec := get(s, "/api/datasets/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("missing dataset status = %d, want 404", rec.Code)
	}
}

func TestDeleteDataset(t *testing.T) {
	s := newTestServer(t)
	id, up := uploadFile(t, s, "sales.csv", sampleCSV)
	path := gjson.Get(up.Body.String(), "dataset.path").String()
	sid := up.Header().Get(sessionHeader)

	req := httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil)
	req.Header.Set(sessionHeader, sid)
	if rec := do(s, req); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}

	if rec := get(s, "/api/datasets/"+id); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("upload file should be removed, stat err = %v", err)
	}

	st, err := s.store.GetSession(sid)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if st.Dataset.IsSome() {
		t.Error("session still references the deleted dataset")
	}
}

func TestDeleteDatasetMissing(t *testing.T) {
	s := newTestServer(t)
	if rec := del(s, "/api/datasets/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, up := uploadFile(t, s, "sales.csv", sampleCSV)
	sid := up.Header().Get(sessionHeader)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/stats", nil)
	req.Header.Set(sessionHeader, sid)
	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if got := gjson.Get(body, "rows").Int(); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
	if got := gjson.Get(body, "cols.#").Int(); got != 4 {
		t.Errorf("cols = %d, want 4", got)
	}
	if got := gjson.Get(body, `cols.#(name=="age").stats.mean`).Float(); got != 35 {
		t.Errorf("age mean = %v, want 35", got)
	}

	st, err := s.store.GetSession(sid)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !st.AnalysisDone {
		t.Error("analysis flag not set after stats")
	}
}

func TestStatsMissingDataset(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/api/datasets/ghost/stats")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ghost") {
		t.Errorf("error should name the dataset: %s", rec.Body.String())
	}
}

func TestCorrelationsEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id+"/correlations?method=spearman")
	if rec.Code != http.StatusOK {
		t.Fatalf("correlations status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if got := gjson.Get(body, "matrix.method").String(); got != "spearman" {
		t.Errorf("method = %q", got)
	}
	if n := gjson.Get(body, "matrix.columns.#").Int(); n != 3 {
		t.Errorf("matrix columns = %d, want 3", n)
	}
	if n := gjson.Get(body, "strong_pairs.#").Int(); n == 0 {
		t.Error("expected strong pairs for the sample data")
	}

	if rec := get(s, "/api/datasets/"+id+"/correlations?method=tetrachoric"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown method status = %d, want 400", rec.Code)
	}
}

func TestContrastEndpoint(t *testing.T) {
	s := newTestServer(t)
	grouped := "city,income\nBeijing,50000\nBeijing,54000\nShanghai,70000\nShanghai,74000\n"
	id, _ := uploadFile(t, s, "grouped.csv", grouped)

	rec := get(s, "/api/datasets/"+id+"/contrast?group=city&metric=income")
	if rec.Code != http.StatusOK {
		t.Fatalf("contrast status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if n := gjson.Get(body, "groups.#").Int(); n != 2 {
		t.Fatalf("groups = %d, want 2", n)
	}
	if got := gjson.Get(body, `groups.#(name=="Beijing").mean`).Float(); got != 52000 {
		t.Errorf("Beijing mean = %v, want 52000", got)
	}
	if got := gjson.Get(body, "diffs.0.diff").Float(); got != -20000 {
		t.Errorf("diff = %v, want -20000", got)
	}

	if rec := get(s, "/api/datasets/"+id+"/contrast?group=city"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing metric status = %d, want 400", rec.Code)
	}
	if rec := get(s, "/api/datasets/"+id+"/contrast?group=city&metric=city"); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric metric status = %d, want 400", rec.Code)
	}
}

func TestReliabilityEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id+"/reliability?items=age,income,spend")
	if rec.Code != http.StatusOK {
		t.Fatalf("reliability status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if n := gjson.Get(body, "items.#").Int(); n != 3 {
		t.Errorf("items = %d, want 3", n)
	}
	if got := gjson.Get(body, "std_alpha").Float(); got < 0.9 {
		t.Errorf("std_alpha = %v, want high for near-collinear items", got)
	}
	if gjson.Get(body, "interpretation").String() == "" {
		t.Error("no interpretation")
	}

	if rec := get(s, "/api/datasets/"+id+"/reliability?items=age"); rec.Code != http.StatusBadRequest {
		t.Errorf("single item status = %d, want 400", rec.Code)
	}
}

func TestFactorsEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id+"/factors?items=age,income,spend")
	if rec.Code != http.StatusOK {
		t.Fatalf("factors status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if n := gjson.Get(body, "eigenvalues.#").Int(); n != 3 {
		t.Errorf("eigenvalues = %d, want 3", n)
	}
	if got := gjson.Get(body, "retained").Int(); got < 1 {
		t.Errorf("retained = %d, want at least 1", got)
	}
	if got := gjson.Get(body, "explained_var.0").Float(); got <= 0.5 {
		t.Errorf("first factor explains %v, want the bulk of collinear items", got)
	}

	if rec := get(s, "/api/datasets/"+id+"/factors?items=age"); rec.Code != http.StatusBadRequest {
		t.Errorf("single item status = %d, want 400", rec.Code)
	}
}

func TestValidityEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id+"/validity?items=age,spend&criterion=income")
	if rec.Code != http.StatusOK {
		t.Fatalf("validity status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if got := gjson.Get(body, "criterion").String(); got != "income" {
		t.Errorf("criterion = %q", got)
	}
	if n := gjson.Get(body, "items.#").Int(); n != 2 {
		t.Errorf("items = %d, want 2", n)
	}
	if got := gjson.Get(body, "items.0.level").String(); got != "high" {
		t.Errorf("level = %q, want high for near-collinear items", got)
	}

	if rec := get(s, "/api/datasets/"+id+"/validity?items=age,spend"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing criterion status = %d, want 400", rec.Code)
	}
}

func TestCleanEndpoint(t *testing.T) {
	s := newTestServer(t)
	gappy := "age,income\n25,50000\n30,\n35,75000\n35,75000\n"
	id, _ := uploadFile(t, s, "gappy.csv", gappy)

	rec := postJSON(s, "/api/datasets/"+id+"/clean", `{"missing_strategy":"mean","drop_duplicates":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("clean status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	newID := gjson.Get(body, "dataset.id").String()
	if newID == "" || newID == id {
		t.Fatalf("cleaned dataset id = %q", newID)
	}
	if got := gjson.Get(body, "dataset.name").String(); got != "gappy_cleaned.csv" {
		t.Errorf("cleaned name = %q", got)
	}
	if n := gjson.Get(body, "changes.#").Int(); n != 2 {
		t.Errorf("changes = %d, want 2: %s", n, gjson.Get(body, "changes").Raw)
	}
	if _, err := os.Stat(gjson.Get(body, "dataset.path").String()); err != nil {
		t.Errorf("cleaned csv missing: %v", err)
	}

	rec = get(s, "/api/datasets/"+newID+"/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats on cleaned status = %d", rec.Code)
	}
	if got := gjson.Get(rec.Body.String(), "rows").Int(); got != 3 {
		t.Errorf("cleaned rows = %d, want 3 after dedupe", got)
	}
}

func TestCleanDefaultsWhenBodyEmpty(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := postJSON(s, "/api/datasets/"+id+"/clean", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("clean status = %d: %s", rec.Code, rec.Body.String())
	}
	ops := gjson.Get(rec.Body.String(), "changes.#.op").Raw
	for _, want := range []string{"dedupe", "missing"} {
		if !strings.Contains(ops, want) {
			t.Errorf("default clean ops %s missing %q", ops, want)
		}
	}
}

func TestCleanRejectsUnknownStrategy(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)
	rec := postJSON(s, "/api/datasets/"+id+"/clean", `{"missing_strategy":"knn"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestModelsEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id+"/models?target=income")
	if rec.Code != http.StatusOK {
		t.Fatalf("models status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if got := gjson.Get(body, "task").String(); got != "regression" {
		t.Errorf("task = %q, want regression for a numeric target", got)
	}
	if n := gjson.Get(body, "candidates.#").Int(); n == 0 {
		t.Error("no candidates")
	}

	if rec := get(s, "/api/datasets/"+id+"/models?task=divination"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown task status = %d, want 400", rec.Code)
	}
}

func TestChartsEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/datasets/"+id+"/charts")
	if rec.Code != http.StatusOK {
		t.Fatalf("charts status = %d", rec.Code)
	}
	types := gjson.Get(rec.Body.String(), "charts.#.type").Raw
	if !strings.Contains(types, "scatter") {
		t.Errorf("chart types %s missing scatter", types)
	}
}

func TestFigureEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := postJSON(s, "/api/datasets/"+id+"/figures", `{"type":"scatter","x":"age","y":"income"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("figure status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	path := gjson.Get(body, "path").String()
	if !strings.HasSuffix(path, ".svg") {
		t.Errorf("figure path = %q, want .svg", path)
	}
	svg, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read figure: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("figure file is not an SVG document")
	}
	if got := gjson.Get(body, "spec.type").String(); got != "scatter" {
		t.Errorf("spec type = %q", got)
	}

	if rec := postJSON(s, "/api/datasets/"+id+"/figures", `{"x":"age"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing type status = %d, want 400", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := postJSON(s, "/api/datasets/"+id+"/report", `{"group_by":["city"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	md := gjson.Get(body, "markdown").String()
	for _, want := range []string{"[DATASET SUMMARY]", "[SCHEMA]", "[GROUP-BY SUMMARY]", "[CORRELATIONS]"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %s", want)
		}
	}
	path := gjson.Get(body, "path").String()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report file missing: %v", err)
	}

	results, err := s.store.ListResults()
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 || results[0].Kind != "report" {
		t.Errorf("results = %+v, want one report record", results)
	}
}

func TestResultHistoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)
	rec := postJSON(s, "/api/datasets/"+id+"/report", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d: %s", rec.Code, rec.Body.String())
	}
	resultID := gjson.Get(rec.Body.String(), "result_id").String()
	if resultID == "" {
		t.Fatal("report response carries no result id")
	}

	rec = get(s, "/api/results")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := rec.Body.String()
	if n := gjson.Get(body, "results.#").Int(); n != 1 {
		t.Fatalf("results.# = %d, want 1: %s", n, body)
	}
	if gjson.Get(body, "results.0.payload").Exists() {
		t.Error("listing should omit payloads")
	}
	if got := gjson.Get(body, "results.0.kind").String(); got != "report" {
		t.Errorf("kind = %q, want report", got)
	}

	rec = get(s, "/api/results/"+resultID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(gjson.Get(rec.Body.String(), "content").String(), "[DATASET SUMMARY]") {
		t.Error("result content should carry the report markdown")
	}

	if rec = del(s, "/api/results/"+resultID); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec = get(s, "/api/results/"+resultID); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestSessionAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	first := get(s, "/")
	sid := first.Header().Get(sessionHeader)
	if sid == "" {
		t.Fatal("no session id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set(sessionHeader, sid)
	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := rec.Body.String()
	if n := gjson.Get(body, "sessions.#").Int(); n != 1 {
		t.Fatalf("sessions.# = %d, want 1: %s", n, body)
	}
	if got := gjson.Get(body, "sessions.0.session_id").String(); got != sid {
		t.Errorf("session id = %q, want %q", got, sid)
	}

	dreq := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sid, nil)
	dreq.Header.Set(sessionHeader, sid)
	if rec := do(s, dreq); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := s.store.GetSession(sid); !errors.Is(err, appstate.ErrNotFound) {
		t.Errorf("session should be gone, err = %v", err)
	}
}

func TestDeleteSessionMissing(t *testing.T) {
	s := newTestServer(t)
	if rec := del(s, "/api/sessions/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEnhanceRejectsUnknownType(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/api/enhance", `{"type":"divination"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "comprehensive") {
		t.Errorf("error should list supported types: %s", rec.Body.String())
	}
}

func TestEnhanceNeedsDataset(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/api/enhance", `{"type":"insights"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no dataset") {
		t.Errorf("unexpected error: %s", rec.Body.String())
	}
}

func TestEnhanceWithoutKeyReports502(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Provider = "openai"
	t.Setenv("OPENAI_API_KEY", "")
	id, _ := uploadFile(t, s, "sales.csv", sampleCSV)

	rec := postJSON(s, "/api/enhance", `{"dataset_id":"`+id+`"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "OPENAI_API_KEY") {
		t.Errorf("error should name the missing key: %s", rec.Body.String())
	}
}

func TestOpenBrowserUsesOpener(t *testing.T) {
	var gotName string
	var gotArgs []string
	orig := runOpen
	runOpen = func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}
	t.Cleanup(func() { runOpen = orig })

	OpenBrowser(context.Background(), "http://localhost:8501")
	if gotName == "" {
		t.Fatal("no opener invoked")
	}
	if len(gotArgs) == 0 || !strings.Contains(strings.Join(gotArgs, " "), "http://localhost:8501") {
		t.Errorf("opener args = %v, want the url", gotArgs)
	}
}
