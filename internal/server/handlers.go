package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/datascopehq/datascope-cli/internal/ai"
	"github.com/datascopehq/datascope-cli/internal/analysis"
	"github.com/datascopehq/datascope-cli/internal/appstate"
	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/datascopehq/datascope-cli/internal/modelsel"
	"github.com/datascopehq/datascope-cli/internal/utils"
	"github.com/datascopehq/datascope-cli/internal/viz"
)

func (s *Server) handleLanding(c echo.Context) error {
	return c.HTML(http.StatusOK, renderLanding(s.opts.Version, session(c)))
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if n, err := s.store.RunCount(); err == nil && n > 0 {
		resp["runs"] = n
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"app":     appName,
		"version": s.opts.Version,
		"go":      runtime.Version(),
	})
}

type uploadResponse struct {
	Dataset    *appstate.DatasetRecord `json:"dataset"`
	Validation *dataset.Validation     `json:"validation"`
}

// handleUpload receives a multipart dataset file, stores it under the
// uploads dir and loads + validates it. The session's active dataset moves
// to the upload.
func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, `multipart field "file" is required`)
	}
	if max := s.loadOptions().MaxBytes; max > 0 && fh.Size > max {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("%s is %d bytes, over the %d byte limit", fh.Filename, fh.Size, max))
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	id := uuid.NewString()
	path := filepath.Join(s.uploadsDir, id+strings.ToLower(filepath.Ext(fh.Filename)))
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return fmt.Errorf("store upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}

	t, err := dataset.Load(path, s.loadOptions())
	if err != nil {
		_ = os.Remove(path)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v := dataset.Validate(t)

	rec := &appstate.DatasetRecord{
		ID:         id,
		Name:       fh.Filename,
		Path:       path,
		Rows:       t.NumRows(),
		Cols:       t.NumCols(),
		Kinds:      kindsOf(t),
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.PutDataset(rec); err != nil {
		return fmt.Errorf("persist dataset: %w", err)
	}
	s.cacheTable(id, t)

	st := session(c)
	if st.Dataset.IsSome() {
		log.Debug().Str("session", st.SessionID).Msg("replacing the session's active dataset")
	}
	st.SetDataset(appstate.DatasetRef{ID: id, Name: fh.Filename, Path: path, Rows: rec.Rows, Cols: rec.Cols}, v)
	s.saveSession(st)

	log.Info().Str("dataset", id).Str("name", fh.Filename).Int("rows", rec.Rows).Msg("dataset uploaded")
	return c.JSON(http.StatusCreated, uploadResponse{Dataset: rec, Validation: v})
}

func (s *Server) handleListDatasets(c echo.Context) error {
	recs, err := s.store.ListDatasets()
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UploadedAt.After(recs[j].UploadedAt) })
	return c.JSON(http.StatusOK, map[string]any{"datasets": recs})
}

func (s *Server) handleGetDataset(c echo.Context) error {
	rec, err := s.store.GetDataset(c.Param("id"))
	if errors.Is(err, appstate.ErrNotFound) {
		return datasetNotFound(c.Param("id"))
	}
	if err != nil {
		return fmt.Errorf("get dataset: %w", err)
	}
	return c.JSON(http.StatusOK, rec)
}

// handleDeleteDataset removes the record, the cached table and the stored
// upload file. A session pointing at the dataset loses its reference.
func (s *Server) handleDeleteDataset(c echo.Context) error {
	id := c.Param("id")
	rec, err := s.store.GetDataset(id)
	if errors.Is(err, appstate.ErrNotFound) {
		return datasetNotFound(id)
	}
	if err != nil {
		return fmt.Errorf("get dataset: %w", err)
	}
	if err := s.store.DeleteDataset(id); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	s.dropTable(id)
	if rec.Path != "" {
		if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", rec.Path).Msg("remove upload file failed")
		}
	}

	st := session(c)
	if ref, ok := st.Dataset.Get(); ok && ref.ID == id {
		st.ClearDataset()
		s.saveSession(st)
	}
	log.Info().Str("dataset", id).Msg("dataset deleted")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStats(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	rep := analysis.Analyze(t, analysis.DefaultOptions())
	st := session(c)
	st.MarkAnalyzed()
	s.saveSession(st)
	return c.JSON(http.StatusOK, rep)
}

type correlationsResponse struct {
	Matrix *analysis.CorrMatrix `json:"matrix"`
	Strong []analysis.PairCorr  `json:"strong_pairs,omitempty"`
}

func (s *Server) handleCorrelations(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	method := c.QueryParam("method")
	if method == "" {
		method = analysis.CorrPearson
	}
	m, err := analysis.Matrix(t, method)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, correlationsResponse{Matrix: m, Strong: m.StrongPairs(0.6)})
}

func (s *Server) handleContrast(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	group := c.QueryParam("group")
	metric := c.QueryParam("metric")
	if group == "" || metric == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "group and metric query parameters are required")
	}
	res, err := analysis.Contrast(t, group, metric)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleReliability(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	res, err := analysis.CronbachAlpha(t, itemsParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleFactors(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	items := itemsParam(c)
	res, err := analysis.FactorAnalysis(t, items)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleValidity(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	criterion := c.QueryParam("criterion")
	if criterion == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "criterion query parameter is required")
	}
	res, err := analysis.CriterionValidity(t, itemsParam(c), criterion)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// itemsParam reads the comma-separated items query parameter.
func itemsParam(c echo.Context) []string {
	var items []string
	for _, it := range strings.Split(c.QueryParam("items"), ",") {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return items
}

type cleanRequest struct {
	DropDuplicates   bool     `json:"drop_duplicates,omitempty"`
	OutlierStrategy  string   `json:"outlier_strategy,omitempty"`
	OutlierThreshold float64  `json:"outlier_threshold,omitempty"`
	MissingStrategy  string   `json:"missing_strategy,omitempty"`
	FillValue        string   `json:"fill_value,omitempty"`
	Encode           string   `json:"encode,omitempty"`
	EncodeColumns    []string `json:"encode_columns,omitempty"`
	Scale            string   `json:"scale,omitempty"`
	ScaleColumns     []string `json:"scale_columns,omitempty"`
	Interactions     []string `json:"interactions,omitempty"`
	SelectTarget     string   `json:"select_target,omitempty"`
	SelectTopK       int      `json:"select_top_k,omitempty"`
}

func (r cleanRequest) empty() bool {
	return !r.DropDuplicates && r.OutlierStrategy == "" && r.MissingStrategy == "" &&
		r.Encode == "" && r.Scale == "" && len(r.Interactions) == 0 && r.SelectTopK == 0
}

type cleanResponse struct {
	Dataset *appstate.DatasetRecord `json:"dataset"`
	Changes []analysis.Change       `json:"changes"`
}

// handleClean runs the cleaning pipeline on a copy and registers the result
// as a new dataset. An empty request runs the default round: duplicate
// removal plus mean imputation.
func (s *Server) handleClean(c echo.Context) error {
	t, rec, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	var req cleanRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.empty() {
		req.DropDuplicates = true
		req.MissingStrategy = analysis.MissingMean
	}

	cleaned, changes, err := analysis.Clean(t, analysis.CleanOptions{
		DropDuplicates:   req.DropDuplicates,
		OutlierStrategy:  req.OutlierStrategy,
		OutlierThreshold: req.OutlierThreshold,
		MissingStrategy:  req.MissingStrategy,
		FillValue:        req.FillValue,
		Encode:           req.Encode,
		EncodeColumns:    req.EncodeColumns,
		Scale:            req.Scale,
		ScaleColumns:     req.ScaleColumns,
		Interactions:     req.Interactions,
		SelectTarget:     req.SelectTarget,
		SelectTopK:       req.SelectTopK,
		Parse:            dataset.DefaultParseOptions(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	id := uuid.NewString()
	path := filepath.Join(s.uploadsDir, id+".csv")
	if err := dataset.WriteCSV(cleaned, path); err != nil {
		return fmt.Errorf("write cleaned dataset: %w", err)
	}

	newRec := &appstate.DatasetRecord{
		ID:         id,
		Name:       cleanedName(rec.Name),
		Path:       path,
		Rows:       cleaned.NumRows(),
		Cols:       cleaned.NumCols(),
		Kinds:      kindsOf(cleaned),
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.PutDataset(newRec); err != nil {
		return fmt.Errorf("persist cleaned dataset: %w", err)
	}
	s.cacheTable(id, cleaned)

	st := session(c)
	st.MarkCleaned()
	s.saveSession(st)

	return c.JSON(http.StatusCreated, cleanResponse{Dataset: newRec, Changes: changes})
}

type modelsResponse struct {
	Task       string            `json:"task"`
	Profile    modelsel.Profile  `json:"profile"`
	Candidates []modelsel.Scored `json:"candidates"`
}

func (s *Server) handleModels(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	p := modelsel.BuildProfile(t, c.QueryParam("target"))
	task := c.QueryParam("task")
	if task == "" {
		task = modelsel.SuggestTask(p)
	}
	scored, err := modelsel.Recommend(p, task, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, modelsResponse{Task: task, Profile: p, Candidates: scored})
}

func (s *Server) handleCharts(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"charts": viz.Recommend(t)})
}

type figureRequest struct {
	Type  string `json:"type"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Hue   string `json:"hue,omitempty"`
	Style string `json:"style,omitempty"`
}

type figureResponse struct {
	Path string         `json:"path"`
	Spec *viz.ChartSpec `json:"spec"`
}

func (s *Server) handleFigure(c echo.Context) error {
	t, _, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	var req figureRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chart type is required")
	}
	style := req.Style
	if style == "" {
		style = s.cfg.VizStyle
	}
	spec, err := viz.BuildSpec(t, req.Type, req.X, req.Y, req.Hue, viz.StylePreset(style))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	path, err := viz.SaveFigure(s.figuresDir, spec)
	if err != nil {
		return fmt.Errorf("save figure: %w", err)
	}
	return c.JSON(http.StatusCreated, figureResponse{Path: path, Spec: spec})
}

type reportRequest struct {
	GroupBy          []string `json:"group_by,omitempty"`
	CorrMethod       string   `json:"corr_method,omitempty"`
	ReliabilityItems []string `json:"reliability_items,omitempty"`
	SampleRows       int      `json:"sample_rows,omitempty"`
}

type reportResponse struct {
	ResultID string `json:"result_id"`
	Path     string `json:"path"`
	Markdown string `json:"markdown"`
}

// handleReport renders the full markdown report, writes it under the
// reports dir and keeps a result record for later listing.
func (s *Server) handleReport(c echo.Context) error {
	t, rec, err := s.datasetOr404(c)
	if err != nil {
		return err
	}
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	opt := analysis.DefaultOptions()
	if len(req.GroupBy) > 0 {
		opt.GroupBy = req.GroupBy
		opt.CorrPerGroup = true
	}
	if req.CorrMethod != "" {
		opt.CorrMethod = req.CorrMethod
	}
	if len(req.ReliabilityItems) > 0 {
		opt.ReliabilityItems = req.ReliabilityItems
	}
	if req.SampleRows > 0 {
		opt.SampleRows = req.SampleRows
	}

	rep := analysis.Analyze(t, opt)
	md := rep.Markdown()

	name := fmt.Sprintf("%s_%s.md", baseName(rec.Name), time.Now().Format("20060102_150405"))
	path := filepath.Join(s.reportsDir, name)
	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, []byte(md)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	result := &appstate.ResultRecord{
		ID:        uuid.NewString(),
		Name:      rec.Name,
		Kind:      "report",
		DatasetID: rec.ID,
		CreatedAt: time.Now().UTC(),
		Payload:   []byte(md),
	}
	if err := s.store.PutResult(result); err != nil {
		log.Warn().Err(err).Msg("persist report result failed")
	}

	st := session(c)
	st.MarkAnalyzed()
	s.saveSession(st)

	return c.JSON(http.StatusOK, reportResponse{ResultID: result.ID, Path: path, Markdown: md})
}

type enhanceRequest struct {
	DatasetID string `json:"dataset_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Context   string `json:"context,omitempty"`
}

type enhanceResponse struct {
	ResultID    string          `json:"result_id"`
	Enhancement *ai.Enhancement `json:"enhancement"`
}

// handleEnhance runs one AI enhancement round trip over the dataset's
// analysis. The dataset comes from the body or falls back to the session's
// active one. Provider failures come back as 502 with the cause.
func (s *Server) handleEnhance(c echo.Context) error {
	var req enhanceRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	kind := req.Type
	if kind == "" {
		kind = ai.EnhanceComprehensive
	}
	if !lo.Contains(ai.EnhancementTypes(), kind) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unknown enhancement type %q (supported: %s)", kind, strings.Join(ai.EnhancementTypes(), ", ")))
	}

	st := session(c)
	id := req.DatasetID
	if id == "" {
		id = st.Dataset.GetOr(appstate.DatasetRef{}).ID
	}
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no dataset: upload one or pass dataset_id")
	}
	t, rec, err := s.table(id)
	if errors.Is(err, appstate.ErrNotFound) {
		return datasetNotFound(id)
	}
	if err != nil {
		return err
	}

	rep := analysis.Analyze(t, analysis.DefaultOptions())
	enh, err := s.newEnhancer(req.Provider, req.Model)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	res, err := enh.Enhance(c.Request().Context(), kind, ai.DataSummary(t), ai.ResultsSummary(reportDoc(rep)), req.Context)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	st.MarkEnhanced(kind)
	s.saveSession(st)

	result := &appstate.ResultRecord{
		ID:        uuid.NewString(),
		Name:      rec.Name,
		Kind:      "ai_" + kind,
		DatasetID: id,
		CreatedAt: time.Now().UTC(),
		Payload:   []byte(res.Content),
	}
	if err := s.store.PutResult(result); err != nil {
		log.Warn().Err(err).Msg("persist enhancement result failed")
	}

	return c.JSON(http.StatusOK, enhanceResponse{ResultID: result.ID, Enhancement: res})
}

// newEnhancer wires an Enhancer from config with per-request overrides. The
// API key comes from config or the provider's environment variable.
func (s *Server) newEnhancer(provider, model string) (*ai.Enhancer, error) {
	if provider == "" {
		provider = s.cfg.Provider
	}
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	if model == "" {
		model = s.cfg.Model
	}
	opts := ai.EnhancerOptions{
		Provider:    provider,
		Model:       model,
		APIKey:      s.cfg.APIKey,
		BaseURL:     s.cfg.APIBase,
		OllamaHost:  s.cfg.OllamaHost,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		HTTPTimeout: time.Duration(s.cfg.HTTPTimeoutSec) * time.Second,
		RetryMax:    s.cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(s.cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(s.cfg.RetryMaxDelayMs) * time.Millisecond,
	}
	if opts.APIKey == "" {
		if key, ok := ai.EnvKeyFor(opts.Provider); ok {
			opts.APIKey = os.Getenv(key)
			if opts.APIKey == "" {
				return nil, fmt.Errorf("%s is not set", key)
			}
		}
	}
	return ai.NewEnhancer(opts)
}

// handleListResults returns saved result records newest first, without the
// payloads.
func (s *Server) handleListResults(c echo.Context) error {
	recs, err := s.store.ListResults()
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	for _, rec := range recs {
		rec.Payload = nil
	}
	return c.JSON(http.StatusOK, map[string]any{"results": recs})
}

type resultResponse struct {
	Result  *appstate.ResultRecord `json:"result"`
	Content string                 `json:"content,omitempty"`
}

func (s *Server) handleGetResult(c echo.Context) error {
	rec, err := s.store.GetResult(c.Param("id"))
	if errors.Is(err, appstate.ErrNotFound) {
		return resultNotFound(c.Param("id"))
	}
	if err != nil {
		return fmt.Errorf("get result: %w", err)
	}
	content := string(rec.Payload)
	rec.Payload = nil
	return c.JSON(http.StatusOK, resultResponse{Result: rec, Content: content})
}

func (s *Server) handleDeleteResult(c echo.Context) error {
	id := c.Param("id")
	err := s.store.DeleteResult(id)
	if errors.Is(err, appstate.ErrNotFound) {
		return resultNotFound(id)
	}
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleListSessions returns every persisted session, most recently touched
// first.
func (s *Server) handleListSessions(c echo.Context) error {
	sts, err := s.store.ListSessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	sort.Slice(sts, func(i, j int) bool { return sts[i].UpdatedAt.After(sts[j].UpdatedAt) })
	return c.JSON(http.StatusOK, map[string]any{"sessions": sts})
}

// handleDeleteSession drops a persisted session. Deleting your own session
// works; the next request starts a fresh one.
func (s *Server) handleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	err := s.store.DeleteSession(id)
	if errors.Is(err, appstate.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("session %s not found", id))
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// datasetOr404 resolves the :id path param to a loaded table.
func (s *Server) datasetOr404(c echo.Context) (*dataset.Table, *appstate.DatasetRecord, error) {
	id := c.Param("id")
	t, rec, err := s.table(id)
	if errors.Is(err, appstate.ErrNotFound) {
		return nil, nil, datasetNotFound(id)
	}
	if err != nil {
		return nil, nil, err
	}
	return t, rec, nil
}

func datasetNotFound(id string) error {
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dataset %s not found", id))
}

func resultNotFound(id string) error {
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("result %s not found", id))
}

func kindsOf(t *dataset.Table) map[string]string {
	kinds := make(map[string]string, t.NumCols())
	for _, c := range t.Columns {
		kinds[c.Name] = c.Kind
	}
	return kinds
}

// cleanedName derives the cleaned dataset's display name: sales.csv turns
// into sales_cleaned.csv.
func cleanedName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_cleaned.csv"
}

func baseName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// reportDoc converts a report to the generic map shape the results
// summarizer reads.
func reportDoc(rep *analysis.Report) map[string]any {
	doc := map[string]any{}
	b, err := sonic.Marshal(rep)
	if err != nil {
		return doc
	}
	_ = sonic.Unmarshal(b, &doc)
	return doc
}
