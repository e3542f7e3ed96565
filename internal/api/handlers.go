package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/analysis"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/export"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/portal"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/query"
)

const defaultPageSize = 100

type Handler struct {
	portal *portal.Portal
	logger *slog.Logger
}

func NewHandler(p *portal.Portal, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{portal: p, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", h.requireLoaded)
	api.GET("/info", h.GetInfo)
	api.GET("/records", h.GetRecords)
	api.GET("/unique/:field", h.GetUnique)
	api.GET("/regional", h.GetRegional)
	api.GET("/summary", h.GetSummary)
	api.GET("/correlation", h.GetCorrelation)
	api.GET("/countries/:country/series", h.GetSeries)
	api.GET("/export", h.GetExport)
	api.POST("/insights", h.PostInsights)
	api.POST("/ask", h.PostAsk)
}

// requireLoaded answers 503 until the dataset load has finished.
func (h *Handler) requireLoaded(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.portal.Loaded() {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
		}
		return next(c)
	}
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// filterParams reads repeatable country, year, region, income and regime
// parameters plus q for the search term. Values are never split on commas
// because country names contain them.
func filterParams(c echo.Context) (query.Options, error) {
	qp := c.QueryParams()
	opts := query.Options{
		Countries:    qp["country"],
		Regions:      qp["region"],
		IncomeGroups: qp["income"],
		RegimeTypes:  qp["regime"],
		SearchTerm:   qp.Get("q"),
	}
	for _, y := range qp["year"] {
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid year %q", y))
		}
		opts.Years = append(opts.Years, n)
	}
	return opts, nil
}

// fieldParam resolves a metric name, defaulting to carbon emissions.
func fieldParam(c echo.Context, name string) string {
	if f := strings.TrimSpace(c.QueryParam(name)); f != "" {
		return f
	}
	return dataset.FieldCarbon
}

func (h *Handler) GetInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, h.portal.DatasetInfo())
}

func (h *Handler) GetRecords(c echo.Context) error {
	opts, err := filterParams(c)
	if err != nil {
		return err
	}
	recs := h.portal.Filter(opts)
	if latest, _ := strconv.ParseBool(c.QueryParam("latest")); latest {
		recs = query.Latest(recs)
	}
	total := len(recs)
	limit, offset := getPaginationParams(c, defaultPageSize)
	start := min(offset, total)
	end := start + min(limit, total-start)
	return c.JSON(http.StatusOK, map[string]any{
		"data":   recs[start:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetUnique(c echo.Context) error {
	field := c.Param("field")
	if u, err := url.PathUnescape(field); err == nil {
		field = u
	}
	return c.JSON(http.StatusOK, h.portal.UniqueValues(field))
}

func (h *Handler) GetRegional(c echo.Context) error {
	year := 0
	if y := c.QueryParam("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid year %q", y))
		}
		year = n
	}
	return c.JSON(http.StatusOK, h.portal.RegionalAverage(fieldParam(c, "field"), year))
}

func (h *Handler) GetSummary(c echo.Context) error {
	opts, err := filterParams(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analysis.Summarize(h.portal.Filter(opts), fieldParam(c, "field")))
}

func (h *Handler) GetCorrelation(c echo.Context) error {
	a, b := c.QueryParam("a"), c.QueryParam("b")
	if a == "" || b == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "parameters a and b are required")
	}
	opts, err := filterParams(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"a": a,
		"b": b,
		"r": analysis.Correlation(h.portal.Filter(opts), a, b),
	})
}

func (h *Handler) GetSeries(c echo.Context) error {
	country := c.Param("country")
	if u, err := url.PathUnescape(country); err == nil {
		country = u
	}
	field := fieldParam(c, "field")
	return c.JSON(http.StatusOK, map[string]any{
		"country": country,
		"field":   field,
		"points":  h.portal.CountryTimeSeries(country, field),
	})
}

func (h *Handler) GetExport(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	opts, err := filterParams(c)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, format.ContentType())
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "filtered_sustainability_data."+string(format)))
	res.WriteHeader(http.StatusOK)
	n, err := h.portal.Export(res, opts, format)
	if err != nil {
		h.logger.Error("export failed", "format", format, "err", err)
		return nil
	}
	h.logger.Debug("export served", "format", format, "records", n)
	return nil
}

type insightsRequest struct {
	Filters query.Options `json:"filters"`
}

type askRequest struct {
	Question string        `json:"question"`
	Filters  query.Options `json:"filters"`
}

func (h *Handler) PostInsights(c echo.Context) error {
	var req insightsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	out, err := h.portal.Insights(c.Request().Context(), req.Filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusRequestTimeout, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) PostAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	answer, err := h.portal.Ask(c.Request().Context(), req.Question, req.Filters, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusRequestTimeout, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}
