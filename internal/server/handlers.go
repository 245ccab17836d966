package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/apperrors"
	focusmw "github.com/runnerr0/focuslog/internal/server/middleware"
	"github.com/runnerr0/focuslog/internal/tracking"
)

const defaultMaxRequestSize = 1 << 20

type handler struct {
	recorder       Recorder
	analytics      Analytics
	reports        Reports
	maxRequestSize int64
	now            func() time.Time
}

type daySummaryResponse struct {
	analytics.DailySummary
	Sites []tracking.SiteVisitRecord `json:"sites"`
}

type siteActivityResponse struct {
	StartDate string                   `json:"startDate"`
	EndDate   string                   `json:"endDate"`
	TotalTime int64                    `json:"totalTime"`
	Sites     []analytics.SiteStat     `json:"sites"`
	Days      []analytics.DailySummary `json:"days"`
}

type reportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	limit := h.maxRequestSize
	if limit <= 0 {
		limit = defaultMaxRequestSize
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v)
}

func (h *handler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var ev tracking.VisitEvent
	if err := h.decode(w, r, &ev); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", apperrors.ErrInvalidEvent, err), "failed to decode visit")
		return
	}

	rec, err := h.recorder.Record(ctx, focusmw.UserID(ctx), ev)
	if err != nil {
		writeError(w, r, err, "failed to record visit")
		return
	}
	writeJSON(w, r, http.StatusCreated, rec)
}

func (h *handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := tracking.DayOf(h.now(), h.analytics.Location())
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := tracking.ParseDate(raw)
		if err != nil {
			writeError(w, r, err, "invalid date")
			return
		}
		day = d
	}

	ds, err := h.analytics.Load(ctx, focusmw.UserID(ctx), tracking.DateRange{Start: day, End: day})
	if err != nil {
		writeError(w, r, err, "failed to load daily summary")
		return
	}

	records := tracking.DayRecords{Date: day, Sites: []tracking.SiteVisitRecord{}}
	if len(ds.Days) > 0 {
		records.Sites = ds.Days[0].Sites
	}
	writeJSON(w, r, http.StatusOK, daySummaryResponse{
		DailySummary: analytics.SummarizeDay(records),
		Sites:        records.Sites,
	})
}

// SiteActivity returns per-domain totals and per-day summaries for a range.
func (h *handler) SiteActivity(w http.ResponseWriter, r *http.Request) {
	h.withDataset(w, r, func(ds *analytics.Dataset) any {
		resp := siteActivityResponse{
			StartDate: tracking.FormatDate(ds.Range.Start),
			EndDate:   tracking.FormatDate(ds.Range.End),
			TotalTime: ds.TotalTime(),
			Sites:     ds.SiteStats(),
			Days:      make([]analytics.DailySummary, 0, len(ds.Days)),
		}
		if resp.Sites == nil {
			resp.Sites = []analytics.SiteStat{}
		}
		for _, d := range ds.Days {
			resp.Days = append(resp.Days, analytics.DailySummary{Date: tracking.FormatDate(d.Date), Totals: d.Summary})
		}
		return resp
	})
}

func queryRange(r *http.Request) (tracking.DateRange, error) {
	q := r.URL.Query()
	return tracking.ParseDateRange(q.Get("startDate"), q.Get("endDate"))
}

// withDataset parses the query range, loads it and hands the dataset to view.
func (h *handler) withDataset(w http.ResponseWriter, r *http.Request, view func(*analytics.Dataset) any) {
	ctx := r.Context()

	rng, err := queryRange(r)
	if err != nil {
		writeError(w, r, err, "invalid date range")
		return
	}
	ds, err := h.analytics.Load(ctx, focusmw.UserID(ctx), rng)
	if err != nil {
		writeError(w, r, err, "failed to fetch analytics")
		return
	}
	writeJSON(w, r, http.StatusOK, view(ds))
}

func (h *handler) Comprehensive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rng, err := queryRange(r)
	if err != nil {
		writeError(w, r, err, "invalid date range")
		return
	}
	out, err := h.analytics.ComputeComprehensive(ctx, focusmw.UserID(ctx), rng)
	if err != nil {
		writeError(w, r, err, "failed to fetch analytics")
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) HourlyPatterns(w http.ResponseWriter, r *http.Request) {
	loc := h.analytics.Location()
	h.withDataset(w, r, func(ds *analytics.Dataset) any { return ds.HourlyPatterns(loc) })
}

func (h *handler) Trends(w http.ResponseWriter, r *http.Request) {
	h.withDataset(w, r, func(ds *analytics.Dataset) any { return ds.Trends() })
}

func (h *handler) Distribution(w http.ResponseWriter, r *http.Request) {
	h.withDataset(w, r, func(ds *analytics.Dataset) any { return ds.CategoryDistribution() })
}

func (h *handler) Insights(w http.ResponseWriter, r *http.Request) {
	h.withDataset(w, r, func(ds *analytics.Dataset) any { return ds.Insights() })
}

func (h *handler) GoalAchievement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := focusmw.UserID(ctx)

	rng, err := queryRange(r)
	if err != nil {
		writeError(w, r, err, "invalid date range")
		return
	}

	var (
		ds    *analytics.Dataset
		goals tracking.UserGoals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = h.analytics.Load(gctx, userID, rng)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = h.analytics.LoadGoals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err, "failed to fetch goal achievement")
		return
	}
	writeJSON(w, r, http.StatusOK, ds.GoalAchievement(goals))
}

func (h *handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reportRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", apperrors.ErrInvalidRange, err), "failed to decode report request")
		return
	}
	rng, err := tracking.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err, "invalid date range")
		return
	}

	rep, err := h.reports.Generate(ctx, focusmw.UserID(ctx), rng)
	if err != nil {
		writeError(w, r, err, "failed to generate report")
		return
	}
	writeJSON(w, r, http.StatusCreated, rep)
}

func (h *handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rng, err := queryRange(r)
	if err != nil {
		writeError(w, r, err, "invalid date range")
		return
	}
	reports, err := h.reports.List(ctx, focusmw.UserID(ctx), rng)
	if err != nil {
		writeError(w, r, err, "failed to fetch reports")
		return
	}
	writeJSON(w, r, http.StatusOK, reports)
}

func (h *handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rep, err := h.reports.Get(ctx, focusmw.UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "failed to fetch report")
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}
