package http

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"graphfi/internal/chart"
	"graphfi/internal/core"
	"graphfi/internal/log"
	"graphfi/internal/notify"
	"graphfi/internal/session"
)

const (
	msgChartHidden   = "Generate the chart first."
	msgDownloadGone  = "This download has expired. Please export the chart again."
	downloadPathBase = "/chart/download/"
)

// handleChartPartial re-renders the chart section after entry edits. In
// Editing mode the section is removed.
func (s *Server) handleChartPartial(w http.ResponseWriter, r *http.Request) {
	r, st, _ := s.workspace(w, r)
	snap := st.Snapshot()
	if !snap.ShowChart() {
		NewHTMXResponse().BodyHTML(nil).Write(w)
		return
	}

	body, err := s.render(r, "chart", newChartView(snap.Entries, s.preview))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleChartImage streams the on-screen chart raster.
func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)
	snap := st.Snapshot()
	if !snap.ShowChart() {
		ConflictError(msgChartHidden).Write(w)
		return
	}

	opts := s.preview.WithScale(ParseScale(r.URL.Query(), 1, maxPreviewScale))
	data, err := chart.Draw(s.renderer, chart.Segments(snap.Entries), opts)
	if err != nil {
		logger.ErrorContext(r.Context(), "Chart render failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err,
			log.FieldEntryCount, len(snap.Entries))
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", chart.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, no-cache")
	_, _ = w.Write(data)
}

// handleExport captures the chart at export scale and hands the browser a
// one-shot download URL. Progress is reported through notifications.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)
	snap := st.Snapshot()
	if !snap.ShowChart() {
		ConflictError(msgChartHidden).Write(w)
		return
	}

	var rec notify.Recorder
	id := session.IDFromContext(r.Context())
	exp, err := s.exporter.Export(r.Context(), exportKey(id, snap.Entries), snap.Entries, &rec)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.exportFailures, 1)
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			Notify(rec.Events()...).
			Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)

	token := uuid.NewString()
	s.downloads.Set(token, pendingDownload{sessionID: id, export: exp})
	logger.InfoContext(r.Context(), "Chart ready for download",
		log.FieldOperation, log.OpExport,
		log.FieldExportBytes, len(exp.Data))

	NewHTMXResponse().
		Notify(rec.Events()...).
		TriggerChartDownload(downloadPathBase+token, exp.Filename).
		Write(w)
}

// exportKey lets overlapping exports of one session share a capture only
// while the entries are unchanged.
func exportKey(sessionID string, es core.Entries) string {
	return sessionID + "@" + revision(es)
}

// handleDownload serves an exported chart once, to the session that
// exported it.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		http.Error(w, msgDownloadGone, http.StatusNotFound)
		return
	}

	d, ok := s.downloads.Get(token)
	if ok && d.sessionID == c.Value {
		d, ok = s.downloads.Take(token)
	}
	if !ok || d.sessionID != c.Value {
		fields := log.NewFields().WithOperation(log.OpDownload).WithSession(c.Value)
		log.FromContext(r.Context()).WarnContext(r.Context(), "Download not available", fields.ToSlice()...)
		http.Error(w, msgDownloadGone, http.StatusNotFound)
		return
	}
	atomic.AddInt64(&s.appMetrics.downloads, 1)

	w.Header().Set("Content-Type", d.export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.export.Data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(d.export.Data)
}
