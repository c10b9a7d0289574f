package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"graphfi/internal/core"
	"graphfi/internal/log"
	"graphfi/internal/notify"
	"graphfi/internal/session"
	"graphfi/internal/store"
)

const (
	msgEntryGone     = "This allocation no longer exists. The form has been reloaded."
	msgLastEntry     = "At least one allocation is required."
	msgInvalidEdit   = "Invalid edit request."
	msgRenderFailed  = "Something went wrong. Please reload the page."
	eventSessionGone = "session:expired"
)

// workspace resolves the caller's session and returns its store together
// with a request logger tagged with the session ID.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*http.Request, *store.Store, *log.Logger) {
	id, st := s.sessions.Resolve(w, r)
	ctx := session.NewContext(r.Context(), id)
	logger := log.FromContext(ctx).With(log.FieldSessionID, id)
	ctx = log.NewContext(ctx, logger)
	return r.WithContext(ctx), st, logger
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	r, st, _ := s.workspace(w, r)
	body, err := s.render(r, "index.html", newWorkspaceView(st.Snapshot(), s.preview))
	if err != nil {
		http.Error(w, msgRenderFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	r, st, _ := s.workspace(w, r)
	s.writeWorkspace(w, r, NewHTMXResponse(), st.Snapshot())
}

func (s *Server) writeWorkspace(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, snap store.Snapshot) {
	body, err := s.render(r, "workspace", newWorkspaceView(snap, s.preview))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	b.BodyHTML(body).Write(w)
}

func (s *Server) writeForm(w http.ResponseWriter, r *http.Request, snap store.Snapshot) {
	body, err := s.render(r, "form", newFormView(snap))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	NewHTMXResponse().TriggerEntriesChanged().BodyHTML(body).Write(w)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)
	e := st.AddEntry()
	snap := st.Snapshot()

	logger.InfoContext(r.Context(), "Entry added",
		log.FieldOperation, log.OpAdd,
		log.FieldEntryID, e.ID,
		log.FieldEntryCount, len(snap.Entries))
	s.writeForm(w, r, snap)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)
	id := r.PathValue("id")

	if !st.RemoveEntry(id) {
		snap := st.Snapshot()
		if snap.Entries.Index(id) < 0 {
			s.entryGone(w, r, id)
			return
		}
		UnprocessableEntityError(msgLastEntry).Write(w)
		return
	}

	snap := st.Snapshot()
	logger.InfoContext(r.Context(), "Entry removed",
		log.FieldOperation, log.OpRemove,
		log.FieldEntryID, id,
		log.FieldEntryCount, len(snap.Entries))
	s.writeForm(w, r, snap)
}

// handleEditEntry applies one field edit and answers with the refreshed
// total. A percentage that had to be coerced is written back to its input
// out of band.
func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)
	id := r.PathValue("id")

	edit, err := ParseEntryEdit(r)
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid entry edit", log.FieldError, err, log.FieldEntryID, id)
		BadRequestError(msgInvalidEdit).Write(w)
		return
	}

	var (
		stored float64
		oob    bool
	)
	switch edit.Field {
	case FieldLabel:
		err = st.SetLabel(id, edit.Value)
	case FieldPercentage:
		stored, err = st.SetPercentage(id, edit.Value)
		oob = err == nil && coercionChanged(edit.Value, stored)
	}
	if errors.Is(err, core.ErrEntryNotFound) {
		s.entryGone(w, r, id)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Entry edit failed", log.FieldError, err, log.FieldEntryID, id)
		InternalServerError(msgRenderFailed).Write(w)
		return
	}

	snap := st.Snapshot()
	logger.DebugContext(r.Context(), "Entry edited",
		log.FieldOperation, log.OpEdit,
		log.FieldEntryID, id,
		"field", edit.Field,
		log.FieldTotal, snap.Total)

	body, err := s.render(r, "total", newTotalView(snap.Total))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	if oob {
		row := newFormView(snap).Rows[snap.Entries.Index(id)]
		row.OOB = true
		input, err := s.render(r, "percentage-input", row)
		if err != nil {
			InternalServerError(msgRenderFailed).Write(w)
			return
		}
		body = append(body, input...)
	}
	NewHTMXResponse().TriggerEntriesChanged().BodyHTML(body).Write(w)
}

// entryGone answers edits to an entry the session no longer has, which
// happens after the session expired. The page reloads its workspace.
func (s *Server) entryGone(w http.ResponseWriter, r *http.Request, id string) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Entry not found", log.FieldEntryID, id)
	NotFoundError(msgEntryGone).Trigger(eventSessionGone, struct{}{}).Write(w)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)

	var rec notify.Recorder
	err := st.RequestGenerate(&rec)
	snap := st.Snapshot()
	fields := log.NewFields().
		WithOperation(log.OpGenerate).
		WithEntries(len(snap.Entries), snap.Total)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.generateFailed, 1)
		logger.InfoContext(r.Context(), "Chart generation rejected", fields.WithError(err).ToSlice()...)
		NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			Notify(rec.Events()...).
			Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.generated, 1)
	fields[log.FieldMode] = snap.Mode.String()
	logger.InfoContext(r.Context(), "Chart generated", fields.ToSlice()...)
	s.writeWorkspace(w, r, NewHTMXResponse().Notify(rec.Events()...), snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	r, st, logger := s.workspace(w, r)
	st.Reset()
	snap := st.Snapshot()

	logger.InfoContext(r.Context(), "Returned to editing",
		log.FieldOperation, log.OpReset,
		log.FieldMode, snap.Mode.String())
	s.writeWorkspace(w, r, NewHTMXResponse(), snap)
}
