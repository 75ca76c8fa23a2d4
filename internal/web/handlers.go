package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
	"github.com/desertthunder/lineup/internal/tasks"
)

const (
	dateLayout          = "2006-01-02"
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "driver": a.db.Driver})
}

type proxyFailure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// programProxy forwards a filter query upstream and relays JSON verbatim.
func (a *API) programProxy(w http.ResponseWriter, r *http.Request) {
	q, err := programQuery(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if a.program == nil {
		a.respondError(w, r, fmt.Errorf("%w: program source not configured", shared.ErrServiceUnavailable))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.config.Source.Timeout())
	defer cancel()

	resp, err := a.program.Proxy(ctx, q)
	if err != nil {
		a.logger.Warn("program proxy failed", "page", q.Page, "error", err)
		respondJSON(w, http.StatusBadGateway, proxyFailure{
			Error:   "Failed to fetch program data",
			Message: err.Error(),
			Status:  http.StatusBadGateway,
		})
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !resp.IsJSON {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		respondJSON(w, status, proxyFailure{
			Error:   "Upstream request failed",
			Message: fmt.Sprintf("upstream returned status %d", resp.StatusCode),
			Status:  resp.StatusCode,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
}

func programQuery(r *http.Request) (services.ProgramQuery, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return services.ProgramQuery{}, err
	}
	values := r.URL.Query()
	q := services.ProgramQuery{
		Page:    int(page),
		From:    values.Get("from"),
		To:      values.Get("to"),
		Types:   values.Get("types"),
		Section: values.Get("section"),
	}
	if err := checkDates(q.From, q.To); err != nil {
		return services.ProgramQuery{}, err
	}
	return q, nil
}

func checkDates(from, to string) error {
	for name, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return fmt.Errorf("%w: %s must be YYYY-MM-DD", shared.ErrInvalidArgument, name)
		}
	}
	if from != "" && to != "" && to < from {
		return fmt.Errorf("%w: to is before from", shared.ErrInvalidArgument)
	}
	return nil
}

type syncRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (a *API) startSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(r, &req, true); err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := checkDates(req.From, req.To); err != nil {
		a.respondError(w, r, err)
		return
	}

	h, err := a.engine.StartSimple(services.DateRange{From: req.From, To: req.To})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"success": true, "historyId": h.ID})
}

func (a *API) syncHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	history, err := a.engine.History(int(min(max(limit, 1), maxHistoryLimit)))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": history})
}

type comprehensiveRequest struct {
	SessionID string         `json:"sessionId" validate:"omitempty,max=128"`
	Options   *tasks.Options `json:"options"`
}

func (a *API) startComprehensive(w http.ResponseWriter, r *http.Request) {
	var req comprehensiveRequest
	if err := decodeBody(r, &req, true); err != nil {
		a.respondError(w, r, err)
		return
	}
	opts := tasks.AllPhases()
	if req.Options != nil {
		opts = *req.Options
	}
	if err := checkDates(opts.From, opts.To); err != nil {
		a.respondError(w, r, err)
		return
	}

	id, err := a.engine.StartComprehensive(req.SessionID, opts)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"success": true, "sessionId": id})
}

func (a *API) comprehensiveStatus(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "sessionId")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	s, err := a.engine.Sessions().Get(id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

type linkRequest struct {
	Mode      string `json:"mode" validate:"required,oneof=all single"`
	ArtistID  int64  `json:"artistId" validate:"required_if=Mode single,gte=0"`
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
}

func (a *API) startLinking(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeBody(r, &req, false); err != nil {
		a.respondError(w, r, err)
		return
	}

	id, err := a.engine.StartLinking(req.SessionID, tasks.LinkRequest{Mode: req.Mode, ArtistID: req.ArtistID})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"success": true, "sessionId": id})
}

func (a *API) linkProgress(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "sessionId")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	s, err := a.engine.Sessions().Get(id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks.LinkProgressOf(s))
}

// linkQuery resolves links for an artist, for an event, or summarizes all links.
func (a *API) linkQuery(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	switch {
	case values.Has("artistId"):
		id, err := parseID(values.Get("artistId"), "artistId")
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		events, err := a.links.EventsForArtist(id)
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"artistId": id, "events": events})
	case values.Has("eventId"):
		id, err := parseID(values.Get("eventId"), "eventId")
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		artists, err := a.links.ArtistsForEvent(id)
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"eventId": id, "artists": artists})
	default:
		stats, err := a.links.Stats()
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", shared.ErrInvalidArgument, name)
	}
	return id, nil
}

type enrichRequest struct {
	ArtistID      int64  `json:"artistId" validate:"required,gt=0"`
	ArtistName    string `json:"artistName" validate:"max=256"`
	ForceOverride bool   `json:"forceOverride"`
}

func (a *API) enrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := decodeBody(r, &req, false); err != nil {
		a.respondError(w, r, err)
		return
	}
	enricher := a.engine.Enricher()
	if enricher == nil {
		a.respondError(w, r, fmt.Errorf("%w: enrichment requires Spotify credentials", shared.ErrMissingCredentials))
		return
	}

	result, err := enricher.EnrichArtist(r.Context(), req.ArtistID, req.ArtistName, req.ForceOverride)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "enrichedData": result})
}
