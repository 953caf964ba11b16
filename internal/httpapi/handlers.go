package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/gate"
)

var errTooManySecretAttempts = errors.New("too many verification attempts")

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := a.decodeRequest(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// allowSecretAttempt throttles step-up secret guesses per client and user.
func (a *API) allowSecretAttempt(w http.ResponseWriter, r *http.Request, userID string) bool {
	if a.secretLimiter.Allow(clientKey(r) + "|" + userID) {
		return true
	}
	writeError(w, http.StatusTooManyRequests, errTooManySecretAttempts)
	return false
}

func (a *API) handleStations(w http.ResponseWriter, r *http.Request) {
	rc := a.requestContext(r)
	switch r.Method {
	case http.MethodGet:
		stations, err := a.service.ListStations(r.Context(), rc.StoreID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.StationListResponse{Stations: stations})
	case http.MethodPost:
		var req domain.StationRegisterRequest
		if err := a.decodeRequest(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		station, err := a.service.RegisterStation(r.Context(), rc.StoreID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, domain.StationResponse{Station: station})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCurrentStation(w http.ResponseWriter, r *http.Request, _ domain.RequestContext) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	station, _ := stationFromContext(r.Context())
	writeJSON(w, http.StatusOK, domain.StationResponse{Station: station})
}

func parseRouteKind(raw string) gate.RouteKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "public":
		return gate.RoutePublic
	case "shift":
		return gate.RouteShift
	case "closing":
		return gate.RouteClosing
	default:
		return gate.RouteApp
	}
}

// handleGate reports the gate decision so the UI can redirect before it
// calls a gated route.
func (a *API) handleGate(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	kind := parseRouteKind(r.URL.Query().Get("route"))
	state, err := a.service.GateState(r.Context(), rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"route":      kind.String(),
		"station_id": rc.StationID,
		"state": map[string]string{
			"today":                state.Today,
			"open_shift_date":      state.OpenShiftDate,
			"pending_closing_date": state.PendingClosingDate,
		},
		"decision": gate.Check(state, kind),
	})
}

func (a *API) handleShiftOpen(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ShiftOpenRequest
	if err := a.decodeRequest(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	shift, err := a.service.OpenShift(r.Context(), rc, req.InitialCash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.ShiftResponse{Shift: shift})
}

func (a *API) handleShiftClose(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ShiftCloseRequest
	if err := a.decodeRequest(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if !a.allowSecretAttempt(w, r, rc.UserID) {
		return
	}

	resp, err := a.service.CloseShift(r.Context(), rc, req.FinalCash, req.AuthPassword)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleShiftActive(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	shift, err := a.service.ActiveShift(r.Context(), rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ShiftResponse{Shift: shift})
}

func (a *API) handleClosingPreview(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	preview, err := a.service.PreviewStation(r.Context(), rc, r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleStationClosings closes the calling station on POST and lists the
// store's station closings of a date on GET.
func (a *API) handleStationClosings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.atStation(gate.RouteClosing, a.closeStation)(w, r)
	case http.MethodGet:
		rc := a.requestContext(r)
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			date = a.service.Today()
		}
		closings, err := a.service.ListStationClosings(r.Context(), rc.StoreID, date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.StationClosingListResponse{BusinessDate: date, Closings: closings})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) closeStation(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	var req domain.StationCloseRequest
	if err := a.decodeRequest(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if !a.allowSecretAttempt(w, r, rc.UserID) {
		return
	}

	closing, err := a.service.CloseStation(r.Context(), rc, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.StationClosingResponse{Closing: closing})
}

func (a *API) handleFinalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	rc := a.requestContext(r)
	var req domain.FinalizeRequest
	if err := a.decodeRequest(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if !a.allowSecretAttempt(w, r, rc.UserID) {
		return
	}

	closing, err := a.service.Finalize(r.Context(), rc, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.DailyClosingResponse{Closing: closing})
}

func (a *API) handleDailyClosing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rc := a.requestContext(r)
	closing, err := a.service.GetDailyClosing(r.Context(), rc.StoreID, r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.DailyClosingResponse{Closing: closing})
}

func (a *API) handleClosingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rc := a.requestContext(r)
	status, err := a.service.ClosingStatus(r.Context(), rc.StoreID, r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request, rc domain.RequestContext) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(r.Context(), rc.StoreID, r.URL.Query().Get("date"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
