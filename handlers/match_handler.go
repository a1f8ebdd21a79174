package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/score-control/models"
	"github.com/Dosada05/score-control/services"
)

type MatchHandler struct {
	service services.MatchService
}

func NewMatchHandler(service services.MatchService) *MatchHandler {
	return &MatchHandler{service: service}
}

type setupRequest struct {
	HomeName     *string `json:"homeName"`
	AwayName     *string `json:"awayName"`
	Period       *int    `json:"period"`
	TimerSeconds *int    `json:"timerSeconds"`
}

type scoreRequest struct {
	Team  models.Team `json:"team"`
	Delta int         `json:"delta"`
}

type periodSetRequest struct {
	Period int `json:"period"`
}

type timerSetRequest struct {
	Seconds int `json:"seconds"`
}

type assignPlayerRequest struct {
	PlayerID int         `json:"player_id"`
	Team     models.Team `json:"team"`
}

func getMatchIDFromURL(r *http.Request) (string, error) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		return "", errors.New("missing matchID in URL path")
	}
	return matchID, nil
}

// okResponse is the envelope every successful mutation returns so callers
// can update local UI without a separate fetch.
func okResponse(w http.ResponseWriter, r *http.Request, state models.MatchState) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok", "state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state := h.service.State(r.Context(), matchID)
	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SetupHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req setupRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.Setup(r.Context(), matchID, services.SetupInput{
		HomeName:     req.HomeName,
		AwayName:     req.AwayName,
		Period:       req.Period,
		TimerSeconds: req.TimerSeconds,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req scoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.AdjustScore(r.Context(), matchID, req.Team, req.Delta)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) MatchScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req scoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.AdjustMatchScore(r.Context(), matchID, req.Team, req.Delta)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) PeriodSetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req periodSetRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.SetPeriod(r.Context(), matchID, req.Period)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) TimerStartHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.StartTimer(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) TimerStopHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.StopTimer(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) TimerSetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req timerSetRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.SetTimer(r.Context(), matchID, req.Seconds)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) AssignPlayerHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req assignPlayerRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.AssignPlayer(r.Context(), matchID, req.PlayerID, req.Team)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

func (h *MatchHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.service.Reset(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	okResponse(w, r, state)
}

// InfoHandler answers the root path with a short service description,
// mainly so a browser pointed at the bare host sees something useful.
func InfoHandler(w http.ResponseWriter, r *http.Request) {
	info := jsonResponse{
		"service": "score-control",
		"endpoints": jsonResponse{
			"api":       "/api/match/{matchID}/...",
			"websocket": "/ws/match/{matchID}",
		},
	}
	if err := writeJSON(w, http.StatusOK, info, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
