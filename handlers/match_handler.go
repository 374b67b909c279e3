package handlers

import (
	"net/http"
	"strconv"

	"github.com/cardhouse/tournament-engine/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type reportResultRequest struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

// ReportResultHandler handles
// POST /tournaments/{tournamentID}/rounds/{round}/matches/{matchIndex}/result
func (h *MatchHandler) ReportResultHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getStringParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIntParam(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchIndex, err := getIntParam(r, "matchIndex")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	principal, err := principalFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to report a result")
		return
	}

	var body reportResultRequest
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.matchService.ReportResult(r.Context(), tournamentID, principal, services.ReportResultInput{
		Round:      round,
		MatchIndex: matchIndex,
		Score1:     body.Score1,
		Score2:     body.Score2,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler handles GET /tournaments/{tournamentID}/standings
func (h *MatchHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getStringParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.matchService.GetStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func getIntParam(r *http.Request, name string) (int, error) {
	raw, err := getStringParam(r, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return value, nil
}
