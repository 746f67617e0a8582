package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	sonic "github.com/bytedance/sonic"

	"github.com/fantasysports/season-core/internal/domain/livematch"
	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/season"
	"github.com/fantasysports/season-core/internal/domain/tournament"
	"github.com/fantasysports/season-core/internal/platform/logging"
	"github.com/fantasysports/season-core/internal/platform/resilience"
	"github.com/fantasysports/season-core/internal/usecase"
)

// Handler wires the HTTP surface to the core's usecase services. It
// carries no per-request state; every field is shared and safe for
// concurrent use across requests.
type Handler struct {
	matchRepo      match.Repository
	seasonRepo     season.Repository
	tournamentRepo tournament.Repository

	simulator   *usecase.MatchSimulatorService
	tournaments *usecase.TournamentService
	standings   *usecase.StandingsService

	seasonID string

	// storeBreaker guards the readiness ping in Healthz: once the store
	// has failed enough consecutive pings it trips, so a dead database
	// fails liveness checks fast instead of every probe waiting out a
	// fresh dial timeout.
	storeBreaker *resilience.CircuitBreaker
	pingStore    func(ctx context.Context) error

	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	matchRepo match.Repository,
	seasonRepo season.Repository,
	tournamentRepo tournament.Repository,
	simulator *usecase.MatchSimulatorService,
	tournaments *usecase.TournamentService,
	standings *usecase.StandingsService,
	seasonID string,
	storeBreaker *resilience.CircuitBreaker,
	pingStore func(ctx context.Context) error,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchRepo:      matchRepo,
		seasonRepo:     seasonRepo,
		tournamentRepo: tournamentRepo,
		simulator:      simulator,
		tournaments:    tournaments,
		standings:      standings,
		seasonID:       seasonID,
		storeBreaker:   storeBreaker,
		pingStore:      pingStore,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) validateRequest(payload any) error {
	if err := h.validator.Struct(payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	if h.pingStore == nil {
		writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if h.storeBreaker != nil {
		if err := h.storeBreaker.Allow(); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: store circuit open", usecase.ErrDependencyUnavailable))
			return
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.pingStore(pingCtx); err != nil {
		if h.storeBreaker != nil {
			h.storeBreaker.RecordFailure()
		}
		h.logger.WarnContext(ctx, "store readiness ping failed", "error", err)
		writeError(ctx, w, fmt.Errorf("%w: store unreachable", usecase.ErrDependencyUnavailable))
		return
	}
	if h.storeBreaker != nil {
		h.storeBreaker.RecordSuccess()
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// liveMatchDTO is the wire shape for a running match's current tick
// state, shared by ListMatchesLive and GetMatchEnhancedData.
type liveMatchDTO struct {
	GameID           string `json:"gameId"`
	HomeTeamID       string `json:"homeTeamId"`
	AwayTeamID       string `json:"awayTeamId"`
	Tick             int    `json:"tick"`
	HomeScore        int    `json:"homeScore"`
	AwayScore        int    `json:"awayScore"`
	PossessionTeamID string `json:"possessionTeamId"`
	FieldPos         int    `json:"fieldPos"`
}

func liveMatchToDTO(state livematch.State) liveMatchDTO {
	return liveMatchDTO{
		GameID:           state.GameID,
		HomeTeamID:       state.HomeTeamID,
		AwayTeamID:       state.AwayTeamID,
		Tick:             state.Tick,
		HomeScore:        state.HomeScore,
		AwayScore:        state.AwayScore,
		PossessionTeamID: state.PossessionTeamID,
		FieldPos:         state.FieldPos,
	}
}

// ListMatchesLive returns the current tick snapshot of every
// IN_PROGRESS game, read straight from the simulator's in-memory state
// rather than the (lagging, checkpointed) persisted row.
func (h *Handler) ListMatchesLive(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesLive")
	defer span.End()

	games, err := h.matchRepo.ListInProgress(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list in-progress matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]liveMatchDTO, 0, len(games))
	for _, g := range games {
		state, ok := h.simulator.LiveState(g.ID)
		if !ok {
			continue
		}
		items = append(items, liveMatchToDTO(state))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

// enhancedMatchDTO adds the C5 playback decision on top of the raw
// live state, for a consumer that wants both in one round trip.
type enhancedMatchDTO struct {
	liveMatchDTO
	SpeedMultiplier int  `json:"speedMultiplier"`
	VisualsEnabled  bool `json:"visualsEnabled"`
}

func (h *Handler) GetMatchEnhancedData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchEnhancedData")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("id"))
	state, ok := h.simulator.LiveState(gameID)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: match %s is not currently live", usecase.ErrNotFound, gameID))
		return
	}

	playback := usecase.NewPlaybackController()
	for _, e := range state.Events {
		playback.PushEvent(e)
	}
	decision := playback.Decide(state.Tick)

	writeSuccess(ctx, w, http.StatusOK, enhancedMatchDTO{
		liveMatchDTO:    liveMatchToDTO(state),
		SpeedMultiplier: decision.SpeedMultiplier,
		VisualsEnabled:  decision.VisualsEnabled,
	})
}

// ForceStartMatch is an admin-only escape hatch to start a SCHEDULED
// game immediately instead of waiting for C7's due-matches sweep.
func (h *Handler) ForceStartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceStartMatch")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("id"))
	if err := h.simulator.StartMatch(ctx, gameID); err != nil {
		h.logger.ErrorContext(ctx, "force start match failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"gameId": gameID, "status": "starting"})
}

type tournamentDTO struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	Division             *int      `json:"division,omitempty"`
	MaxParticipants      int       `json:"maxParticipants"`
	Status               string    `json:"status"`
	CurrentRound         int       `json:"currentRound"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	StartTime            time.Time `json:"startTime"`
	PrizePoolCredits     int64     `json:"prizePoolCredits"`
}

func tournamentToDTO(t tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Division:             t.Division,
		MaxParticipants:      t.MaxParticipants,
		Status:               string(t.Status),
		CurrentRound:         t.CurrentRound,
		RegistrationDeadline: t.RegistrationDeadline,
		StartTime:            t.StartTime,
		PrizePoolCredits:     t.PrizePoolCredits,
	}
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournament")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("id"))
	t, err := h.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament failed", "tournament_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, tournamentToDTO(t))
}

type enterTournamentRequest struct {
	TeamID       string `json:"teamId" validate:"required"`
	HasEntryItem bool   `json:"hasEntryItem"`
}

func (h *Handler) EnterTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EnterTournament")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("id"))

	var req enterTournamentRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.tournaments.Enter(ctx, id, req.TeamID, req.HasEntryItem, time.Now().UTC()); err != nil {
		h.logger.WarnContext(ctx, "enter tournament failed", "tournament_id", id, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"tournamentId": id, "teamId": req.TeamID, "status": "entered"})
}

type standingRowDTO struct {
	Rank     int    `json:"rank"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
	Points   int    `json:"points"`
}

// ListStandings serves sorted standings for a division/subdivision.
// division is required and must be an integer; subdivision is passed
// through as given, with no default applied when it is empty.
func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	divisionStr := strings.TrimSpace(r.URL.Query().Get("division"))
	subdivision := strings.TrimSpace(r.URL.Query().Get("subdivision"))
	division, err := strconv.Atoi(divisionStr)
	if divisionStr == "" || err != nil {
		writeError(ctx, w, fmt.Errorf("%w: division query parameter must be an integer", usecase.ErrInvalidInput))
		return
	}

	rows, err := h.standings.List(ctx, division, subdivision)
	if err != nil {
		h.logger.ErrorContext(ctx, "list standings failed", "division", division, "subdivision", subdivision, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingRowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, standingRowDTO{
			Rank:     row.Rank,
			TeamID:   row.Team.ID,
			TeamName: row.Team.Name,
			Wins:     row.Team.Wins,
			Losses:   row.Team.Losses,
			Draws:    row.Team.Draws,
			Points:   row.Team.Points,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

type seasonDTO struct {
	ID           string    `json:"id"`
	StartDateUTC time.Time `json:"startDateUtc"`
	CurrentDay   int       `json:"currentDay"`
	Phase        string    `json:"phase"`
}

// GetSeasonCurrent returns the single active season row this core
// drives; there is no multi-season selection surface.
func (h *Handler) GetSeasonCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonCurrent")
	defer span.End()

	sn, err := h.seasonRepo.Get(ctx, h.seasonID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get current season failed", "season_id", h.seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, seasonDTO{
		ID:           sn.ID,
		StartDateUTC: sn.StartDateUTC,
		CurrentDay:   sn.CurrentDay,
		Phase:        string(sn.Phase),
	})
}
