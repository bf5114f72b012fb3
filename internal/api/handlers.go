package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

type drawsResponse struct {
	Draws  []lottery.DrawRecord `json:"draws"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type generationsResponse struct {
	Combinations []lottery.GeneratedCombination `json:"combinations"`
	Limit        int                            `json:"limit"`
	Offset       int                            `json:"offset"`
}

type exhaustedResponse struct {
	Error        string                         `json:"error"`
	Index        int                            `json:"index"`
	Budget       int                            `json:"budget"`
	Combinations []lottery.GeneratedCombination `json:"combinations"`
	Attempts     []int                          `json:"attempts_per_combination"`
}

func (s *Server) runIngestion(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Ingester.RunIngestion(r.Context())
	s.writeJSON(w, http.StatusOK, report)
}

type statusResponse struct {
	LatestIssue string `json:"latest_issue"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	latest, err := s.deps.History.LatestIssue(r.Context())
	if err != nil {
		s.logger.Error("latest issue failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load status")
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{LatestIssue: latest})
}

func (s *Server) listDraws(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	draws, err := s.deps.History.ListHistory(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list history failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list draws")
		return
	}
	if draws == nil {
		draws = []lottery.DrawRecord{}
	}
	s.writeJSON(w, http.StatusOK, drawsResponse{Draws: draws, Limit: limit, Offset: offset})
}

func (s *Server) getDraw(w http.ResponseWriter, r *http.Request) {
	issue := chi.URLParam(r, "issue")
	if !lottery.ValidIssue(issue) {
		s.writeError(w, http.StatusBadRequest, "issue must be 7 digits")
		return
	}
	draw, err := s.deps.History.GetDraw(r.Context(), issue)
	if errors.Is(err, lottery.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "draw not found")
		return
	}
	if err != nil {
		s.logger.Error("get draw failed", zap.String("issue", issue), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load draw")
		return
	}
	s.writeJSON(w, http.StatusOK, draw)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "count must be an integer")
			return
		}
		count = n
	}

	gen, err := s.deps.Generator.Generate(r.Context(), userFromContext(r.Context()), count)
	var (
		bounds    *lottery.BoundsError
		exhausted *lottery.GenerationExhaustedError
	)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, gen)
	case errors.As(err, &bounds):
		s.writeError(w, http.StatusBadRequest, bounds.Error())
	case errors.As(err, &exhausted):
		partial := exhausted.Partial
		if partial == nil {
			partial = []lottery.GeneratedCombination{}
		}
		s.writeJSON(w, http.StatusConflict, exhaustedResponse{
			Error:        exhausted.Error(),
			Index:        exhausted.Index,
			Budget:       exhausted.Budget,
			Combinations: partial,
			Attempts:     exhausted.Attempts,
		})
	default:
		s.logger.Error("generate failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "generation failed")
	}
}

func (s *Server) listGenerations(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	combos, err := s.deps.Generations.ListGenerations(r.Context(), userFromContext(r.Context()), limit, offset)
	if err != nil {
		s.logger.Error("list generations failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list generations")
		return
	}
	if combos == nil {
		combos = []lottery.GeneratedCombination{}
	}
	s.writeJSON(w, http.StatusOK, generationsResponse{Combinations: combos, Limit: limit, Offset: offset})
}

// parsePage reads limit and offset, clamping limit to maxPageLimit.
func parsePage(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	limit := defaultPageLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = min(n, maxPageLimit)
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}
