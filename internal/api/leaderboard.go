package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/MJE43/lilyhop/internal/store"
)

const maxSubmitBody = 64 << 10

var (
	minScore = decimal.NewFromInt(math.MinInt64)
	maxScore = decimal.NewFromInt(math.MaxInt64)
)

// scoreField is a rejected submission field.
type scoreField struct {
	errType string
	field   string
	message string
}

// handleLeaderboard returns the top entries as a bare JSON array.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := s.cfg.TopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.errorHandler.HandleValidationError(w, r, ErrTypeInvalidQuery, "limit", "limit must be a positive integer")
			return
		}
		n = min(limit, s.cfg.Capacity)
	}

	entries, err := s.board.Top(r.Context(), n)
	if err != nil {
		s.errorHandler.HandleStoreError(w, r, "top", "Failed to load leaderboard", err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleSubmitScore stores a floored score and answers {success, entry}.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	req, bad := decodeScoreRequest(http.MaxBytesReader(w, r.Body, maxSubmitBody), s.cfg.MaxNameLength)
	if bad != nil {
		s.errorHandler.HandleValidationError(w, r, bad.errType, bad.field, bad.message)
		return
	}

	entry, err := s.board.Submit(r.Context(), store.Entry{Name: req.Name, Score: req.Score})
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntry) {
			s.errorHandler.HandleValidationError(w, r, ErrTypeInvalidName, "name", "Valid name is required")
			return
		}
		s.errorHandler.HandleStoreError(w, r, "submit", "Failed to save score", err)
		return
	}

	s.audit.LogScoreSubmission(requestID, entry, r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Entry: entry})
}

// decodeScoreRequest validates a {name, score} body. The name must be a
// non-blank string; the score must be a JSON number and is floored.
func decodeScoreRequest(body io.Reader, maxName int) (ScoreRequest, *scoreField) {
	var raw struct {
		Name  interface{} `json:"name"`
		Score interface{} `json:"score"`
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ScoreRequest{}, &scoreField{ErrTypeValidation, "body", "Request body too large"}
		}
		return ScoreRequest{}, &scoreField{ErrTypeInvalidJSON, "body", "Invalid JSON body"}
	}

	name, ok := raw.Name.(string)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return ScoreRequest{}, &scoreField{ErrTypeInvalidName, "name", "Valid name is required"}
	}
	if maxName > 0 && utf8.RuneCountInString(name) > maxName {
		return ScoreRequest{}, &scoreField{ErrTypeInvalidName, "name", "Name must be at most " + strconv.Itoa(maxName) + " characters"}
	}

	num, ok := raw.Score.(json.Number)
	if !ok {
		return ScoreRequest{}, &scoreField{ErrTypeInvalidScore, "score", "Valid score is required"}
	}
	score, ok := floorScore(num.String())
	if !ok {
		return ScoreRequest{}, &scoreField{ErrTypeInvalidScore, "score", "Valid score is required"}
	}

	return ScoreRequest{Name: name, Score: score}, nil
}

// maxScoreMagnitude sits just above the int64 range; the exact bounds are
// checked with decimal afterwards.
const maxScoreMagnitude = 9.3e18

// floorScore floors a JSON number literal into int64. Exponents are
// bounded before any decimal arithmetic, since rescaling 1e999999999
// would allocate a billion-digit integer.
func floorScore(lit string) (int64, bool) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !(errors.Is(err, strconv.ErrRange) && f == 0) {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxScoreMagnitude {
		return 0, false
	}

	d, err := decimal.NewFromString(lit)
	if err != nil {
		return 0, false
	}
	if d.Sign() == 0 {
		return 0, true
	}
	// Entirely fractional: floor is 0 or -1 without rescaling.
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	if int64(digits)+int64(d.Exponent()) <= 0 {
		if d.Sign() < 0 {
			return -1, true
		}
		return 0, true
	}

	d = d.Floor()
	if d.LessThan(minScore) || d.GreaterThan(maxScore) {
		return 0, false
	}
	return d.IntPart(), true
}
