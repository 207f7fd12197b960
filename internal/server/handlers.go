package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/interpret"
	"yijing/internal/types"

	"go.uber.org/zap"
)

// Error texts returned to clients.
const (
	MessageEmptyQuestion = "請輸入問題"
	MessageBadRequest    = "請求格式錯誤"
	MessageRateLimited   = "請求過於頻繁，請稍後再試。"
)

// Draw sources for the readings metric.
const (
	sourceClient    = "client"
	sourceGenerated = "generated"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, MessageBadRequest)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, MessageEmptyQuestion)
		return
	}

	ctx := r.Context()
	intent := interpret.DetermineIntent(message)
	s.metrics.intents.WithLabelValues(intent).Inc()
	logger := s.logger.With(zap.String("request_id", RequestID(ctx)), zap.String("intent", intent))

	if intent == types.IntentPersona {
		writeJSON(w, http.StatusOK, types.ChatResponse{
			Response: s.interp.Answer(ctx, message),
			Intent:   types.IntentPersona,
		})
		return
	}

	numbers, source := s.drawNumbers(req.Numbers)
	reading := hexagram.Cast(numbers)
	s.metrics.readings.WithLabelValues(reading.Hexagram.Name, source).Inc()
	logger.Debug("hexagram cast",
		zap.Ints("numbers", numbers[:]),
		zap.String("source", source),
		zap.String("hexagram", reading.Hexagram.Name),
		zap.Bool("known", reading.Known))

	interpretation := s.interp.Interpret(ctx, message, reading)
	writeJSON(w, http.StatusOK, types.ChatResponse{
		Response: hexagram.Format(message, reading, interpretation),
		Intent:   types.IntentDivination,
		Hexagram: reading.DTO(),
	})
}

// drawNumbers uses the client's three draws when present and draws its own
// otherwise.
func (s *Server) drawNumbers(client []int) ([3]int, string) {
	var n [3]int
	if len(client) == divination.RitualSize {
		copy(n[:], client)
		return n, sourceClient
	}
	for i := range n {
		n[i] = s.gen.Draw()
	}
	return n, sourceGenerated
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	llm := "disabled"
	if s.interp.Enabled() {
		llm = "enabled"
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", LLM: llm})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
