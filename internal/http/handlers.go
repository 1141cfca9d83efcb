package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"irpfscan/internal/dec"
	"irpfscan/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// handleAnalyze accepts a raw .DEC body, parses and analyzes it in
// memory, and responds with the JSON result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	d, err := dec.Parse(body)
	if err != nil {
		if errors.Is(err, dec.ErrCorruptedFile) {
			writeError(w, http.StatusUnprocessableEntity, "arquivo .DEC corrompido ou inválido")
			return
		}
		s.logger.Error("reading upload failed", log.FieldError, err.Error())
		writeError(w, http.StatusBadRequest, "falha na leitura do arquivo enviado")
		return
	}

	res, err := s.pipeline.Analyze(r.Context(), d)
	if err != nil {
		s.logger.Error("analysis failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "falha na análise da declaração")
		return
	}

	s.logger.Info("declaration analyzed",
		log.FieldFiler, res.TaxpayerCPF,
		log.FieldYear, res.ExerciseYear,
		log.FieldScore, res.Score.Score,
		log.FieldDuration, time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
