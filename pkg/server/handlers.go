package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sentra-hq/warden/pkg/engine"
	"sentra-hq/warden/pkg/provenance"
	"sentra-hq/warden/pkg/ruleset"
)

type checkRequest struct {
	Text string `json:"text"`
}

type checkResponse struct {
	Verdict *engine.Verdict `json:"verdict"`
	Mode    engine.Mode     `json:"mode"`
}

type verifyResponse struct {
	Seq      uint64 `json:"seq"`
	Verified bool   `json:"verified"`
}

type modeRequest struct {
	Mode engine.Mode `json:"mode"`
}

type modeResponse struct {
	Mode engine.Mode `json:"mode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	verdict, err := s.controller.Check(r.Context(), req.Text)
	if err != nil {
		var integrity *ruleset.IntegrityError
		if errors.As(err, &integrity) {
			// Quarantined ruleset: refuse evaluation, fail closed.
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{Verdict: verdict, Mode: s.controller.Mode()})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
	if err != nil || seq == 0 {
		writeError(w, http.StatusBadRequest, "invalid sequence number")
		return
	}

	verified, err := s.controller.VerifyEntry(r.Context(), seq)
	if err != nil {
		var notBatched *provenance.NotBatchedError
		if errors.As(err, &notBatched) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("verification failed", "seq", seq, "error", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{Seq: seq, Verified: verified})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.controller.BatchNow(r.Context())
	if err != nil {
		s.logger.Error("batch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "batch failed")
		return
	}
	if batch == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modeResponse{Mode: s.controller.Mode()})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.controller.SetMode(req.Mode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, modeResponse{Mode: s.controller.Mode()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
