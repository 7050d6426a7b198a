package httpapi

import (
	"net/http"
	"strings"
)

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type successBody struct {
	Success bool `json:"success"`
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeMessage(w, http.StatusBadRequest, "Email is required.")
		return
	}
	if err := s.engine.SendCode(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		writeMessage(w, http.StatusBadRequest, "Email and OTP are required.")
		return
	}
	if err := s.engine.VerifyCode(r.Context(), req.Email, req.OTP); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) handleSMTPCheck(w http.ResponseWriter, r *http.Request) {
	probe := s.engine.ProbeMail(r.Context())
	status := http.StatusOK
	if !probe.OK {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{
		"ok":      probe.OK,
		"results": probe.Results,
		"config": map[string]string{
			"host":   probe.Host,
			"user":   probe.User,
			"sender": probe.Sender,
		},
	})
}
