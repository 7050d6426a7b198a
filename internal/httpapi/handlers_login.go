package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/provision/internal/wallet"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	acct, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountBody{
		Success:   true,
		Email:     acct.Email,
		WalletTag: wallet.Format(acct.WalletTag),
		LastLogin: acct.LastLogin.UTC().Format(time.RFC3339),
	})
}
