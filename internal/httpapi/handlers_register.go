package httpapi

import (
	"net/http"

	"github.com/MrEthical07/provision"
	"github.com/MrEthical07/provision/internal/wallet"
	"github.com/MrEthical07/provision/middleware"
)

type registrationBody struct {
	Success bool `json:"success"`
	provision.RegistrationStatus
}

type startRequest struct {
	Email string `json:"email"`
}

type codeRequest struct {
	OTP string `json:"otp"`
}

type passwordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type phraseRequest struct {
	Answers []provision.PhraseAnswer `json:"answers"`
}

type accountBody struct {
	Success   bool   `json:"success"`
	Email     string `json:"email"`
	WalletTag string `json:"walletTag"`
	LastLogin string `json:"lastLogin,omitempty"`
}

func ticket(r *http.Request) string {
	t, _ := middleware.TicketFromContext(r.Context())
	return t
}

// respondRegistration writes the status, keeping the ticket on failures
// that leave the session alive.
func (s *Server) respondRegistration(w http.ResponseWriter, r *http.Request, st provision.RegistrationStatus, err error) {
	if err != nil {
		if st.Ticket != "" {
			w.Header().Set("X-Registration-Ticket", st.Ticket)
		}
		s.writeStepError(w, r, err, string(st.Step))
		return
	}
	writeJSON(w, http.StatusOK, registrationBody{Success: true, RegistrationStatus: st})
}

func (s *Server) handleRegisterStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.engine.StartRegistration(r.Context(), ticket(r), req.Email)
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterResend(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.ResendRegistrationCode(r.Context(), ticket(r))
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterVerify(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.engine.VerifyRegistrationCode(r.Context(), ticket(r), req.OTP)
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.engine.SetRegistrationPassword(r.Context(), ticket(r), req.Email, req.Password, req.Confirm)
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterPhrase(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.ShowRegistrationPhrase(r.Context(), ticket(r))
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterPhraseConfirm(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.ConfirmPhraseSaved(r.Context(), ticket(r))
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterPhraseVerify(w http.ResponseWriter, r *http.Request) {
	var req phraseRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.engine.VerifyRegistrationPhrase(r.Context(), ticket(r), req.Answers)
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterFinalize(w http.ResponseWriter, r *http.Request) {
	acct, err := s.engine.FinalizeRegistration(r.Context(), ticket(r))
	if err != nil {
		st, statusErr := s.engine.RegistrationStatus(r.Context(), ticket(r))
		if statusErr != nil {
			st = provision.RegistrationStatus{Step: provision.StepEmail}
		}
		s.respondRegistration(w, r, st, err)
		return
	}
	writeJSON(w, http.StatusOK, accountBody{
		Success:   true,
		Email:     acct.Email,
		WalletTag: wallet.Format(acct.WalletTag),
	})
}

func (s *Server) handleRegisterStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.RegistrationStatus(r.Context(), ticket(r))
	s.respondRegistration(w, r, st, err)
}

func (s *Server) handleRegisterClear(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearRegistration(r.Context(), ticket(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}
