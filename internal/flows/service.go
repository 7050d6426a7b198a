package flows

import (
	"context"

	"github.com/MrEthical07/provision/internal/accounts"
	"github.com/MrEthical07/provision/internal/phrase"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Code         CodeDeps
	Registration RegistrationDeps
	Login        LoginDeps
}

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Code.Issue != nil && registrationReady(s.deps.Registration)
}

func (s Service) SendCode(ctx context.Context, email string) error {
	return RunSendCode(ctx, email, s.deps.Code)
}

func (s Service) VerifyCode(ctx context.Context, email, code string) error {
	return RunVerifyCode(ctx, email, code, s.deps.Code)
}

func (s Service) StartRegistration(ctx context.Context, previousSID, email string) (Status, error) {
	return RunStartRegistration(ctx, previousSID, email, s.deps.Registration)
}

func (s Service) ResendRegistrationCode(ctx context.Context, sid string) (Status, error) {
	return RunResendRegistrationCode(ctx, sid, s.deps.Registration)
}

func (s Service) VerifyRegistrationCode(ctx context.Context, sid, code string) (Status, error) {
	return RunVerifyRegistrationCode(ctx, sid, code, s.deps.Registration)
}

func (s Service) SetRegistrationPassword(ctx context.Context, sid, email, password, confirm string) (Status, error) {
	return RunSetRegistrationPassword(ctx, sid, email, password, confirm, s.deps.Registration)
}

func (s Service) ShowRegistrationPhrase(ctx context.Context, sid string) (Status, error) {
	return RunShowRegistrationPhrase(ctx, sid, s.deps.Registration)
}

func (s Service) ConfirmPhraseSaved(ctx context.Context, sid string) (Status, error) {
	return RunConfirmPhraseSaved(ctx, sid, s.deps.Registration)
}

func (s Service) VerifyRegistrationPhrase(ctx context.Context, sid string, answers []phrase.Answer) (Status, error) {
	return RunVerifyRegistrationPhrase(ctx, sid, answers, s.deps.Registration)
}

func (s Service) FinalizeRegistration(ctx context.Context, sid string) (accounts.Account, error) {
	return RunFinalizeRegistration(ctx, sid, s.deps.Registration)
}

func (s Service) RegistrationStatus(ctx context.Context, sid string) (Status, error) {
	return RunRegistrationStatus(ctx, sid, s.deps.Registration)
}

func (s Service) ClearRegistration(ctx context.Context, sid string) error {
	return RunClearRegistration(ctx, sid, s.deps.Registration)
}

func (s Service) Login(ctx context.Context, email, password string) (accounts.Account, error) {
	return RunLogin(ctx, email, password, s.deps.Login)
}
