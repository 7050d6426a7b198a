package provision

import (
	"github.com/MrEthical07/provision/internal/accounts"
	"github.com/MrEthical07/provision/internal/flows"
	"github.com/MrEthical07/provision/internal/mail"
	"github.com/MrEthical07/provision/internal/phrase"
)

// RegistrationStep is the registration state discriminant.
type RegistrationStep = flows.Step

const (
	StepEmail             = flows.StepEmail
	StepCodeSent          = flows.StepCodeSent
	StepCodeVerified      = flows.StepCodeVerified
	StepPasswordSet       = flows.StepPasswordSet
	StepPhraseShown       = flows.StepPhraseShown
	StepPhrasePromptReady = flows.StepPhrasePromptReady
	StepPhraseVerified    = flows.StepPhraseVerified
	StepCompleted         = flows.StepCompleted
)

// RegistrationStatus is returned by every registration operation. Ticket is
// the signed session handle the client presents on the next call; Words
// is set only while the phrase is being shown and Positions only while a
// recall challenge is pending.
type RegistrationStatus struct {
	Ticket    string           `json:"ticket,omitempty"`
	Step      RegistrationStep `json:"step"`
	Email     string           `json:"email,omitempty"`
	Words     []string         `json:"words,omitempty"`
	Positions []int            `json:"positions,omitempty"`
}

// PhraseAnswer is one word supplied for a 1-based phrase position.
type PhraseAnswer = phrase.Answer

// Account is the durable account document.
type Account = accounts.Account

// AccountStore persists Account documents keyed by email.
type AccountStore = accounts.Store

// MailTransport is one outbound mail route.
type MailTransport = mail.Transport

// MailMessage is a rendered outgoing message.
type MailMessage = mail.Message

// ProbeResult reports one transport's reachability.
type ProbeResult = mail.ProbeResult

// MailProbe is the result of ProbeMail. OK is true when at least one
// transport is reachable.
type MailProbe struct {
	OK      bool          `json:"ok"`
	Results []ProbeResult `json:"results"`
	Host    string        `json:"host"`
	User    string        `json:"user"`
	Sender  string        `json:"sender"`
}
