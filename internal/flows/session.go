package flows

import "time"

// Step is the registration state discriminant.
type Step string

const (
	StepEmail             Step = "email"
	StepCodeSent          Step = "code_sent"
	StepCodeVerified      Step = "code_verified"
	StepPasswordSet       Step = "password_set"
	StepPhraseShown       Step = "phrase_shown"
	StepPhrasePromptReady Step = "phrase_prompt_ready"
	StepPhraseVerified    Step = "phrase_verified"
	StepCompleted         Step = "completed"
)

// Known reports whether s is one of the defined steps.
func (s Step) Known() bool {
	switch s {
	case StepEmail, StepCodeSent, StepCodeVerified, StepPasswordSet,
		StepPhraseShown, StepPhrasePromptReady, StepPhraseVerified, StepCompleted:
		return true
	}
	return false
}

var stepOrder = map[Step]int{
	StepEmail:             0,
	StepCodeSent:          1,
	StepCodeVerified:      2,
	StepPasswordSet:       3,
	StepPhraseShown:       4,
	StepPhrasePromptReady: 5,
	StepPhraseVerified:    6,
	StepCompleted:         7,
}

// Past reports whether s lies strictly beyond other in the wizard order.
func (s Step) Past(other Step) bool {
	a, okA := stepOrder[s]
	b, okB := stepOrder[other]
	return okA && okB && a > b
}

// Carrier key layout for one registration attempt. The record key holds
// the whole Session; the phrase lives under its own key so it can be
// discarded the moment the challenge passes.
const (
	sessionKeyPrefix = "reg:"
	phraseKeySuffix  = ":seedPhrase"
)

// SessionKey returns the carrier key of the session record. The sid is a
// Redis Cluster hash tag so both keys of a session land in one slot.
func SessionKey(sid string) string { return sessionKeyPrefix + "{" + sid + "}" }

// PhraseKey returns the carrier key of the pending phrase.
func PhraseKey(sid string) string { return SessionKey(sid) + phraseKeySuffix }

// Session is the single registration record. JSON names follow the
// historical client-side key names.
type Session struct {
	ID             string    `json:"-"`
	Email          string    `json:"authEmail"`
	OTPVerified    bool      `json:"otpVerified"`
	PasswordEmail  string    `json:"tempEmail,omitempty"`
	PasswordHash   string    `json:"tempPassword,omitempty"`
	PhraseVerified bool      `json:"seedPhraseVerified"`
	Step           Step      `json:"registrationStep"`
	Challenge      []int     `json:"challenge,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Status is the caller-visible view of a registration.
type Status struct {
	SessionID string
	Step      Step
	Email     string
	Words     []string
	Positions []int
}

func (s Session) status() Status {
	return Status{
		SessionID: s.ID,
		Step:      s.Step,
		Email:     s.Email,
		Positions: append([]int(nil), s.Challenge...),
	}
}
