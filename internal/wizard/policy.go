package wizard

import (
	"fmt"
	"time"
)

// SaveValidation selects how strictly Save & Exit checks its input.
type SaveValidation string

const (
	SaveLenient SaveValidation = "lenient"
	SaveStrict  SaveValidation = "strict"
)

// TriggerMethodPolicy selects who decides how emergency forwarding is triggered.
type TriggerMethodPolicy string

const (
	TriggerUserChoice    TriggerMethodPolicy = "user_choice"
	TriggerFixedPoundKey TriggerMethodPolicy = "fixed_pound_key"
)

const DefaultSubmitRedirectDelay = 2 * time.Second

type Policy struct {
	SaveValidation      SaveValidation
	TriggerMethod       TriggerMethodPolicy
	SubmitRedirectDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SaveValidation:      SaveLenient,
		TriggerMethod:       TriggerUserChoice,
		SubmitRedirectDelay: DefaultSubmitRedirectDelay,
	}
}

func (policy Policy) Validate() error {
	switch policy.SaveValidation {
	case SaveLenient, SaveStrict:
	default:
		return fmt.Errorf("unknown save validation policy %q", policy.SaveValidation)
	}
	switch policy.TriggerMethod {
	case TriggerUserChoice, TriggerFixedPoundKey:
	default:
		return fmt.Errorf("unknown trigger method policy %q", policy.TriggerMethod)
	}
	if policy.SubmitRedirectDelay < 0 {
		return fmt.Errorf("submit redirect delay must not be negative")
	}
	return nil
}

func (policy Policy) UserChoosesTrigger() bool {
	return policy.TriggerMethod == TriggerUserChoice
}
