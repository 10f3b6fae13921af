package authclient

import (
	"net/http"
)

// Kind is the terminal state of one request.
type Kind int

const (
	Succeeded Kind = iota
	FailedOther
	FailedAuth
	FailedNetwork
)

func (k Kind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case FailedOther:
		return "failed_other"
	case FailedAuth:
		return "failed_auth"
	case FailedNetwork:
		return "failed_network"
	default:
		return "unknown"
	}
}

// Effect is the side effect a classified outcome asks for.
type Effect int

const (
	EffectNone Effect = iota
	EffectInvalidateSession
)

// Outcome is the classification of a response together with the effect it
// requires. Classifying never performs the effect.
type Outcome struct {
	Kind       Kind
	StatusCode int
	Err        error
	Effect     Effect
}

// Classify inspects the result of one round trip. Only a response with status
// exactly 401 asks for the session to be invalidated.
func Classify(resp *http.Response, err error) Outcome {
	if err != nil {
		return Outcome{Kind: FailedNetwork, Err: err}
	}
	if resp == nil {
		return Outcome{Kind: FailedNetwork}
	}

	o := Outcome{StatusCode: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		o.Kind = FailedAuth
		o.Effect = EffectInvalidateSession
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		o.Kind = Succeeded
	default:
		o.Kind = FailedOther
	}
	return o
}
