package sessions

import (
	"encoding/json"

	"github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/internal/utils"
	"github.com/jrsteele09/go-session-gateway/users"
)

// DefaultKey is the well-known name the persisted session record is stored under.
const DefaultKey = "auth-storage"

// Record is the persisted session as it is stored:
//
//	{"state":{"token":"abc123","user":{"id":"u-1","role":"employer"}},"version":0}
type Record struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// State holds the optional bearer credential and the identity it belongs to.
type State struct {
	Token *string         `json:"token,omitempty"`
	User  *users.Identity `json:"user,omitempty"`
}

// Token returns the bearer credential, ok is false when it is absent or empty.
func (r Record) Token() (string, bool) {
	token := utils.Value(r.State.Token)
	return token, token != ""
}

func (r Record) Identity() (users.Identity, bool) {
	if r.State.User == nil {
		return users.Identity{}, false
	}
	return *r.State.User, true
}

func NewRecord(token string, identity *users.Identity) Record {
	return Record{State: State{Token: utils.Ptr(token), User: identity}}
}

// Decode parses a persisted record. Anything that is not a JSON object with the
// record shape is reported as ErrMalformedSession.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, errors.Wrapf(errors.ErrMalformedSession, "sessions.Decode: %v", err)
	}
	return r, nil
}

func Encode(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrapf(err, "sessions.Encode")
	}
	return data, nil
}
