package auth

import (
	"encoding/json"

	"github.com/ariefcatur/go-restaurant-orders/internal/identity"
)

type Kind int

const (
	// KindLoading is the zero value: the admin check has not finished yet.
	KindLoading Kind = iota
	KindGuest
	KindLegacyAdmin
	KindAuthenticated
)

func (k Kind) String() string {
	switch k {
	case KindGuest:
		return "guest"
	case KindLegacyAdmin:
		return "legacy_admin"
	case KindAuthenticated:
		return "authenticated"
	default:
		return "loading"
	}
}

// State is the resolved caller. User is set only for KindAuthenticated.
type State struct {
	Kind  Kind
	User  *identity.User
	Admin bool
}

func Loading() State     { return State{Kind: KindLoading} }
func Guest() State       { return State{Kind: KindGuest} }
func LegacyAdmin() State { return State{Kind: KindLegacyAdmin} }

func Authenticated(u identity.User, admin bool) State {
	return State{Kind: KindAuthenticated, User: &u, Admin: admin}
}

func (s State) Resolved() bool { return s.Kind != KindLoading }

func (s State) IsAdmin() bool {
	return s.Kind == KindLegacyAdmin || (s.Kind == KindAuthenticated && s.Admin)
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		State   string         `json:"state"`
		Loading bool           `json:"loading"`
		IsAdmin bool           `json:"is_admin"`
		User    *identity.User `json:"user"`
	}{
		State:   s.Kind.String(),
		Loading: !s.Resolved(),
		IsAdmin: s.IsAdmin(),
		User:    s.User,
	})
}
