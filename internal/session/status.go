package session

import (
	"fmt"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
)

// Kind is the state an AuthStatus is in
type Kind int

const (
	// KindUnknown means no notification arrived since subscribing
	KindUnknown Kind = iota
	KindAuthenticated
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindAuthenticated:
		return "authenticated"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is the derived authentication status. The zero value is Unknown.
type Status struct {
	kind    Kind
	session *models.Session
}

// UnknownStatus is the status before the provider's first notification
func UnknownStatus() Status {
	return Status{}
}

// AuthenticatedStatus wraps the provider's current session
func AuthenticatedStatus(s *models.Session) Status {
	return Status{kind: KindAuthenticated, session: s}
}

func UnauthenticatedStatus() Status {
	return Status{kind: KindUnauthenticated}
}

// FromSession maps a provider notification to a Status: nil is Unauthenticated
func FromSession(s *models.Session) Status {
	if s == nil {
		return UnauthenticatedStatus()
	}
	return AuthenticatedStatus(s)
}

func (s Status) Kind() Kind {
	return s.kind
}

// Session returns the session of an Authenticated status, nil otherwise
func (s Status) Session() *models.Session {
	return s.session
}

func (s Status) IsAuthenticated() bool {
	return s.kind == KindAuthenticated
}

func (s Status) String() string {
	if s.kind == KindAuthenticated && s.session != nil {
		return fmt.Sprintf("%s(%s)", s.kind, s.session.Email)
	}
	return s.kind.String()
}
