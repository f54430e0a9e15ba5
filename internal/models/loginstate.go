package models

// LoginStatus enumerates the session states.
type LoginStatus int

const (
	// StatusLoading is the initial state: the stored credential, if any,
	// has not been recovered and validated yet.
	StatusLoading LoginStatus = iota

	// StatusLoggedOut means no valid credential is held.
	StatusLoggedOut

	// StatusLoggedIn means a validated credential is held.
	StatusLoggedIn

	// StatusDisconnected means a credential exists but could not be
	// validated due to a network or server failure. Distinct from
	// LoggedOut: the credential is not necessarily invalid, just
	// unconfirmed.
	StatusDisconnected
)

func (s LoginStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoggedOut:
		return "logged out"
	case StatusLoggedIn:
		return "logged in"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// LoginState is the single source of truth for the session. Exactly one
// state holds at any time; only the session manager produces new values.
// Credential is set for StatusLoggedIn and StatusDisconnected.
type LoginState struct {
	Status     LoginStatus
	Credential string
}

func Loading() LoginState { return LoginState{Status: StatusLoading} }

func LoggedOut() LoginState { return LoginState{Status: StatusLoggedOut} }

func LoggedIn(credential string) LoginState {
	return LoginState{Status: StatusLoggedIn, Credential: credential}
}

func Disconnected(credential string) LoginState {
	return LoginState{Status: StatusDisconnected, Credential: credential}
}
