package session

import "github.com/MarouaBoud/Dynastia/internal/client/securestore"

// Los eventos son el único mecanismo de transición: los métodos públicos
// los despachan al canal y una sola goroutine (Run) los aplica en orden.

type event interface{ event() }

// Pedidos del usuario.

type credentialsSubmitted struct {
	email    string
	password string
}

type codeSubmitted struct {
	code string
}

type secondFactorCanceled struct{}

// signedOut cubre tanto el cierre de sesión explícito (cause nil) como el
// forzado por un refresh fallido (cause ErrSessionExpired).
type signedOut struct {
	cause error
}

type biometricToggled struct {
	enabled bool
	reply   chan error
}

// Resultados de red, despachados por las goroutines de llamada.

type loginSucceeded struct {
	session securestore.Session
}

type loginPending struct {
	userID string
}

type loginFailed struct {
	err error
}

type verifySucceeded struct {
	session securestore.Session
}

type verifyFailed struct {
	err error
}

func (credentialsSubmitted) event() {}
func (codeSubmitted) event()        {}
func (secondFactorCanceled) event() {}
func (signedOut) event()            {}
func (biometricToggled) event()     {}
func (loginSucceeded) event()       {}
func (loginPending) event()         {}
func (loginFailed) event()          {}
func (verifySucceeded) event()      {}
func (verifyFailed) event()         {}
