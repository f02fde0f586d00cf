package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable indica que el servidor no respondió (error de red,
	// DNS, timeout del transporte). No dice nada sobre la sesión.
	ErrUnavailable = errors.New("api: servidor no disponible")

	// ErrSessionExpired es el error uniforme con el que fallan todas las
	// llamadas colgadas de un refresh que no pudo completarse. Quien lo
	// recibe ya fue deslogueado por el callback de sign-out.
	ErrSessionExpired = errors.New("api: la sesión expiró")
)

// Error es una respuesta de error del servidor, decodificada del envelope
// {"error":{code,message,detail}}.
type Error struct {
	Status  int
	Code    string
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s (%d): %s: %s", e.Code, e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsUnauthorized reporta si err es una respuesta 401 del servidor.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
