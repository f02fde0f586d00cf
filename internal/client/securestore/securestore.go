// Package securestore persiste el estado local del dispositivo: la sesión
// cacheada (par de tokens + identidad) y la habilitación de desbloqueo
// biométrico por usuario. Es almacenamiento opaco para el resto del cliente:
// nadie más toca disco ni decide formato.
package securestore

// Session es la sesión cacheada en el dispositivo. Se crea al completar un
// login (directo o tras el segundo factor), se reescribe en cada refresh de
// access token y se destruye al cerrar sesión.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
}

// Store abstrae la persistencia local del cliente.
//
// LoadSession retorna (nil, nil) cuando no hay sesión guardada: la ausencia
// es un estado normal, no un error. La habilitación biométrica se guarda por
// usuario y sobrevive al cierre de sesión (cerrar sesión borra la sesión,
// no el consentimiento).
type Store interface {
	LoadSession() (*Session, error)
	SaveSession(s Session) error
	ClearSession() error

	// BiometricEnabled trata cualquier falla de lectura como "no habilitado":
	// el peor caso es pedir credenciales de nuevo.
	BiometricEnabled(userID string) bool
	SetBiometricEnabled(userID string, enabled bool) error
}
