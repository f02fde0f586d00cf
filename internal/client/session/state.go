// Package session implementa la máquina de estados de sesión del cliente:
// cómo se pasa de "sin autenticar" a "autenticado", con el segundo factor
// y el gate biométrico intercalados en el camino.
package session

// State es el estado visible de la sesión del cliente.
type State string

const (
	// StateLoading es el estado inicial: se está leyendo la sesión
	// cacheada del almacenamiento seguro. Nadie vuelve a LOADING.
	StateLoading State = "LOADING"

	// StateCredentialsForm espera email+password del usuario.
	StateCredentialsForm State = "CREDENTIALS_FORM"

	// StateSecondFactorPending espera el código TOTP: el login pasó pero
	// el servidor no emitió tokens todavía.
	StateSecondFactorPending State = "SECOND_FACTOR_PENDING"

	// StateAuthenticated tiene una sesión utilizable (cacheada o recién
	// emitida).
	StateAuthenticated State = "AUTHENTICATED"
)

// Unauthenticated reporta si el estado es alguna de las dos caras de "sin
// sesión utilizable": el formulario de credenciales o el segundo factor
// pendiente.
func (s State) Unauthenticated() bool {
	return s == StateCredentialsForm || s == StateSecondFactorPending
}

// Snapshot es una foto inmutable del estado, publicada a los suscriptores
// en cada transición.
//
// PendingUserID solo tiene valor en SECOND_FACTOR_PENDING y nunca se
// persiste: matar el proceso descarta el handshake a medias. Err trae el
// último error de login/verify para que la UI lo muestre; una transición
// exitosa lo limpia.
type Snapshot struct {
	State         State
	UserID        string
	Email         string
	PendingUserID string
	Err           error
}
