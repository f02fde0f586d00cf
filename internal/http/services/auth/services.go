// Package auth contiene los services de autenticación.
package auth

import (
	"time"

	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

// Deps contiene las dependencias compartidas de los services auth.
type Deps struct {
	Repo  core.Repository
	Codec *jwtx.Codec
	// TOTPIssuer es el nombre mostrado en la app autenticadora.
	TOTPIssuer string
	// Now permite inyectar el reloj en tests. nil = time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Register RegisterService
	Login    LoginService
	Refresh  RefreshService
	MFA      MFATOTPService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	guard := newReplayGuard()
	return Services{
		Register: NewRegisterService(d),
		Login:    NewLoginService(d),
		Refresh:  NewRefreshService(d),
		MFA:      NewMFATOTPService(d, guard),
	}
}
