package auth

import (
	"time"

	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

// Session es el resultado interno de una autenticación completa:
// el par de tokens más el usuario al que pertenecen.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             *core.User
}

// issueSession emite el par de tokens para el usuario.
// Es el ÚNICO punto donde se emiten tokens: login directo, signup y
// la verificación del segundo factor pasan por acá.
func issueSession(codec *jwtx.Codec, u *core.User) (*Session, error) {
	pair, err := codec.Issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:      pair.Access,
		RefreshToken:     pair.Refresh,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             u,
	}, nil
}
