// Package jwt emite y valida los tokens de sesión. Dos dominios de firma
// independientes: access (corto, identifica al usuario en cada request) y
// refresh (largo, solo sirve para pedir un access nuevo). Ambos HS256 con
// secretos distintos, así un refresh jamás pasa por access ni al revés.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired: firma válida pero exp en el pasado.
	ErrTokenExpired = errors.New("token_expired")
	// ErrTokenInvalid: firma o estructura que no corresponde a este dominio.
	ErrTokenInvalid = errors.New("token_invalid")
	// ErrVerification: cualquier otro fallo de decodificación.
	ErrVerification = errors.New("token_verification_failed")
	// ErrBadConfig: secretos ausentes o iguales. Se detecta al construir el
	// codec, nunca durante un request.
	ErrBadConfig = errors.New("jwt_bad_config")
)

// TokenPayload son las claims del access token.
type TokenPayload struct {
	UserID string
	Email  string
}

// RefreshPayload son las claims del refresh token: solo el usuario.
// Deliberadamente mínimo para reducir el daño si se filtra.
type RefreshPayload struct {
	UserID string
}

// Pair es el par emitido junto: mismo usuario, expiraciones independientes.
type Pair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Config del codec.
type Config struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration // default 15m
	RefreshTTL    time.Duration // default 168h
}

// Codec firma y valida pares access/refresh.
type Codec struct {
	iss           string
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now permite congelar el reloj en tests. nil = time.Now.
	Now func() time.Time
}

// New valida la configuración y construye el codec. Falla rápido: secretos
// vacíos o iguales son un error de arranque, no un error de request.
func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("%w: access secret vacío", ErrBadConfig)
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: refresh secret vacío", ErrBadConfig)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access y refresh comparten secreto", ErrBadConfig)
	}
	c := &Codec{
		iss:           cfg.Issuer,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
	return c, nil
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Issue emite el par para un usuario.
func (c *Codec) Issue(userID, email string) (Pair, error) {
	now := c.now().UTC()
	accessExp := now.Add(c.AccessTTL)
	refreshExp := now.Add(c.RefreshTTL)

	access, err := c.sign(jwtv5.MapClaims{
		"iss":   c.iss,
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   accessExp.Unix(),
	}, c.accessSecret)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := c.sign(jwtv5.MapClaims{
		"iss": c.iss,
		"sub": userID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": refreshExp.Unix(),
	}, c.refreshSecret)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess emite solo un access token nuevo. Es el camino del refresh:
// el refresh token presentado se conserva tal cual, no se rota.
func (c *Codec) IssueAccess(userID, email string) (string, time.Time, error) {
	now := c.now().UTC()
	exp := now.Add(c.AccessTTL)
	signed, err := c.sign(jwtv5.MapClaims{
		"iss":   c.iss,
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}, c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess valida firma y vigencia contra el dominio access.
func (c *Codec) VerifyAccess(token string) (TokenPayload, error) {
	claims, err := c.parse(token, c.accessSecret)
	if err != nil {
		return TokenPayload{}, err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return TokenPayload{}, ErrTokenInvalid
	}
	email, _ := claims["email"].(string)
	return TokenPayload{UserID: sub, Email: email}, nil
}

// VerifyRefresh valida firma y vigencia contra el dominio refresh.
func (c *Codec) VerifyRefresh(token string) (RefreshPayload, error) {
	claims, err := c.parse(token, c.refreshSecret)
	if err != nil {
		return RefreshPayload{}, err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return RefreshPayload{}, ErrTokenInvalid
	}
	return RefreshPayload{UserID: sub}, nil
}

// DecodeUnverified devuelve las claims SIN validar firma ni vigencia.
// Solo para debugging y tooling; jamás para autorizar.
func DecodeUnverified(token string) (map[string]any, error) {
	var claims jwtv5.MapClaims
	if _, _, err := jwtv5.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}

func (c *Codec) sign(claims jwtv5.MapClaims, secret []byte) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(secret)
}

// parse valida con el secreto del dominio y clasifica el error en las tres
// variantes del paquete.
func (c *Codec) parse(token string, secret []byte) (jwtv5.MapClaims, error) {
	tok, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(c.iss),
		jwtv5.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwtv5.ErrTokenSignatureInvalid),
			errors.Is(err, jwtv5.ErrTokenMalformed),
			errors.Is(err, jwtv5.ErrTokenNotValidYet),
			errors.Is(err, jwtv5.ErrTokenInvalidIssuer):
			return nil, ErrTokenInvalid
		default:
			return nil, ErrVerification
		}
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrVerification
	}
	return claims, nil
}
