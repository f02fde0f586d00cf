// Package api es el transporte HTTP del cliente: métodos tipados sobre los
// endpoints de auth, con manejo transparente de expiración del access token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
)

// TokenSource provee los tokens de la sesión actual y recibe el access
// token renovado. La implementación típica lee del securestore.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	UpdateAccess(token string)
}

// Config arma un Client.
type Config struct {
	// BaseURL del servidor, ej. http://localhost:8080
	BaseURL string
	// HTTP opcional; por defecto un client con timeout de 30s.
	HTTP *http.Client
	// Tokens es requerido para las llamadas autenticadas.
	Tokens TokenSource
	// OnSignOut se invoca (una vez por refresh fallido) cuando la sesión
	// ya no puede renovarse. Típicamente limpia el store y fuerza el
	// formulario de credenciales.
	OnSignOut func()
}

// Client habla con el servidor de auth.
//
// En cualquier llamada autenticada, un 401 dispara exactamente un intento
// de refresh: las llamadas concurrentes se cuelgan del mismo vuelo
// (singleflight) y todas retoman con el token nuevo, o fallan todas con
// ErrSessionExpired si el refresh no salió.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	onSignOut func()

	refresh singleflight.Group
}

func New(cfg Config) *Client {
	httpc := cfg.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpc,
		tokens:    cfg.Tokens,
		onSignOut: cfg.OnSignOut,
	}
}

// LoginOutcome es el resultado de un login: o una sesión emitida directo,
// o el marcador de segundo factor pendiente. Exactamente uno es no-nil.
type LoginOutcome struct {
	Session      *dto.SessionResponse
	SecondFactor *dto.SecondFactorResponse
}

// Signup registra una cuenta nueva. El servidor emite la sesión completa.
func (c *Client) Signup(ctx context.Context, email, password string) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	in := dto.SignupRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login autentica por password. Con 2FA habilitado el servidor no emite
// tokens: responde el userId pendiente y el flujo sigue por
// VerifySecondFactor.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginOutcome, error) {
	// Unión de las dos formas posibles del 200.
	var reply struct {
		dto.SessionResponse
		Requires2FA bool   `json:"requires2FA"`
		UserID      string `json:"userId"`
	}
	in := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", in, &reply); err != nil {
		return nil, err
	}
	if reply.Requires2FA {
		return &LoginOutcome{
			SecondFactor: &dto.SecondFactorResponse{Requires2FA: true, UserID: reply.UserID},
		}, nil
	}
	return &LoginOutcome{Session: &reply.SessionResponse}, nil
}

// VerifySecondFactor completa el handshake 2FA con el código TOTP.
// No requiere token: la identidad viene del userId pendiente.
func (c *Client) VerifySecondFactor(ctx context.Context, userID, code string) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	in := dto.VerifyTOTPRequest{UserID: userID, Token: code}
	if err := c.do(ctx, http.MethodPost, "/auth/2fa/verify", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh canjea el refresh token por un access token nuevo. Llamada
// directa, sin coalescing: el camino automático es refreshAccess.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	var out dto.RefreshResponse
	in := dto.RefreshRequest{RefreshToken: refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnableTOTP enrola el segundo factor para el usuario autenticado.
func (c *Client) EnableTOTP(ctx context.Context) (*dto.EnableTOTPResponse, error) {
	var out dto.EnableTOTPResponse
	if err := c.doAuthed(ctx, http.MethodPost, "/auth/2fa/enable", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableTOTP apaga el segundo factor para el usuario autenticado.
func (c *Client) DisableTOTP(ctx context.Context) (*dto.DisableTOTPResponse, error) {
	var out dto.DisableTOTPResponse
	if err := c.doAuthed(ctx, http.MethodPost, "/auth/2fa/disable", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Helpers ───

// doAuthed ejecuta una llamada con bearer token y reintenta UNA vez tras
// renovar el access token si el servidor respondió 401. El segundo 401
// consecutivo ya no se reintenta: sube como error.
func (c *Client) doAuthed(ctx context.Context, method, path string, in, out any) error {
	if c.tokens == nil {
		return errors.New("api: cliente sin TokenSource, no puede autenticar")
	}
	err := c.do(ctx, method, path, c.tokens.AccessToken(), in, out)
	if !IsUnauthorized(err) {
		return err
	}
	access, err := c.refreshAccess(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, access, in, out)
}

// refreshAccess renueva el access token coalesciendo llamadas concurrentes:
// N llamadas con el token vencido producen una sola llamada de red, y todas
// reciben el mismo resultado. Un refresh fallido desloguea (callback) y
// falla a todos los colgados con ErrSessionExpired.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refreshToken := c.tokens.RefreshToken()
		if refreshToken == "" {
			c.signOut()
			return nil, ErrSessionExpired
		}
		res, err := c.Refresh(ctx, refreshToken)
		if err != nil {
			c.signOut()
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		c.tokens.UpdateAccess(res.AccessToken)
		return res.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) signOut() {
	if c.onSignOut != nil {
		c.onSignOut()
	}
}

// do arma y ejecuta una request JSON. token vacío = sin Authorization.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: serializando request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: armando request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: leyendo respuesta: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("api: parseando respuesta (%d): %w", resp.StatusCode, err)
		}
	}
	return nil
}

// decodeError levanta el envelope {"error":{...}} del servidor. Si el body
// no tiene esa forma (proxy intermedio, HTML de error), conserva el status
// y un recorte del body como mensaje.
func decodeError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Detail  string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		return &Error{
			Status:  status,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Detail:  envelope.Error.Detail,
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &Error{Status: status, Code: "unexpected_response", Message: msg}
}
