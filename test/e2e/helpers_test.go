package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

/* ============================================================================
   Tipos de wire compartidos por los escenarios
============================================================================ */

// errorEnvelope espeja el sobre de error del server: {"error": {...}}.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

// sessionPayload espeja la respuesta de sesión (signup, login directo y
// 2fa/verify).
type sessionPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID               string `json:"id"`
		Email            string `json:"email"`
		TwoFactorEnabled bool   `json:"twoFactorEnabled"`
	} `json:"user"`
}

// loginPayload acepta la unión del login: o la sesión directa o el marcador
// de segundo factor pendiente. Decodificar en un solo struct permite afirmar
// que los campos del otro brazo vienen VACÍOS.
type loginPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Requires2FA  bool   `json:"requires2FA"`
	UserID       string `json:"userId"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

/* ============================================================================
   HTTP utils
============================================================================ */

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// postJSON hace POST con body JSON y bearer opcional. url es la URL completa
// (los tests que levantan su propio server pasan otra base). El caller es
// dueño de resp.Body.
func postJSON(t *testing.T, c *http.Client, url, bearer string, in any) *http.Response {
	t.Helper()
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// decodeBody decodifica el JSON de respuesta y cierra el body.
func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decodificando respuesta: %v", err)
	}
}

// wantStatus falla con el body a la vista si el status no es el esperado.
// No cierra el body cuando el status coincide.
func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, want, b)
	}
}

// wantErrorCode verifica status + code del sobre de error y cierra el body.
func wantErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != status {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, status, b)
	}
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decodificando sobre de error: %v", err)
	}
	if env.Error.Code != code {
		t.Fatalf("code=%q want=%q (detail=%q)", env.Error.Code, code, env.Error.Detail)
	}
}

// uniqueEmail genera un email que ningún otro escenario pudo haber
// registrado en el mismo run.
func uniqueEmail(tag string) string {
	return fmt.Sprintf("%s-%d@e2e.local", tag, time.Now().UnixNano())
}

// signupUser registra un usuario nuevo contra el server compartido y
// retorna la sesión emitida.
func signupUser(t *testing.T, c *http.Client, email, password string) sessionPayload {
	t.Helper()
	resp := postJSON(t, c, baseURL+"/auth/signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	wantStatus(t, resp, http.StatusCreated)
	var s sessionPayload
	decodeBody(t, resp, &s)
	if s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatalf("signup sin tokens: %+v", s)
	}
	return s
}
