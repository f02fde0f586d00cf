package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarouaBoud/Dynastia/internal/client/api"
	"github.com/MarouaBoud/Dynastia/internal/client/biometric"
	"github.com/MarouaBoud/Dynastia/internal/client/securestore"
)

const (
	goodPassword = "password-ok"
	goodCode     = "123456"
	twoFAEmail   = "2fa@example.com"
)

// stubAuthServer simula el backend con dos cuentas fijas: una directa y
// una con segundo factor. El refresh siempre falla (las pruebas que lo
// necesitan exitoso viven en el paquete api).
func stubAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	writeErr := func(w http.ResponseWriter, status int, code string) {
		writeJSON(w, status, map[string]any{"error": map[string]any{"code": code, "message": code}})
	}
	sessionBody := func(userID, email string) map[string]any {
		return map[string]any{
			"accessToken":  "acc-" + userID,
			"refreshToken": "ref-" + userID,
			"user":         map[string]any{"id": userID, "email": email},
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch {
		case in.Email == twoFAEmail && in.Password == goodPassword:
			writeJSON(w, http.StatusOK, map[string]any{"requires2FA": true, "userId": "u-2fa"})
		case in.Password == goodPassword:
			writeJSON(w, http.StatusOK, sessionBody("u-1", in.Email))
		default:
			writeErr(w, http.StatusUnauthorized, "invalid_credentials")
		}
	})
	mux.HandleFunc("/auth/2fa/verify", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			UserID string `json:"userId"`
			Token  string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Token == goodCode {
			writeJSON(w, http.StatusOK, sessionBody(in.UserID, twoFAEmail))
			return
		}
		writeErr(w, http.StatusUnauthorized, "invalid_code")
	})
	mux.HandleFunc("/auth/2fa/enable", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "token_expired")
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "invalid_token")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// startMachine arranca la máquina suscripta desde el estado inicial, así
// ninguna transición temprana se pierde.
func startMachine(t *testing.T, store securestore.Store, device biometric.Device, serverURL string) (*Machine, <-chan Snapshot) {
	t.Helper()
	m := New(Config{ServerURL: serverURL, Store: store, Device: device})
	ch := m.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Run(ctx)
	return m, ch
}

// waitSnap consume fotos hasta que una cumple el predicado.
func waitSnap(t *testing.T, ch <-chan Snapshot, desc string, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-ch:
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timeout esperando %s", desc)
		}
	}
}

func waitState(t *testing.T, ch <-chan Snapshot, want State) Snapshot {
	t.Helper()
	return waitSnap(t, ch, string(want), func(s Snapshot) bool { return s.State == want })
}

func cachedSession() securestore.Session {
	return securestore.Session{
		AccessToken:  "acc-cached",
		RefreshToken: "ref-cached",
		UserID:       "u-1",
		Email:        "ana@example.com",
	}
}

func TestMachine_RestoreWithoutSession(t *testing.T) {
	t.Parallel()
	_, ch := startMachine(t, securestore.NewMemory(), nil, "http://unused.invalid")

	snap := waitState(t, ch, StateCredentialsForm)
	if snap.UserID != "" || snap.Err != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMachine_RestoreIsOptimistic(t *testing.T) {
	t.Parallel()
	store := securestore.NewMemory()
	if err := store.SaveSession(cachedSession()); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}

	// Sin ida al servidor: la URL no existe y la restauración igual entra.
	_, ch := startMachine(t, store, nil, "http://unused.invalid")

	snap := waitState(t, ch, StateAuthenticated)
	if snap.UserID != "u-1" || snap.Email != "ana@example.com" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMachine_RestoreBiometricGate(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, consent bool) securestore.Store {
		store := securestore.NewMemory()
		if err := store.SaveSession(cachedSession()); err != nil {
			t.Fatalf("SaveSession err: %v", err)
		}
		if consent {
			if err := store.SetBiometricEnabled("u-1", true); err != nil {
				t.Fatalf("SetBiometricEnabled err: %v", err)
			}
		}
		return store
	}

	t.Run("challenge aprobado restaura", func(t *testing.T) {
		t.Parallel()
		device := biometric.StaticDevice{Hardware: true, Enrollment: true, Approve: true}
		_, ch := startMachine(t, seed(t, true), device, "http://unused.invalid")
		waitState(t, ch, StateAuthenticated)
	})

	t.Run("challenge rechazado cae al formulario sin borrar la sesión", func(t *testing.T) {
		t.Parallel()
		store := seed(t, true)
		device := biometric.StaticDevice{Hardware: true, Enrollment: true, Approve: false}
		_, ch := startMachine(t, store, device, "http://unused.invalid")

		waitState(t, ch, StateCredentialsForm)
		if s, _ := store.LoadSession(); s == nil {
			t.Fatal("la sesión cacheada debe sobrevivir al challenge fallido")
		}
	})

	t.Run("sin consentimiento el gate no se ofrece", func(t *testing.T) {
		t.Parallel()
		// El dispositivo rechazaría, pero sin consentimiento ni se consulta.
		device := biometric.StaticDevice{Hardware: true, Enrollment: true, Approve: false}
		_, ch := startMachine(t, seed(t, false), device, "http://unused.invalid")
		waitState(t, ch, StateAuthenticated)
	})
}

func TestMachine_LoginFlow(t *testing.T) {
	t.Parallel()
	srv := stubAuthServer(t)
	store := securestore.NewMemory()
	m, ch := startMachine(t, store, nil, srv.URL)

	waitState(t, ch, StateCredentialsForm)

	// Credenciales incorrectas: el error queda en la foto, el estado no se
	// mueve del formulario.
	m.SubmitCredentials("ana@example.com", "wrong")
	snap := waitSnap(t, ch, "error de login", func(s Snapshot) bool { return s.Err != nil })
	if snap.State != StateCredentialsForm {
		t.Fatalf("expected CREDENTIALS_FORM, got %s", snap.State)
	}

	// Credenciales correctas: autentica, limpia el error y persiste.
	m.SubmitCredentials("ana@example.com", goodPassword)
	snap = waitState(t, ch, StateAuthenticated)
	if snap.Err != nil || snap.UserID != "u-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	s, err := store.LoadSession()
	if err != nil || s == nil || s.UserID != "u-1" {
		t.Fatalf("session not persisted: %+v err %v", s, err)
	}

	// Un suscriptor tardío recibe la foto actual de entrada.
	late := m.Subscribe()
	if snap := <-late; snap.State != StateAuthenticated {
		t.Fatalf("late subscriber got %s", snap.State)
	}
}

func TestMachine_SecondFactorFlow(t *testing.T) {
	t.Parallel()
	srv := stubAuthServer(t)
	store := securestore.NewMemory()
	m, ch := startMachine(t, store, nil, srv.URL)

	waitState(t, ch, StateCredentialsForm)

	m.SubmitCredentials(twoFAEmail, goodPassword)
	snap := waitState(t, ch, StateSecondFactorPending)
	if snap.PendingUserID != "u-2fa" {
		t.Fatalf("pending user mismatch: %+v", snap)
	}
	// Invariante: con el segundo factor pendiente no hay nada persistido.
	if s, _ := store.LoadSession(); s != nil {
		t.Fatalf("no session may exist before the second factor clears, got %+v", s)
	}

	// Código incorrecto: sigue pendiente con el error a la vista.
	m.SubmitSecondFactor("000000")
	snap = waitSnap(t, ch, "error de verify", func(s Snapshot) bool { return s.Err != nil })
	if snap.State != StateSecondFactorPending {
		t.Fatalf("expected SECOND_FACTOR_PENDING, got %s", snap.State)
	}

	// Código correcto: recién acá se emite y persiste la sesión.
	m.SubmitSecondFactor(goodCode)
	snap = waitState(t, ch, StateAuthenticated)
	if snap.UserID != "u-2fa" || snap.Err != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if s, _ := store.LoadSession(); s == nil || s.UserID != "u-2fa" {
		t.Fatalf("session not persisted after verify: %+v", s)
	}
}

func TestMachine_CancelSecondFactor(t *testing.T) {
	t.Parallel()
	srv := stubAuthServer(t)
	m, ch := startMachine(t, securestore.NewMemory(), nil, srv.URL)

	waitState(t, ch, StateCredentialsForm)
	m.SubmitCredentials(twoFAEmail, goodPassword)
	waitState(t, ch, StateSecondFactorPending)

	// Cancelar descarta el handshake sin tocar el servidor.
	m.CancelSecondFactor()
	waitState(t, ch, StateCredentialsForm)

	// Un código enviado después del cancel no tiene a qué aplicarse: la
	// máquina sigue viva y acepta un login normal.
	m.SubmitSecondFactor(goodCode)
	m.SubmitCredentials("ana@example.com", goodPassword)
	snap := waitState(t, ch, StateAuthenticated)
	if snap.UserID != "u-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMachine_SignOut(t *testing.T) {
	t.Parallel()
	srv := stubAuthServer(t)
	store := securestore.NewMemory()
	m, ch := startMachine(t, store, nil, srv.URL)

	waitState(t, ch, StateCredentialsForm)
	m.SubmitCredentials("ana@example.com", goodPassword)
	waitState(t, ch, StateAuthenticated)

	// El consentimiento biométrico se registra autenticado y debe
	// sobrevivir al cierre de sesión.
	if err := m.SetBiometricUnlock(true); err != nil {
		t.Fatalf("SetBiometricUnlock err: %v", err)
	}

	m.SignOut()
	snap := waitState(t, ch, StateCredentialsForm)
	if snap.Err != nil {
		t.Fatalf("explicit sign out must not carry an error: %+v", snap)
	}
	if s, _ := store.LoadSession(); s != nil {
		t.Fatalf("session must be cleared, got %+v", s)
	}
	if !store.BiometricEnabled("u-1") {
		t.Fatal("biometric consent must survive sign out")
	}
}

func TestMachine_SetBiometricUnlockRequiresAuth(t *testing.T) {
	t.Parallel()
	m, ch := startMachine(t, securestore.NewMemory(), nil, "http://unused.invalid")

	waitState(t, ch, StateCredentialsForm)
	if err := m.SetBiometricUnlock(true); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
}

func TestMachine_RefreshFailureForcesSignOut(t *testing.T) {
	t.Parallel()
	srv := stubAuthServer(t)
	store := securestore.NewMemory()
	if err := store.SaveSession(cachedSession()); err != nil {
		t.Fatalf("SaveSession err: %v", err)
	}
	m, ch := startMachine(t, store, nil, srv.URL)

	waitState(t, ch, StateAuthenticated)

	// El stub responde 401 a la llamada y al refresh: la sesión cacheada
	// ya no sirve. El transporte desloguea y la máquina cae al formulario.
	if _, err := m.API().EnableTOTP(context.Background()); !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}

	snap := waitState(t, ch, StateCredentialsForm)
	if !errors.Is(snap.Err, api.ErrSessionExpired) {
		t.Fatalf("snapshot must carry the expiry cause, got %+v", snap)
	}
	if s, _ := store.LoadSession(); s != nil {
		t.Fatalf("session must be cleared after failed refresh, got %+v", s)
	}
}
