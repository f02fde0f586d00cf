package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/MarouaBoud/Dynastia/internal/client/api"
	"github.com/MarouaBoud/Dynastia/internal/client/biometric"
	"github.com/MarouaBoud/Dynastia/internal/client/securestore"
	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
)

var (
	// ErrNotAuthenticated indica una operación que requiere sesión activa.
	ErrNotAuthenticated = errors.New("session: requiere estado AUTHENTICATED")

	// ErrStopped indica que Run ya terminó y la máquina no procesa eventos.
	ErrStopped = errors.New("session: la máquina está detenida")
)

// Config arma una Machine.
type Config struct {
	// ServerURL del backend de auth.
	ServerURL string
	// HTTP opcional, se pasa al transporte API.
	HTTP *http.Client
	// Store es el almacenamiento seguro del dispositivo. Requerido.
	Store securestore.Store
	// Device es el sensor biométrico; nil = sin hardware (el gate nunca
	// se ofrece).
	Device biometric.Device
}

// Machine es la máquina de estados de sesión del cliente.
//
// Todas las transiciones pasan por un canal de eventos consumido por una
// sola goroutine (Run): no hay estado compartido mutable fuera de ella.
// Las llamadas de red corren en goroutines propias y reportan su resultado
// como eventos, así un cancel del usuario nunca queda bloqueado detrás de
// un login lento.
type Machine struct {
	api   *api.Client
	store securestore.Store
	gate  *biometric.Gate

	events chan event
	done   chan struct{}

	mu   sync.RWMutex
	snap Snapshot
	subs []chan Snapshot
}

// New construye la máquina en estado LOADING. Las transiciones empiezan
// recién cuando Run arranca.
func New(cfg Config) *Machine {
	m := &Machine{
		store:  cfg.Store,
		events: make(chan event, 16),
		done:   make(chan struct{}),
		snap:   Snapshot{State: StateLoading},
	}
	device := cfg.Device
	if device == nil {
		device = biometric.None()
	}
	m.gate = biometric.NewGate(cfg.Store, device)
	m.api = api.New(api.Config{
		BaseURL: cfg.ServerURL,
		HTTP:    cfg.HTTP,
		Tokens:  securestore.TokenSource{Store: cfg.Store},
		// Un refresh que no pudo completarse desloguea: se limpia el
		// store y se vuelve al formulario.
		OnSignOut: func() { m.dispatch(signedOut{cause: api.ErrSessionExpired}) },
	})
	return m
}

// Run resuelve LOADING y después procesa eventos hasta que ctx se cancela.
// Los métodos de la máquina requieren que Run esté corriendo.
func (m *Machine) Run(ctx context.Context) {
	defer close(m.done)
	m.restore(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.handle(ctx, ev)
		}
	}
}

// Current retorna la última foto del estado.
func (m *Machine) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Subscribe registra un suscriptor y le entrega de entrada la foto actual.
// Un suscriptor atrasado pierde fotos intermedias, nunca la última.
func (m *Machine) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 8)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	snap := m.snap
	m.mu.Unlock()
	ch <- snap
	return ch
}

// API expone el transporte para llamadas autenticadas que no transicionan
// estado (habilitar/deshabilitar TOTP). Comparte el coalescing de refresh
// y el sign-out forzado con el resto de la máquina.
func (m *Machine) API() *api.Client { return m.api }

// SubmitCredentials dispara un login con email+password. Solo tiene efecto
// en CREDENTIALS_FORM.
func (m *Machine) SubmitCredentials(email, password string) {
	m.dispatch(credentialsSubmitted{email: email, password: password})
}

// SubmitSecondFactor envía el código TOTP del handshake pendiente.
func (m *Machine) SubmitSecondFactor(code string) {
	m.dispatch(codeSubmitted{code: code})
}

// CancelSecondFactor descarta el handshake pendiente y vuelve al
// formulario. No hay llamada al servidor: el estado pendiente es solo
// del cliente.
func (m *Machine) CancelSecondFactor() {
	m.dispatch(secondFactorCanceled{})
}

// SignOut borra la sesión persistida y vuelve al formulario. Local
// solamente: no existe revocación del lado del servidor, los tokens
// emitidos siguen siendo válidos hasta vencer.
func (m *Machine) SignOut() {
	m.dispatch(signedOut{})
}

// SetBiometricUnlock registra (o retira) el consentimiento del usuario
// actual para el desbloqueo biométrico. Requiere AUTHENTICATED: no se
// puede habilitar deslogueado.
func (m *Machine) SetBiometricUnlock(enabled bool) error {
	reply := make(chan error, 1)
	if !m.dispatch(biometricToggled{enabled: enabled, reply: reply}) {
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-m.done:
		return ErrStopped
	}
}

// ─── Reducer ───

// restore resuelve LOADING leyendo la sesión cacheada. Sin ida al
// servidor: una sesión cacheada con el access token ya vencido igual
// entra como AUTHENTICATED optimista, el primer 401 la corrige.
func (m *Machine) restore(ctx context.Context) {
	s, err := m.store.LoadSession()
	if err != nil {
		logger.Named("client.session").Warn("no se pudo leer la sesión cacheada", logger.Err(err))
	}
	if s == nil || err != nil {
		m.set(Snapshot{State: StateCredentialsForm})
		return
	}
	if m.gate.Offered() && !m.gate.Unlock(ctx) {
		// Challenge no superado: la sesión queda en disco, esta corrida
		// pide credenciales.
		m.set(Snapshot{State: StateCredentialsForm})
		return
	}
	m.set(Snapshot{State: StateAuthenticated, UserID: s.UserID, Email: s.Email})
}

func (m *Machine) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case credentialsSubmitted:
		m.startLogin(ctx, ev)
	case loginSucceeded:
		m.completeLogin(ev.session)
	case loginPending:
		m.enterSecondFactor(ev.userID)
	case loginFailed:
		m.failLogin(ev.err)
	case codeSubmitted:
		m.startVerify(ctx, ev)
	case verifySucceeded:
		m.completeVerify(ev.session)
	case verifyFailed:
		m.failVerify(ev.err)
	case secondFactorCanceled:
		m.cancelSecondFactor()
	case signedOut:
		m.completeSignOut(ev.cause)
	case biometricToggled:
		m.toggleBiometric(ev)
	}
}

func (m *Machine) startLogin(ctx context.Context, ev credentialsSubmitted) {
	snap := m.Current()
	if snap.State != StateCredentialsForm {
		return
	}
	snap.Err = nil
	m.set(snap)
	go func() {
		out, err := m.api.Login(ctx, ev.email, ev.password)
		switch {
		case err != nil:
			m.dispatch(loginFailed{err: err})
		case out.SecondFactor != nil:
			m.dispatch(loginPending{userID: out.SecondFactor.UserID})
		default:
			m.dispatch(loginSucceeded{session: toSession(out.Session)})
		}
	}()
}

func (m *Machine) completeLogin(sess securestore.Session) {
	if m.Current().State != StateCredentialsForm {
		return
	}
	m.persist(sess)
	m.set(Snapshot{State: StateAuthenticated, UserID: sess.UserID, Email: sess.Email})
}

func (m *Machine) enterSecondFactor(userID string) {
	if m.Current().State != StateCredentialsForm {
		return
	}
	m.set(Snapshot{State: StateSecondFactorPending, PendingUserID: userID})
}

func (m *Machine) failLogin(err error) {
	snap := m.Current()
	if snap.State != StateCredentialsForm {
		return
	}
	snap.Err = err
	m.set(snap)
}

func (m *Machine) startVerify(ctx context.Context, ev codeSubmitted) {
	snap := m.Current()
	if snap.State != StateSecondFactorPending {
		return
	}
	pendingID := snap.PendingUserID
	snap.Err = nil
	m.set(snap)
	go func() {
		s, err := m.api.VerifySecondFactor(ctx, pendingID, ev.code)
		if err != nil {
			m.dispatch(verifyFailed{err: err})
			return
		}
		m.dispatch(verifySucceeded{session: toSession(s)})
	}()
}

// completeVerify aplica un verify exitoso. Si el usuario canceló mientras
// la llamada estaba en vuelo, los tokens se descartan sin persistir.
func (m *Machine) completeVerify(sess securestore.Session) {
	if m.Current().State != StateSecondFactorPending {
		return
	}
	m.persist(sess)
	m.set(Snapshot{State: StateAuthenticated, UserID: sess.UserID, Email: sess.Email})
}

func (m *Machine) failVerify(err error) {
	snap := m.Current()
	if snap.State != StateSecondFactorPending {
		return
	}
	// Código rechazado: se queda pendiente, el usuario reintenta.
	snap.Err = err
	m.set(snap)
}

func (m *Machine) cancelSecondFactor() {
	if m.Current().State != StateSecondFactorPending {
		return
	}
	m.set(Snapshot{State: StateCredentialsForm})
}

func (m *Machine) completeSignOut(cause error) {
	if err := m.store.ClearSession(); err != nil {
		logger.Named("client.session").Error("no se pudo limpiar la sesión", logger.Err(err))
	}
	// La habilitación biométrica queda: es consentimiento del usuario,
	// no parte de la sesión.
	m.set(Snapshot{State: StateCredentialsForm, Err: cause})
}

func (m *Machine) toggleBiometric(ev biometricToggled) {
	if m.Current().State != StateAuthenticated {
		ev.reply <- ErrNotAuthenticated
		return
	}
	ev.reply <- m.gate.SetEnabled(ev.enabled)
}

// ─── Helpers ───

// dispatch encola un evento. Retorna false si Run ya terminó.
func (m *Machine) dispatch(ev event) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

// set publica una nueva foto de estado a todos los suscriptores.
func (m *Machine) set(s Snapshot) {
	m.mu.Lock()
	m.snap = s
	subs := make([]chan Snapshot, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// Suscriptor atrasado: descartar la foto más vieja.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// persist guarda la sesión emitida. Si el disco falla, la sesión sigue
// válida en memoria para esta corrida; el próximo arranque pedirá
// credenciales de nuevo.
func (m *Machine) persist(sess securestore.Session) {
	if err := m.store.SaveSession(sess); err != nil {
		logger.Named("client.session").Error("no se pudo persistir la sesión", logger.Err(err))
	}
}

func toSession(s *dto.SessionResponse) securestore.Session {
	return securestore.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}
