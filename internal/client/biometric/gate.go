package biometric

import (
	"context"
	"errors"

	"github.com/MarouaBoud/Dynastia/internal/client/securestore"
)

// ErrNoSession indica que se intentó habilitar el desbloqueo biométrico sin
// una sesión guardada. La habilitación requiere estar autenticado.
var ErrNoSession = errors.New("biometric: no hay sesión guardada")

// Gate decide cuándo ofrecer el desbloqueo biométrico y corre el challenge.
// Tres precondiciones, todas necesarias: sesión cacheada, consentimiento
// previo del usuario (flag por userId) y hardware con enrolamiento.
type Gate struct {
	store  securestore.Store
	device Device
}

func NewGate(store securestore.Store, device Device) *Gate {
	return &Gate{store: store, device: device}
}

// Offered reporta si el gate aplica para la sesión actualmente guardada.
// Cualquier precondición ausente lo apaga; no hay estados intermedios.
func (g *Gate) Offered() bool {
	s, err := g.store.LoadSession()
	if err != nil || s == nil {
		return false
	}
	if !g.store.BiometricEnabled(s.UserID) {
		return false
	}
	return g.device.HardwareAvailable() && g.device.Enrolled()
}

// Unlock corre el challenge del OS. true significa restaurar la sesión
// cacheada; false significa caer al formulario de credenciales. Un error
// del sensor cuenta como false: el gate nunca es un estado terminal de
// error, siempre hay fallback por password.
func (g *Gate) Unlock(ctx context.Context) bool {
	ok, err := g.device.Challenge(ctx)
	if err != nil {
		return false
	}
	return ok
}

// SetEnabled registra el consentimiento del usuario de la sesión actual.
// Sin sesión no hay a quién atribuir el flag: falla con ErrNoSession.
// El flag se guarda por userId, dos cuentas en el mismo dispositivo no lo
// comparten.
func (g *Gate) SetEnabled(enabled bool) error {
	s, err := g.store.LoadSession()
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNoSession
	}
	return g.store.SetBiometricEnabled(s.UserID, enabled)
}
