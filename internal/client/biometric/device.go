// Package biometric implementa el gate de desbloqueo local: una señal
// biométrica del dispositivo que protege el acceso a una sesión ya
// guardada. Nunca emite ni valida tokens; el servidor no sabe que existe.
package biometric

import "context"

// Device abstrae el sensor biométrico del OS.
//
// HardwareAvailable y Enrolled son las precondiciones de hardware: sin
// sensor o sin huella/rostro registrado el gate ni siquiera se ofrece.
// Challenge dispara el prompt del OS y retorna si el usuario pasó.
type Device interface {
	HardwareAvailable() bool
	Enrolled() bool
	Challenge(ctx context.Context) (bool, error)
}

// StaticDevice es un Device de resultado fijo. Lo usan los tests y el CLI,
// donde no hay sensor real que consultar.
type StaticDevice struct {
	Hardware   bool
	Enrollment bool
	Approve    bool
	Err        error
}

func (d StaticDevice) HardwareAvailable() bool { return d.Hardware }
func (d StaticDevice) Enrolled() bool          { return d.Enrollment }

func (d StaticDevice) Challenge(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.Approve, d.Err
}

// None es un Device sin hardware: el gate nunca se ofrece.
func None() Device { return StaticDevice{} }
