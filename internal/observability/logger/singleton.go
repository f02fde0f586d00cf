package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger global con la configuración dada.
// Idempotente: llamadas posteriores no tienen efecto.
// Se llama una sola vez desde main.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger global.
// Si nadie llamó Init(), construye uno por defecto (console, info).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Format: "console", Level: "info"})
	}
	return instance
}

// Named retorna un logger con nombre de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync vacía los buffers pendientes. Llamar con defer en main.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
