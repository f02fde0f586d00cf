package securestore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/MarouaBoud/Dynastia/internal/security/secretbox"
	"github.com/MarouaBoud/Dynastia/internal/util/atomicwrite"
)

// fileState es el layout en disco: un único JSON con la sesión (si hay) y
// las habilitaciones biométricas por usuario.
type fileState struct {
	Session   *Session        `json:"session,omitempty"`
	Biometric map[string]bool `json:"biometric,omitempty"`
}

// FileStore persiste el estado en un archivo JSON con permisos 0600.
// Cada escritura es atómica (tmp + rename), así un corte a mitad de un
// login no deja un archivo a medio escribir.
//
// En un dispositivo real esto sería el keychain del OS; acá el archivo es
// la versión honesta para CLI y tests.
type FileStore struct {
	mu   sync.Mutex
	path string
	box  *secretbox.Box // nil = JSON en claro
}

// NewFile crea un store respaldado por el archivo en path.
// El archivo se crea recién en la primera escritura.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

// NewEncryptedFile crea un store que además cifra el archivo con AES-GCM.
// En un dispositivo real la clave viviría en el keystore de hardware; acá
// la arma el caller (ver secretbox.Parse) desde el entorno.
func NewEncryptedFile(path string, box *secretbox.Box) *FileStore {
	return &FileStore{path: path, box: box}
}

func (f *FileStore) LoadSession() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return nil, err
	}
	return st.Session, nil
}

func (f *FileStore) SaveSession(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.update(func(st *fileState) {
		st.Session = &s
	})
}

func (f *FileStore) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.update(func(st *fileState) {
		st.Session = nil
	})
}

func (f *FileStore) BiometricEnabled(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return false
	}
	return st.Biometric[userID]
}

func (f *FileStore) SetBiometricEnabled(userID string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.update(func(st *fileState) {
		if st.Biometric == nil {
			st.Biometric = make(map[string]bool)
		}
		if enabled {
			st.Biometric[userID] = true
		} else {
			delete(st.Biometric, userID)
		}
	})
}

// ─── Helpers ───

// read carga el estado del disco. Archivo ausente = estado vacío.
func (f *FileStore) read() (*fileState, error) {
	st := &fileState{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("securestore: leyendo %s: %w", f.path, err)
	}
	if f.box != nil {
		plain, err := f.box.Decrypt(string(data))
		if err != nil {
			return nil, fmt.Errorf("securestore: descifrando %s: %w", f.path, err)
		}
		data = []byte(plain)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("securestore: parseando %s: %w", f.path, err)
	}
	return st, nil
}

// update aplica mutate sobre el estado actual y lo reescribe atómicamente.
// Llamar con f.mu tomado.
func (f *FileStore) update(mutate func(*fileState)) error {
	st, err := f.read()
	if err != nil {
		return err
	}
	mutate(st)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("securestore: serializando estado: %w", err)
	}
	if f.box != nil {
		sealed, err := f.box.Encrypt(string(data))
		if err != nil {
			return fmt.Errorf("securestore: cifrando estado: %w", err)
		}
		data = []byte(sealed)
	}
	if err := atomicwrite.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("securestore: escribiendo %s: %w", f.path, err)
	}
	return nil
}
