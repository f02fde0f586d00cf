// Package totp implementa el TOTP estándar (RFC 6238 sobre RFC 4226):
// HMAC-SHA1, 6 dígitos, paso de 30 segundos. El resto del sistema trata
// este paquete como primitiva opaca {generar secreto, verificar código}.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// Period es el paso de tiempo en segundos.
	Period = 30
	// Digits del código generado.
	Digits = 6
	// secretLen en bytes del secreto compartido.
	secretLen = 20
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret retorna un secreto nuevo en base32 sin padding (RFC 3548).
func GenerateSecret() (string, error) {
	raw := make([]byte, secretLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisioningURI construye el otpauth:// que la app autenticadora escanea
// como QR. El label lleva issuer y cuenta para que el usuario distinga
// múltiples cuentas en la misma app.
func ProvisioningURI(issuer, accountName, secretB32 string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", secretB32)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%d", Period))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify valida el código en una ventana de ±windowSteps pasos alrededor de t.
// lastCounterUsed (si no es nil) evita replay: un contador ya aceptado, o
// anterior a uno aceptado, no vuelve a validar. Retorna el contador que
// coincidió para que el caller lo persista.
func Verify(secretB32, code string, t time.Time, windowSteps int, lastCounterUsed *int64) (ok bool, counter int64) {
	code = strings.TrimSpace(code)
	if len(code) != Digits {
		return false, 0
	}
	raw, err := decodeSecret(secretB32)
	if err != nil {
		return false, 0
	}
	counter = t.Unix() / Period
	start := counter - int64(windowSteps)
	end := counter + int64(windowSteps)
	for c := start; c <= end; c++ {
		if lastCounterUsed != nil && c <= *lastCounterUsed {
			continue // anti-replay
		}
		if hotp(raw, c) == code {
			return true, c
		}
	}
	return false, 0
}

// GenerateCode produce el código para un instante dado. Lo usan los tests y
// el comando de demo; el server solo verifica.
func GenerateCode(secretB32 string, t time.Time) (string, error) {
	raw, err := decodeSecret(secretB32)
	if err != nil {
		return "", err
	}
	return hotp(raw, t.Unix()/Period), nil
}

func decodeSecret(secretB32 string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secretB32), "="))
	return b32.DecodeString(s)
}

// hotp calcula HOTP(K, C) con HMAC-SHA1 y truncamiento dinámico (RFC 4226).
func hotp(secretRaw []byte, counter int64) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secretRaw)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	return fmt.Sprintf("%06d", bin%1000000)
}
