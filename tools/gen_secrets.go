// Genera los secretos aleatorios que el servicio espera en el entorno:
// las claves de firma JWT (dominios independientes para access y refresh)
// y la clave opcional para cifrar el estado local del CLI.
//
// Uso: go run tools/gen_secrets.go >> .env
package main

import (
	"fmt"
	"log"

	"github.com/MarouaBoud/Dynastia/internal/security/secretbox"
	tokens "github.com/MarouaBoud/Dynastia/internal/security/token"
)

func main() {
	access, err := tokens.GenerateOpaqueToken(48)
	if err != nil {
		log.Fatalf("access secret: %v", err)
	}
	refresh, err := tokens.GenerateOpaqueToken(48)
	if err != nil {
		log.Fatalf("refresh secret: %v", err)
	}
	stateKey, err := secretbox.GenerateKey()
	if err != nil {
		log.Fatalf("state key: %v", err)
	}

	fmt.Printf("JWT_ACCESS_SECRET=%s\n", access)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refresh)
	fmt.Printf("DYNASTIA_STATE_KEY=%s\n", stateKey)
}
