package password

import (
	"strings"
	"testing"
)

// Params livianos para que los tests no paguen el costo de producción.
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	phc, err := Hash(testParams, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected phc prefix: %q", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatal("expected match")
	}
	if Verify("correct horse battery stapl", phc) {
		t.Fatal("expected mismatch")
	}
	if Verify("", phc) {
		t.Fatal("empty password must not match")
	}
}

// Dos hashes del mismo password difieren: el salt es aleatorio por hash.
func TestHash_SaltIsRandom(t *testing.T) {
	t.Parallel()
	a, err := Hash(testParams, "same-password")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	b, err := Hash(testParams, "same-password")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
	if !Verify("same-password", a) || !Verify("same-password", b) {
		t.Fatal("both hashes must verify")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	t.Parallel()
	if _, err := Hash(testParams, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

// El verify embebe los parámetros en el PHC: un hash viejo con otros
// parámetros sigue verificando.
func TestVerify_UsesEmbeddedParams(t *testing.T) {
	t.Parallel()
	other := Params{Memory: 16 * 1024, Time: 2, Parallelism: 1, SaltLen: 16, KeyLen: 32}
	phc, err := Hash(other, "migrated-password")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !Verify("migrated-password", phc) {
		t.Fatal("expected match with embedded params")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	t.Parallel()
	bad := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$AAAA",              // variante equivocada
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$AAAA",             // versión no soportada
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAA",     // params fuera de rango
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAA",                     // salt no-base64
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$A$A$A", // demasiados campos
	}
	for _, phc := range bad {
		if Verify("whatever", phc) {
			t.Fatalf("malformed phc must not verify: %q", phc)
		}
	}
}
