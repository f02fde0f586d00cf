package e2e

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

// 00 - Smoke: health, readiness, métricas y los contratos de error del router
func Test_00_Smoke_Health(t *testing.T) {
	c := newHTTPClient()

	t.Run("healthz", func(t *testing.T) {
		resp, err := c.Get(baseURL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /healthz status=%d", resp.StatusCode)
		}
	})

	t.Run("readyz", func(t *testing.T) {
		// Con driver memory el store siempre responde: 200 directo.
		resp, err := c.Get(baseURL + "/readyz")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /readyz status=%d", resp.StatusCode)
		}
	})

	t.Run("metrics expone los contadores HTTP", func(t *testing.T) {
		resp, err := c.Get(baseURL + "/metrics")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /metrics status=%d", resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		// Los healthz/readyz de arriba ya pasaron por el middleware: el
		// counter tiene que estar materializado en la exposición.
		if !strings.Contains(string(b), "http_requests_total") {
			t.Fatalf("exposición sin http_requests_total:\n%.500s", b)
		}
	})

	t.Run("ruta desconocida responde el sobre de error", func(t *testing.T) {
		resp, err := c.Get(baseURL + "/no-existe")
		if err != nil {
			t.Fatal(err)
		}
		wantErrorCode(t, resp, http.StatusNotFound, "route_not_found")
	})

	t.Run("método no permitido responde el sobre de error", func(t *testing.T) {
		// /auth/login existe pero solo como POST
		resp, err := c.Get(baseURL + "/auth/login")
		if err != nil {
			t.Fatal(err)
		}
		wantErrorCode(t, resp, http.StatusMethodNotAllowed, "method_not_allowed")
	})
}
