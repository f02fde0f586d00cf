package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/MarouaBoud/Dynastia/internal/http/errors"
	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
)

// RequireAuth valida Authorization: Bearer <JWT> y guarda el user ID en el
// contexto. Si el token es inválido o no está presente, responde 401 (nunca
// 403) con WWW-Authenticate para que el cliente dispare su re-autenticación.
func RequireAuth(codec *jwtx.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			payload, err := codec.VerifyAccess(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				if errors.Is(err, jwtx.ErrTokenExpired) {
					httperrors.WriteError(w, httperrors.ErrTokenExpired)
					return
				}
				httperrors.WriteError(w, httperrors.ErrInvalidToken)
				return
			}

			ctx := WithUserID(r.Context(), payload.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
