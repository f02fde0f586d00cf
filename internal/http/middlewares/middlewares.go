package middlewares

import "net/http"

// Middleware decora un http.Handler. El router los aplica con chi (r.Use),
// del más externo al más interno.
type Middleware func(http.Handler) http.Handler
