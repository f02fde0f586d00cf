package securestore

// TokenSource expone los tokens de la sesión cacheada con la forma que
// espera el transporte API (la interfaz se satisface por estructura, este
// paquete no conoce al cliente HTTP).
//
// Lee el store en cada llamada: si otro proceso renovó el access token en
// el mismo archivo, acá se ve el valor nuevo.
type TokenSource struct {
	Store Store
}

func (t TokenSource) AccessToken() string {
	s, err := t.Store.LoadSession()
	if err != nil || s == nil {
		return ""
	}
	return s.AccessToken
}

func (t TokenSource) RefreshToken() string {
	s, err := t.Store.LoadSession()
	if err != nil || s == nil {
		return ""
	}
	return s.RefreshToken
}

// UpdateAccess persiste el access token renovado sin tocar el refresh token
// ni la identidad. Sin sesión cacheada no hay nada que actualizar.
func (t TokenSource) UpdateAccess(token string) {
	s, err := t.Store.LoadSession()
	if err != nil || s == nil {
		return
	}
	s.AccessToken = token
	_ = t.Store.SaveSession(*s)
}
