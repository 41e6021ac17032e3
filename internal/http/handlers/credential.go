package handlers

import (
	"net/http"

	"mediagen/internal/i18n"
	"mediagen/internal/middleware"
)

type credentialRequest struct {
	Token string `json:"token"`
}

// CredentialStatus reports whether a token is configured. The token itself
// is never returned.
func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Credentials.Status())
}

func (a *App) CredentialSave(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Credentials.Save(r.Context(), req.Token); err != nil {
		a.fail(w, r, err)
		return
	}
	tr := i18n.For(middleware.LocaleFromContext(r.Context()))
	a.json(w, http.StatusOK, map[string]any{"status": a.Credentials.Status(), "message": tr.Sprintf(i18n.MsgTokenSaved)})
}

func (a *App) CredentialClear(w http.ResponseWriter, r *http.Request) {
	if err := a.Credentials.Clear(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	tr := i18n.For(middleware.LocaleFromContext(r.Context()))
	a.json(w, http.StatusOK, map[string]any{"status": a.Credentials.Status(), "message": tr.Sprintf(i18n.MsgTokenCleared)})
}
