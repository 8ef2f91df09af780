package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/inkwellhq/apigate/internal/gateway/service"
	"github.com/inkwellhq/apigate/pkg/httpx"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// TokenHandler serves the OAuth2 token endpoint. Accepts
// application/x-www-form-urlencoded per RFC 6749; client credentials may
// arrive in the form body or as HTTP Basic authentication.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauth2x.ErrInvalidContentType.WriteJSON(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteJSON(w)
		return
	}

	clientKey := strings.TrimSpace(r.Form.Get("client_id"))
	clientSecret := r.Form.Get("client_secret")
	if user, pass, ok := r.BasicAuth(); ok {
		clientKey, clientSecret = strings.TrimSpace(user), pass
	}

	req := &service.TokenRequest{
		GrantType:    r.Form.Get("grant_type"),
		Code:         strings.TrimSpace(r.Form.Get("code")),
		ClientKey:    clientKey,
		ClientSecret: clientSecret,
		Scopes:       httpx.ParseSpaceDelimitedFields(r.Form.Get("scope")),
	}

	resp, err := h.TokenService.Token(ctx, req)
	if err != nil {
		var oerr *oauth2x.Error
		if !errors.As(err, &oerr) {
			log.Error("token request failed", "err", err)
			oerr = oauth2x.ErrServerError
		}
		oerr.WriteJSON(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
