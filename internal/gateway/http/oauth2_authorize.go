package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/inkwellhq/apigate/internal/gateway/service"
	"github.com/inkwellhq/apigate/pkg/httpx"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// AuthorizeHandler serves the OAuth2 authorization endpoint. Parameters
// arrive as query values on GET and form values on POST, per RFC 6749.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

func (h *AuthorizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, r.URL.Query())
}

func (h *AuthorizeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteJSON(w)
		return
	}
	h.handle(w, r, r.Form)
}

func (h *AuthorizeHandler) handle(w http.ResponseWriter, r *http.Request, params url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	req := &service.AuthorizationRequest{
		ResponseType:        strings.TrimSpace(params.Get("response_type")),
		ClientKey:           strings.TrimSpace(params.Get("client_id")),
		RedirectURI:         strings.TrimSpace(params.Get("redirect_uri")),
		Scopes:              httpx.ParseSpaceDelimitedFields(params.Get("scope")),
		State:               params.Get("state"),
		CodeChallenge:       strings.TrimSpace(params.Get("code_challenge")),
		CodeChallengeMethod: strings.TrimSpace(params.Get("code_challenge_method")),
	}

	result, err := h.AuthorizeService.Authorize(ctx, req)
	if err != nil {
		var oerr *oauth2x.Error
		if !errors.As(err, &oerr) {
			log.Error("authorize failed", "err", err)
			oerr = oauth2x.ErrServerError
		}
		h.writeError(w, r, req, oerr)
		return
	}

	if sc := result.ShortCircuit; sc != nil {
		if sc.Location != "" {
			w.Header().Set("Location", sc.Location)
		}
		if sc.ContentType != "" {
			w.Header().Set("Content-Type", sc.ContentType)
		}
		httpx.NoCache(w)
		w.WriteHeader(sc.StatusCode)
		if len(sc.Body) > 0 {
			_, _ = w.Write(sc.Body)
		}
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// writeError picks the wire form for a protocol error. Denial and scope
// errors travel back to the client application as an error redirect when
// the redirect URI was validated; everything else (unknown client, bad
// redirect URI, malformed request) must not redirect and gets the JSON
// body instead.
func (h *AuthorizeHandler) writeError(w http.ResponseWriter, r *http.Request, req *service.AuthorizationRequest, oerr *oauth2x.Error) {
	redirectable := oerr.Code == oauth2x.ErrorCodeAccessDenied ||
		oerr.Code == oauth2x.ErrorCodeInvalidScope ||
		oerr.Code == oauth2x.ErrorCodeUnsupportedResponseType

	if redirectable && req.RedirectURI != "" {
		if target := oerr.RedirectURL(req.RedirectURI, req.State); target != "" {
			httpx.NoCache(w)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}
	oerr.WriteJSON(w)
}
