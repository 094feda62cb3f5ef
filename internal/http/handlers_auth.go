package http

import (
	"net/http"

	"expenses/internal/log"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p, errResp := parseBody(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	username := p.Get("username")
	id, err := s.svc.SignUp(r.Context(), username, p.GetRaw("password"), p.GetRaw("confirm"))
	if err != nil {
		errorResponse(r, err, log.ComponentAuth, log.OpSignUp).Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Account created",
		log.FieldUserID, id, "username", username)

	NewResponse().
		Status(http.StatusCreated).
		Data(map[string]interface{}{"id": id, "username": username}).
		Success("Account created, you can now log in.").
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, errResp := parseBody(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	username, password := p.Get("username"), p.GetRaw("password")
	if username == "" || password == "" {
		UnprocessableEntityError("Please provide username and password.").Write(w)
		return
	}

	sess, err := s.svc.Login(r.Context(), username, password)
	if err != nil {
		errorResponse(r, err, log.ComponentAuth, log.OpLogin).Write(w)
		return
	}

	token, err := s.tokens.Issue(sess.UserID, sess.Username)
	if err != nil {
		errorResponse(r, err, log.ComponentAuth, log.OpLogin).Write(w)
		return
	}

	NewResponse().
		Cookie(&http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		}).
		Data(map[string]interface{}{
			"token":    token,
			"user_id":  sess.UserID,
			"username": sess.Username,
			"filter": filterView{
				Start:      sess.Filter.Start.String(),
				End:        sess.Filter.End.String(),
				Categories: sess.Filter.Categories,
			},
		}).
		Success("Logged in as " + sess.Username + ".").
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		Cookie(&http.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		}).
		NoContent().
		Write(w)
}
