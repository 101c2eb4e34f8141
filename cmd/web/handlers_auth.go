package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth/gothic"
	"github.com/suntennis/tournament-site/internal/httputil"
	"github.com/suntennis/tournament-site/internal/middleware"
	"github.com/suntennis/tournament-site/internal/service"
	users "github.com/suntennis/tournament-site/internal/user"
	"github.com/suntennis/tournament-site/views"
)

func (app *application) authData(r *http.Request, title string) views.AuthData {
	return views.AuthData{Layout: app.layout(r, title, ""), Providers: app.providers}
}

func (app *application) loginPage(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.LoginPage(app.authData(r, "Log in")))
}

func (app *application) registerPage(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.RegisterPage(app.authData(r, "Register")))
}

// signIn starts a fresh session for the user.
func (app *application) signIn(w http.ResponseWriter, r *http.Request, user *users.User) {
	if err := app.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	app.sessions.Put(r.Context(), middleware.SessionUserKey, user.ID.String())

	target := "/dashboard"
	if user.IsAdmin() {
		target = "/admin"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	email := r.PostForm.Get("email")

	user, err := app.users.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			data := app.authData(r, "Log in")
			data.Email = email
			data.Error = err.Error()
			w.WriteHeader(http.StatusUnauthorized)
			views.Render(w, r, views.LoginPage(data))
			return
		}
		httputil.FromError(w, "Failed to log in", err)
		return
	}

	app.signIn(w, r, user)
}

func (app *application) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	email := r.PostForm.Get("email")

	user, err := app.users.Register(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		var validation *service.ValidationError
		if errors.As(err, &validation) || errors.Is(err, service.ErrEmailTaken) {
			data := app.authData(r, "Register")
			data.Email = email
			data.Error = err.Error()
			w.WriteHeader(http.StatusBadRequest)
			views.Render(w, r, views.RegisterPage(data))
			return
		}
		httputil.FromError(w, "Failed to register", err)
		return
	}

	app.signIn(w, r, user)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessions.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to log out", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) dashboard(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.DashboardPage(views.DashboardData{
		Layout:  app.layout(r, "My account", ""),
		Account: middleware.GetAuthenticatedUser(r.Context()),
	}))
}

func (app *application) beginOAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothic.BeginAuthHandler(w, r)
}

func (app *application) completeOAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	app.signIn(w, r, user)
}
