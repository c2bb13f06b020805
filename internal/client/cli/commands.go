package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
	"github.com/dmitrijs2005/cmsclient/internal/client/media"
	"github.com/dmitrijs2005/cmsclient/internal/cryptox"
)

var (
	errUsage          = errors.New("uso incorrecto")
	errInvalidJSON    = errors.New("El cuerpo no es JSON válido")
	errNoUploader     = errors.New("La subida de medios no está configurada")
	errNoHealthTarget = errors.New("No hay endpoint gRPC configurado")
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var timeNow = time.Now

// Login prompts for email and password and opens a session. The password is
// wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return a.fail(err)
	}

	password, err := getPassword(a.out)
	if err != nil {
		return a.fail(err)
	}
	defer cryptox.Wipe(password)

	if err := a.auth.Login(ctx, email, password); err != nil {
		a.log.Warn(ctx, "login failed", "email", email, "error", err)
		return a.fail(err)
	}

	a.user = email
	a.println(a.st.ok.Render("Sesión iniciada"))
	return nil
}

// Logout ends the session. The local state is cleared even when the server
// call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	a.user = ""
	if err != nil {
		return a.fail(err)
	}
	a.println(a.st.ok.Render("Sesión cerrada"))
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.auth.Me(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.println(fmt.Sprintf("%s %s", a.st.label.Render("id:"), u.ID))
	a.println(fmt.Sprintf("%s %s", a.st.label.Render("email:"), u.Email))
	if u.Nombre != "" {
		a.println(fmt.Sprintf("%s %s", a.st.label.Render("nombre:"), u.Nombre))
	}
	if u.Role != "" {
		a.println(fmt.Sprintf("%s %s", a.st.label.Render("rol:"), u.Role))
	}
	return nil
}

// Whoami shows the claims of the stored credential without asking the
// server.
func (a *App) Whoami(ctx context.Context) error {
	info, err := a.auth.Whoami(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.println(fmt.Sprintf("%s %s", a.st.label.Render("subject:"), info.Subject))
	if !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt.Local().Format(time.RFC3339)
		if info.Expired(timeNow()) {
			exp += " " + a.st.muted.Render("(expirado, se renovará en la próxima petición)")
		}
		a.println(fmt.Sprintf("%s %s", a.st.label.Render("expira:"), exp))
	}
	return nil
}

func (a *App) Get(ctx context.Context, path string) error {
	if path == "" {
		a.println("Usage: get <path>")
		return errUsage
	}
	var raw json.RawMessage
	if err := a.api.Call(ctx, api.Request{Method: http.MethodGet, Path: path}, &raw); err != nil {
		return a.fail(err)
	}
	a.println(prettyJSON(raw))
	return nil
}

// Post sends body as JSON to path. An empty body is read from the prompt.
func (a *App) Post(ctx context.Context, path, body string) error {
	if path == "" {
		a.println("Usage: post <path> [json]")
		return errUsage
	}
	if body == "" {
		var err error
		if body, err = getMultiline(a.reader, "JSON body", a.out); err != nil {
			return a.fail(err)
		}
	}
	if !json.Valid([]byte(body)) {
		return a.fail(errInvalidJSON)
	}

	var raw json.RawMessage
	err := a.api.Call(ctx, api.Request{Method: http.MethodPost, Path: path, Body: api.Raw([]byte(body))}, &raw)
	if err != nil {
		return a.fail(err)
	}
	if len(raw) == 0 {
		a.println(a.st.ok.Render("OK"))
		return nil
	}
	a.println(prettyJSON(raw))
	return nil
}

// Upload checks every file first and uploads only when all of them pass.
func (a *App) Upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		a.println("Usage: upload <file> [file...]")
		return errUsage
	}
	if a.uploader == nil {
		return a.fail(errNoUploader)
	}

	files := make([]media.File, 0, len(paths))
	for _, p := range paths {
		f, err := media.LoadFile(p)
		if err != nil {
			return a.fail(err)
		}
		if err := media.AssertImage(f, a.maxMB); err != nil {
			return a.fail(fmt.Errorf("%s: %w", f.Name, err))
		}
		files = append(files, f)
	}

	results, err := media.UploadAll(ctx, a.uploader, files, a.parallel)
	if err != nil {
		return a.fail(err)
	}
	for i, r := range results {
		a.println(fmt.Sprintf("%s %s", a.st.label.Render(files[i].Name+":"), r.URL))
	}
	return nil
}

func (a *App) Health(ctx context.Context) error {
	if a.health == nil {
		return a.fail(errNoHealthTarget)
	}
	status, err := a.health(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.println(a.st.ok.Render(status))
	return nil
}
