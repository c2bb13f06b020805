package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
	"github.com/dmitrijs2005/cmsclient/internal/client/media"
	"github.com/dmitrijs2005/cmsclient/internal/client/services"
	"github.com/dmitrijs2005/cmsclient/internal/logging"
)

// Caller sends a request through the authenticated dispatcher and decodes
// the JSON answer. *api.Dispatcher satisfies it.
type Caller interface {
	Call(ctx context.Context, r api.Request, out any) error
}

// HealthFunc reports the serving status of the gRPC endpoint.
type HealthFunc func(ctx context.Context) (string, error)

// Deps are the collaborators the CLI drives. Uploader and Health are
// optional; the matching commands report that they are not configured.
type Deps struct {
	Auth        services.AuthService
	API         Caller
	Uploader    media.Uploader
	Health      HealthFunc
	MaxMB       int
	Concurrency int

	In     io.Reader
	Out    io.Writer
	Logger logging.Logger
}

type App struct {
	auth     services.AuthService
	api      Caller
	uploader media.Uploader
	health   HealthFunc
	maxMB    int
	parallel int

	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger
	st     styles

	// user is the email (or token subject) of the current session; empty
	// when logged out.
	user string
}

func NewApp(d Deps) *App {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.MaxMB <= 0 {
		d.MaxMB = media.DefaultMaxMB
	}
	if d.Concurrency <= 0 {
		d.Concurrency = 1
	}
	return &App{
		auth:     d.Auth,
		api:      d.API,
		uploader: d.Uploader,
		health:   d.Health,
		maxMB:    d.MaxMB,
		parallel: d.Concurrency,
		reader:   bufio.NewReader(d.In),
		out:      d.Out,
		log:      d.Logger,
		st:       newStyles(d.Out),
	}
}

// Run resumes a stored session when there is one and then blocks in the REPL
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, a.st.muted.Render("CMS admin CLI (type 'help' for commands)"))

	if info, err := a.auth.Whoami(ctx); err == nil {
		a.user = info.Subject
		if a.user == "" {
			a.user = "session"
		}
		a.log.Debug(ctx, "resumed stored session", "subject", info.Subject)
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.user != ""
}

func (a *App) status() string {
	if a.user == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.user)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// fail prints err for the user and returns it unchanged.
func (a *App) fail(err error) error {
	a.println(a.st.renderError(err))
	return err
}
