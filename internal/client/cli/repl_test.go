package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Me(ctx context.Context) error     { f.calls = append(f.calls, "me"); return nil }
func (f *fakeExec) Whoami(ctx context.Context) error { f.calls = append(f.calls, "whoami"); return nil }
func (f *fakeExec) Get(ctx context.Context, path string) error {
	f.calls = append(f.calls, "get")
	f.args = append(f.args, path)
	return nil
}
func (f *fakeExec) Post(ctx context.Context, path, body string) error {
	f.calls = append(f.calls, "post")
	f.args = append(f.args, path, body)
	return nil
}
func (f *fakeExec) Upload(ctx context.Context, paths []string) error {
	f.calls = append(f.calls, "upload")
	f.args = append(f.args, paths...)
	return nil
}
func (f *fakeExec) Health(ctx context.Context) error { f.calls = append(f.calls, "health"); return nil }

func silenceREPL(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	origPrintln, origPrint := printlnFn, printFn
	printlnFn = func(a ...any) (int, error) {
		printed = append(printed, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	printFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn, printFn = origPrintln, origPrint })
	return &printed
}

func TestRunREPL_Commands(t *testing.T) {
	printed := silenceREPL(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"me",
		"whoami",
		"get /v1/posts?limit=5",
		`post /v1/posts {"titulo": "Hola mundo"}`,
		"post\t/v1/tags",
		"upload a.png  b.jpg",
		"health",
		"foobar",
		"logout",
		"exit",
		"me",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(input))

	assert.Equal(t, []string{"login", "me", "whoami", "get", "post", "post", "upload", "health", "logout"}, exec.calls)
	assert.Equal(t, []string{
		"/v1/posts?limit=5",
		"/v1/posts", `{"titulo": "Hola mundo"}`,
		"/v1/tags", "",
		"a.png", "b.jpg",
	}, exec.args)

	assert.Contains(t, *printed, "Available commands: login, whoami, get, post, health, exit")
	assert.Contains(t, *printed, "Available commands: me, whoami, get, post, upload, health, logout, exit")
	assert.Contains(t, *printed, "Unknown command: foobar")
	assert.Equal(t, "Bye!", (*printed)[len(*printed)-1])
}

func TestRunREPL_EOFWithoutNewline(t *testing.T) {
	silenceREPL(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("whoami")))

	assert.Equal(t, []string{"whoami"}, exec.calls)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line, cmd, rest string
	}{
		{line: "", cmd: "", rest: ""},
		{line: "  help  \n", cmd: "help", rest: ""},
		{line: "get /v1/me", cmd: "get", rest: "/v1/me"},
		{line: `post /x {"a": "b c"}`, cmd: "post", rest: `/x {"a": "b c"}`},
		{line: "upload\ta.png", cmd: "upload", rest: "a.png"},
	}
	for _, tt := range tests {
		cmd, rest := splitCommand(tt.line)
		assert.Equal(t, tt.cmd, cmd, tt.line)
		assert.Equal(t, tt.rest, rest, tt.line)
	}
}
