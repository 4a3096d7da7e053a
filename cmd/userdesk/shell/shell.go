// Package shell implements the userdesk command line: one-shot commands and
// an interactive session, both driving the user form presenter.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"userdesk/internal/client"
	"userdesk/internal/config"
	domain "userdesk/internal/domain/user"
	"userdesk/internal/presenter"
	"userdesk/pkg/logger"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const usageText = `Usage: userdesk [global flags] <command> [flags]

Commands:
  list                                   show every user
  get <id>                               show one user
  add --last-name --first-name --age     create a user
  update <id> [--last-name] [--first-name] [--age]
                                         overwrite a user, keeping fields not given
  delete <id>                            delete a user
  shell                                  interactive session

Global flags:
`

// Shell runs userdesk commands against the backend.
type Shell struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Logger overrides the logger built from configuration.
	Logger *zap.Logger
}

// New returns a Shell on the process's standard streams.
func New() *Shell {
	return &Shell{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// session is one command invocation.
type session struct {
	api  *client.Client
	page *presenter.Page
	view *terminalView
	out  io.Writer
	log  *zap.Logger
}

// Run parses args, executes the command and returns the exit code.
func (s *Shell) Run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("userdesk", pflag.ContinueOnError)
	fs.SetOutput(s.Err)
	fs.SetInterspersed(false)
	fs.String("base-url", client.DefaultBaseURL, "backend root URL")
	fs.Int("timeout", int(client.DefaultTimeout.Seconds()), "request timeout in seconds")
	configPath := fs.String("config", configDir(), "directory holding app.env")
	verbose := fs.BoolP("verbose", "v", false, "log requests to stderr")
	fs.Usage = func() {
		fmt.Fprint(s.Err, usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return ExitUsage
	}

	cfg, err := loadConfig(fs, *configPath)
	if err != nil {
		fmt.Fprintf(s.Err, "userdesk: %v\n", err)
		return ExitUsage
	}

	log := s.Logger
	if log == nil {
		log, err = newLogger(cfg, *verbose)
		if err != nil {
			fmt.Fprintf(s.Err, "userdesk: %v\n", err)
			return ExitFailure
		}
		defer func() { _ = logger.Sync(log) }()
	}

	api, err := client.New(client.Config{BaseURL: cfg.Client.BaseURL, Timeout: cfg.Client.Timeout()}, log)
	if err != nil {
		fmt.Fprintf(s.Err, "userdesk: %v\n", err)
		return ExitUsage
	}
	defer func() { _ = api.Close() }()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	view := newTerminalView(s.Out, cmd == "shell")
	sess := &session{
		api:  api,
		page: presenter.New(api, view, log),
		view: view,
		out:  s.Out,
		log:  log,
	}

	switch cmd {
	case "list":
		return sess.list(ctx)
	case "get":
		return sess.get(ctx, rest, s.Err)
	case "add":
		return sess.add(ctx, rest, s.Err)
	case "update":
		return sess.update(ctx, rest, s.Err)
	case "delete":
		return sess.delete(ctx, rest, s.Err)
	case "shell":
		return sess.interactive(ctx, s.In)
	default:
		fmt.Fprintf(s.Err, "userdesk: unknown command %q\n", cmd)
		fs.Usage()
		return ExitUsage
	}
}

// loadConfig reads app.env and the environment; changed flags win.
func loadConfig(fs *pflag.FlagSet, path string) (*config.Config, error) {
	v := viper.New()
	if err := v.BindPFlag("API_BASE_URL", fs.Lookup("base-url")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("API_TIMEOUT_SECONDS", fs.Lookup("timeout")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger keeps stdout for command output.
func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	} else if _, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = cfg.Logger.Level
	}

	output := cfg.Logger.OutputPath
	if output == "" || output == "stdout" {
		output = "stderr"
	}

	return logger.NewWithConfig(logger.Config{
		Level:          level,
		Format:         "console",
		OutputPath:     output,
		ServiceName:    "userdesk",
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Environment,
	})
}

func configDir() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

func (s *session) list(ctx context.Context) int {
	s.page.Load(ctx)
	return ExitOK
}

func (s *session) get(ctx context.Context, args []string, errOut io.Writer) int {
	id, ok := parseID(args, errOut)
	if !ok {
		return ExitUsage
	}

	u := s.api.GetUser(ctx, id)
	if u == nil {
		fmt.Fprintf(s.out, "User %d not found.\n", id)
		return ExitFailure
	}
	s.view.ShowUsers([]domain.User{*u})
	return ExitOK
}

func (s *session) add(ctx context.Context, args []string, errOut io.Writer) int {
	fs, form := formFlags("add", errOut)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if !s.page.Add(ctx, *form) {
		return ExitFailure
	}
	return ExitOK
}

func (s *session) update(ctx context.Context, args []string, errOut io.Writer) int {
	fs, flags := formFlags("update", errOut)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	id, ok := parseID(fs.Args(), errOut)
	if !ok {
		return ExitUsage
	}
	if !s.selectRemote(ctx, id) {
		return ExitFailure
	}

	form := s.view.fields
	if fs.Changed("last-name") {
		form.LastName = flags.LastName
	}
	if fs.Changed("first-name") {
		form.FirstName = flags.FirstName
	}
	if fs.Changed("age") {
		form.Age = flags.Age
	}

	if !s.page.Update(ctx, form) {
		return ExitFailure
	}
	return ExitOK
}

func (s *session) delete(ctx context.Context, args []string, errOut io.Writer) int {
	id, ok := parseID(args, errOut)
	if !ok {
		return ExitUsage
	}
	if !s.selectRemote(ctx, id) {
		return ExitFailure
	}

	if !s.page.Delete(ctx) {
		return ExitFailure
	}
	return ExitOK
}

// selectRemote fetches the user and selects it on the page.
func (s *session) selectRemote(ctx context.Context, id int64) bool {
	u := s.api.GetUser(ctx, id)
	if u == nil {
		fmt.Fprintf(s.out, "User %d not found.\n", id)
		return false
	}
	s.page.Select(*u)
	return true
}

const shellHelp = `Commands:
  list                          reload the user list
  select <id>                   select a user and fill the form
  add <last> <first> <age>      create a user
  update <last> <first> <age>   overwrite the selected user
  delete                        delete the selected user
  clear                         clear the form and reload
  age <text>                    check an age value
  help                          show this help
  quit                          leave`

// interactive reads commands from in until EOF or quit.
func (s *session) interactive(ctx context.Context, in io.Reader) int {
	s.page.Load(ctx)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ExitFailure
		}
		words := strings.Fields(scanner.Text())
		if len(words) > 0 {
			if quit := s.dispatch(ctx, words[0], words[1:]); quit {
				return ExitOK
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	fmt.Fprintln(s.out)

	if err := scanner.Err(); err != nil {
		s.log.Error("reading input failed", zap.Error(err))
		return ExitFailure
	}
	return ExitOK
}

// dispatch runs one shell command and reports whether the session should end.
func (s *session) dispatch(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "list":
		s.page.Load(ctx)
	case "select":
		id, err := singleID(args)
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		if !s.page.SelectByID(id) {
			fmt.Fprintf(s.out, "User %d is not in the list.\n", id)
		}
	case "add":
		if form, ok := s.formArgs(args); ok {
			s.page.Add(ctx, form)
		}
	case "update":
		if form, ok := s.formArgs(args); ok {
			s.page.Update(ctx, form)
		}
	case "delete":
		s.page.Delete(ctx)
	case "clear":
		s.page.Clear(ctx)
	case "age":
		if presenter.AgeFieldValid(strings.Join(args, " ")) {
			fmt.Fprintln(s.out, "Age is valid.")
		} else {
			fmt.Fprintln(s.out, "Age must be a whole number between 18 and 100.")
		}
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type help for the list of commands.\n", cmd)
	}
	return false
}

func (s *session) formArgs(args []string) (presenter.Form, bool) {
	if len(args) != 3 {
		fmt.Fprintln(s.out, "Expected: <last name> <first name> <age>")
		return presenter.Form{}, false
	}
	return presenter.Form{LastName: args[0], FirstName: args[1], Age: args[2]}, true
}

func formFlags(name string, errOut io.Writer) (*pflag.FlagSet, *presenter.Form) {
	form := &presenter.Form{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&form.LastName, "last-name", "", "last name (nom)")
	fs.StringVar(&form.FirstName, "first-name", "", "first name (prenom)")
	fs.StringVar(&form.Age, "age", "", "age, 18 to 100")
	return fs, form
}

func parseID(args []string, errOut io.Writer) (int64, bool) {
	id, err := singleID(args)
	if err != nil {
		fmt.Fprintf(errOut, "userdesk: %v\n", err)
		return 0, false
	}
	return id, true
}

func singleID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one user id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", args[0])
	}
	return id, nil
}
