package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"

	"todo/internal/config"
	"todo/internal/confirm"
	"todo/internal/logging"
	"todo/internal/storage"
	"todo/internal/todo"
	"todo/internal/tui"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], streams{Out: os.Stdout, Err: os.Stderr})
	stop()
	os.Exit(code)
}

type streams struct {
	Out io.Writer
	Err io.Writer
	// Prompter overrides the stdin confirmation prompt (tests).
	Prompter confirm.Prompter
}

// env is everything a command needs once flags and config are resolved.
type env struct {
	ctx     context.Context
	svc     *todo.Service
	cfg     *config.Config
	logger  *log.Logger
	streams streams
}

func run(ctx context.Context, args []string, std streams) int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(std.Err)

	showHelp := fs.Bool("help", false, "show help")
	fs.BoolVar(showHelp, "h", false, "show help")
	showVersion := fs.Bool("version", false, "show version")
	fs.BoolVar(showVersion, "v", false, "show version")
	ephemeral := fs.Bool("ephemeral", false, "keep everything in memory (nothing is saved)")

	configPathFlag := fs.String("config", "", "Config path (default: ~/.config/todo/todo-config.yaml)")
	backendFlag := fs.String("storage", "", "Storage backend: sqlite, json or memory (default: sqlite)")
	dbPathFlag := fs.String("db", "", "SQLite database path (default: ~/.local/share/todo/todo.db)")
	dataDirFlag := fs.String("data", "", "JSON store directory (default: ~/.local/share/todo/store)")
	logLevelFlag := fs.String("log-level", "", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "todo - work and travel to-do lists")
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Usage:")
		fmt.Fprintln(fs.Output(), "  todo                          launch the interactive lists")
		fmt.Fprintln(fs.Output(), "  todo list [work|travel]       print items (default: selected tab)")
		fmt.Fprintln(fs.Output(), "  todo add <work|travel> <text> add an item")
		fmt.Fprintln(fs.Output(), "  todo rename <id> <text>       change an item's text")
		fmt.Fprintln(fs.Output(), "  todo done [--yes] <id>        toggle complete/incomplete")
		fmt.Fprintln(fs.Output(), "  todo rm [--yes] <id>          delete an item")
		fmt.Fprintln(fs.Output(), "  todo tab <work|travel>        select the active tab")
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Environment overrides:")
		fmt.Fprintln(fs.Output(), "  TODO_CONFIG_PATH")
		fmt.Fprintln(fs.Output(), "  TODO_STORAGE")
		fmt.Fprintln(fs.Output(), "  TODO_DB_PATH")
		fmt.Fprintln(fs.Output(), "  TODO_DATA_DIR")
	}

	if err := fs.Parse(args); err != nil {
		// flag package already prints a useful error.
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showHelp {
		fs.Usage()
		return 0
	}
	if *showVersion {
		fmt.Fprintf(std.Out, "todo %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		return 0
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(std.Err, "error: cannot determine home directory: %v\n", err)
		return 1
	}
	paths := config.DefaultPaths(home)

	configPath := firstNonEmpty(os.Getenv("TODO_CONFIG_PATH"), *configPathFlag, paths.Config)
	cfg, err := config.Load(config.ExpandHome(configPath, home))
	if err != nil {
		fmt.Fprintln(std.Err, "error: config unreadable")
		fmt.Fprintf(std.Err, "  path:   %s\n", configPath)
		fmt.Fprintf(std.Err, "  detail: %v\n", err)
		fmt.Fprintln(std.Err)
		fmt.Fprintln(std.Err, "A valid config looks like:")
		fmt.Fprintln(std.Err, strings.TrimSpace(config.MinimalExampleYAML()))
		return 1
	}

	logger, logCloser, err := logging.Open(logging.Options{
		Path:  config.ExpandHome(firstNonEmpty(cfg.Log.File, paths.LogFile), home),
		Level: firstNonEmpty(*logLevelFlag, cfg.Log.Level),
	})
	if err != nil {
		fmt.Fprintf(std.Err, "error: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	backend, err := storage.ParseBackend(firstNonEmpty(os.Getenv("TODO_STORAGE"), *backendFlag, cfg.Storage.Backend))
	if err != nil {
		fmt.Fprintf(std.Err, "error: %v\n", err)
		return 2
	}
	if *ephemeral {
		backend = storage.BackendMemory
	}
	opts := storage.OpenOptions{
		Backend: backend,
		DBPath:  config.ExpandHome(firstNonEmpty(os.Getenv("TODO_DB_PATH"), *dbPathFlag, cfg.Storage.DBPath, paths.DBPath), home),
		DataDir: config.ExpandHome(firstNonEmpty(os.Getenv("TODO_DATA_DIR"), *dataDirFlag, cfg.Storage.DataDir, paths.DataDir), home),
		Logger:  logger,
	}

	if err := storage.CheckStorageWritable(opts); err != nil {
		fmt.Fprintln(std.Err, "error: storage location unusable")
		fmt.Fprintf(std.Err, "  backend: %s\n", opts.Backend)
		fmt.Fprintf(std.Err, "  db:      %s\n", opts.DBPath)
		fmt.Fprintf(std.Err, "  data:    %s\n", opts.DataDir)
		fmt.Fprintf(std.Err, "  detail:  %v\n", err)
		fmt.Fprintln(std.Err)
		fmt.Fprintln(std.Err, "Fix: point --db/--data at a writable location, or use --ephemeral")
		return 1
	}

	store, err := storage.OpenStore(opts)
	if err != nil {
		fmt.Fprintf(std.Err, "error: failed to open storage: %v\n", err)
		return 1
	}
	defer store.Close()

	svc := todo.NewService(store, todo.WithLogger(logger), todo.WithDefaultTab(cfg.DefaultTab()))
	if err := svc.Initialize(ctx); err != nil {
		// Still usable: the session starts from an empty list.
		fmt.Fprintf(std.Err, "warning: %v\n", err)
	}

	e := &env{ctx: ctx, svc: svc, cfg: cfg, logger: logger, streams: std}
	rest := fs.Args()
	if len(rest) == 0 {
		return e.runTUI()
	}

	cmd, cmdArgs := rest[0], rest[1:]
	logger.Debug("command", "name", cmd, "args", len(cmdArgs))
	switch cmd {
	case "list", "ls":
		return e.runList(cmdArgs)
	case "add":
		return e.runAdd(cmdArgs)
	case "rename":
		return e.runRename(cmdArgs)
	case "done", "toggle":
		return e.runToggle(cmdArgs)
	case "rm", "delete":
		return e.runDelete(cmdArgs)
	case "tab":
		return e.runTab(cmdArgs)
	default:
		fmt.Fprintf(std.Err, "error: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
}

func (e *env) runTUI() int {
	err := tui.Run(e.ctx, tui.Input{Service: e.svc, Confirm: e.cfg.ConfirmDestructive()})
	if err != nil {
		e.logger.Error("tui exited", "err", err)
		fmt.Fprintf(e.streams.Err, "error: %v\n", err)
		return 1
	}
	return 0
}

func (e *env) runList(args []string) int {
	if len(args) > 1 {
		fmt.Fprintln(e.streams.Err, "usage: todo list [work|travel]")
		return 2
	}
	cat := e.svc.SelectedTab()
	if len(args) == 1 {
		c, err := todo.ParseCategory(args[0])
		if err != nil {
			fmt.Fprintf(e.streams.Err, "error: %v\n", err)
			return 2
		}
		cat = c
	}

	dim := color.New(color.FgHiBlack).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	total, done := e.svc.Count(cat)
	fmt.Fprintf(e.streams.Out, "%s (%d/%d done)\n", cat.Label(), done, total)
	for it := range e.svc.ListByCategory(cat) {
		mark := "[ ]"
		if it.Done() {
			mark = green("[x]")
		}
		fmt.Fprintf(e.streams.Out, "%s %s  %s\n", mark, dim(it.ID.Short()), it.Text)
	}
	return 0
}

func (e *env) runAdd(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(e.streams.Err, "usage: todo add <work|travel> <text>")
		return 2
	}
	cat, err := todo.ParseCategory(args[0])
	if err != nil {
		fmt.Fprintf(e.streams.Err, "error: %v\n", err)
		return 2
	}
	id, err := e.svc.AddItem(e.ctx, strings.Join(args[1:], " "), cat)
	if code := e.reportMutation(err); code != 0 {
		return code
	}
	fmt.Fprintln(e.streams.Out, id)
	return 0
}

func (e *env) runRename(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(e.streams.Err, "usage: todo rename <id> <text>")
		return 2
	}
	id, code := e.resolve(args[0])
	if code != 0 {
		return code
	}
	return e.reportMutation(e.svc.RenameItem(e.ctx, id, strings.Join(args[1:], " ")))
}

func (e *env) runToggle(args []string) int {
	id, it, code := e.confirmTarget("done", args, func(it todo.Item) string {
		if it.Done() {
			return fmt.Sprintf("Mark %q as incomplete?", it.Text)
		}
		return fmt.Sprintf("Mark %q as complete?", it.Text)
	})
	if code != 0 || id == "" {
		return code
	}
	st, err := e.svc.ToggleStatus(e.ctx, id)
	if code := e.reportMutation(err); code != 0 {
		return code
	}
	fmt.Fprintf(e.streams.Out, "%s: %s\n", it.Text, st)
	return 0
}

func (e *env) runDelete(args []string) int {
	id, _, code := e.confirmTarget("rm", args, func(it todo.Item) string {
		return fmt.Sprintf("Delete %q?", it.Text)
	})
	if code != 0 || id == "" {
		return code
	}
	return e.reportMutation(e.svc.DeleteItem(e.ctx, id))
}

func (e *env) runTab(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(e.streams.Err, "usage: todo tab <work|travel>")
		return 2
	}
	cat, err := todo.ParseCategory(args[0])
	if err != nil {
		fmt.Fprintf(e.streams.Err, "error: %v\n", err)
		return 2
	}
	return e.reportMutation(e.svc.SelectTab(e.ctx, cat))
}

// confirmTarget parses "[--yes] <id>", resolves the id and asks for
// confirmation. An empty id with code 0 means the user declined.
func (e *env) confirmTarget(name string, args []string, question func(todo.Item) string) (todo.ID, todo.Item, int) {
	fs := flag.NewFlagSet("todo "+name, flag.ContinueOnError)
	fs.SetOutput(e.streams.Err)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	fs.BoolVar(yes, "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return "", todo.Item{}, 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(e.streams.Err, "usage: todo %s [--yes] <id>\n", name)
		return "", todo.Item{}, 2
	}
	id, code := e.resolve(fs.Arg(0))
	if code != 0 {
		return "", todo.Item{}, code
	}
	it, _ := e.svc.Item(id)

	var p confirm.Prompter = confirm.Always{}
	if !*yes && e.cfg.ConfirmDestructive() {
		p = e.streams.Prompter
		if p == nil {
			p = confirm.Stdio()
		}
	}
	ok, err := p.Confirm(e.ctx, question(it))
	if err != nil {
		fmt.Fprintf(e.streams.Err, "error: %v\n", err)
		return "", todo.Item{}, 1
	}
	if !ok {
		fmt.Fprintln(e.streams.Err, "cancelled")
		return "", todo.Item{}, 0
	}
	return id, it, 0
}

func (e *env) resolve(ref string) (todo.ID, int) {
	id, err := e.svc.ResolveID(ref)
	if err != nil {
		fmt.Fprintf(e.streams.Err, "error: %v: %s\n", err, ref)
		return "", 1
	}
	return id, 0
}

// reportMutation maps a service error to an exit code. A persistence warning
// is printed but the command still succeeds.
func (e *env) reportMutation(err error) int {
	switch {
	case err == nil:
		return 0
	case todo.IsWarning(err):
		fmt.Fprintf(e.streams.Err, "warning: change not saved: %v\n", err)
		return 0
	case errors.Is(err, todo.ErrEmptyText), errors.Is(err, todo.ErrInvalidCategory):
		fmt.Fprintf(e.streams.Err, "error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(e.streams.Err, "error: %v\n", err)
		return 1
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
