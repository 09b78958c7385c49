// Command execution for CLI commands.
//
// Information Hiding:
// - Session construction and persistence wiring
// - Interactive and socket input loops
// - Output destination handling
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/client"
	"github.com/richinex/pilotchat/config"
	"github.com/richinex/pilotchat/session"
	"github.com/richinex/pilotchat/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Model    string
	Files    []string
	// StorePath selects the SQLite backend when non-empty; the default
	// is one JSON file per directory under the cache root.
	StorePath string
	Verbose   bool
}

// RunOnce sends a single prompt and exits. The session is loaded for the
// current directory and saved afterwards.
func RunOnce(ctx context.Context, prompt, stdin string, opts Options) error {
	env, err := setup(opts)
	if err != nil {
		return err
	}
	defer env.store.Close()

	if err := env.load(ctx); err != nil {
		return err
	}

	if err := env.sess.Send(ctx, session.Prompt{
		Model: opts.Model,
		Text:  prompt,
		Stdin: stdin,
		Kind:  chat.KindCode,
		Files: opts.Files,
	}); err != nil {
		return err
	}
	fmt.Println()

	return env.save(ctx)
}

// RunInteractive runs the prompt loop: the initial prompt (if any) is sent
// first, then lines are read from stdin until "exit".
func RunInteractive(ctx context.Context, prompt, stdin string, opts Options) error {
	env, err := setup(opts)
	if err != nil {
		return err
	}
	defer env.store.Close()

	if err := env.load(ctx); err != nil {
		return err
	}

	files := opts.Files
	if prompt != "" || stdin != "" {
		if err := env.turn(ctx, prompt, stdin, files, opts.Model); err != nil {
			return err
		}
		// Referenced files stay tracked; no need to re-send them.
		files = nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}

		if err := env.turn(ctx, input, "", files, opts.Model); err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			continue
		}
		files = nil
	}
	return scanner.Err()
}

// RunTCP serves prompts over a local socket. Each request is a single
// `files@prompt` line; the streamed reply goes back over the connection.
func RunTCP(ctx context.Context, addr string, opts Options) error {
	env, err := setup(opts)
	if err != nil {
		return err
	}
	defer env.store.Close()

	if err := env.load(ctx); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer listener.Close()

	zap.L().Info("listening", zap.String("addr", addr))
	fmt.Printf("Listening on %s\n", addr)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}

		done, err := env.serveConn(ctx, conn, opts.Model)
		conn.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if done {
			return nil
		}
	}
}

// Commit asks for a commit message seeded from the staged diff. The
// conversation is throwaway: nothing is loaded or saved.
func Commit(ctx context.Context, prompt, stdin string, opts Options) error {
	diff := stdin
	if diff == "" {
		out, err := Executor{}.Execute(ctx, "git", "diff", "--staged")
		if err != nil {
			return err
		}
		diff = out
	}
	if strings.TrimSpace(diff) == "" {
		return fmt.Errorf("git diff is empty: ensure you are in a repository and that the changes are staged")
	}

	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	provider, err := client.New(settings)
	if err != nil {
		return err
	}

	sess := session.New(provider, settings, os.Stdout)
	if err := sess.Send(ctx, session.Prompt{
		Model: opts.Model,
		Text:  prompt,
		Stdin: diff,
		Kind:  chat.KindCommit,
	}); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// Models prints the model ids available from the provider.
func Models(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	provider, err := client.New(settings)
	if err != nil {
		return err
	}

	lister, ok := provider.(client.ModelLister)
	if !ok {
		return fmt.Errorf("provider %s cannot list models", provider.Name())
	}

	ids, err := lister.Models(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// Clear deletes the saved session for the current directory.
func Clear(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	store, err := openStore(settings, opts.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := currentKey()
	if err != nil {
		return err
	}

	_, found, err := store.Load(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("Chat not found; skipping clearing.")
		return nil
	}

	if err := store.Delete(ctx, key); err != nil {
		return err
	}
	fmt.Println("Chat cleared successfully")
	return nil
}

// env bundles the pieces a chat command needs.
type env struct {
	sess  *session.Session
	store storage.Store
	key   string
}

func setup(opts Options) (*env, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	provider, err := client.New(settings)
	if err != nil {
		return nil, err
	}

	store, err := openStore(settings, opts.StorePath)
	if err != nil {
		return nil, err
	}

	key, err := currentKey()
	if err != nil {
		store.Close()
		return nil, err
	}

	return &env{
		sess:  session.New(provider, settings, os.Stdout),
		store: store,
		key:   key,
	}, nil
}

func openStore(settings config.Settings, storePath string) (storage.Store, error) {
	if storePath != "" {
		return storage.OpenSqlite(storePath)
	}
	return storage.NewFileStore(settings.CacheDir), nil
}

func currentKey() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return storage.SessionKey(cwd), nil
}

func (e *env) load(ctx context.Context) error {
	rec, found, err := e.store.Load(ctx, e.key)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if found {
		zap.L().Info("resuming session",
			zap.String("key", e.key),
			zap.Int("messages", len(rec.Messages)))
		e.sess.Restore(rec.Messages, rec.Files)
	}
	return nil
}

func (e *env) save(ctx context.Context) error {
	rec := storage.Record{
		Key:      e.key,
		Messages: e.sess.Messages(),
		Files:    e.sess.Baselines(),
	}
	if err := e.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// turn sends one prompt and persists the session.
func (e *env) turn(ctx context.Context, text, stdin string, files []string, model string) error {
	if err := e.sess.Send(ctx, session.Prompt{
		Model: model,
		Text:  text,
		Stdin: stdin,
		Kind:  chat.KindCode,
		Files: files,
	}); err != nil {
		return err
	}
	fmt.Println()
	return e.save(ctx)
}

// serveConn handles one socket request. Returns true when the client asked
// to exit.
func (e *env) serveConn(ctx context.Context, conn net.Conn, model string) (bool, error) {
	req, err := readRequest(conn)
	if err != nil {
		return false, err
	}

	if req.prompt == "exit" {
		return true, nil
	}

	e.sess.SetOutput(conn)
	defer e.sess.SetOutput(os.Stdout)

	return false, e.turn(ctx, req.prompt, "", req.files, model)
}

// request is one socket message: `files@prompt`, files optional.
type request struct {
	prompt string
	files  []string
}

func parseRequest(raw string) request {
	fileStr, prompt, found := strings.Cut(raw, "@")
	if !found {
		return request{prompt: strings.TrimSpace(raw)}
	}

	var files []string
	if fileStr != "" {
		for _, f := range strings.Split(fileStr, ",") {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
	}
	return request{prompt: strings.TrimSpace(prompt), files: files}
}

func readRequest(conn net.Conn) (request, error) {
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return request{}, fmt.Errorf("read request: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return request{}, fmt.Errorf("empty request")
	}
	return parseRequest(line), nil
}

// ReadPipedStdin returns piped input when stdin is not a terminal.
func ReadPipedStdin() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("stat stdin: %w", err)
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
