// Package cli implements the client-side subcommands: listing the catalogue,
// calling a single operation, and running the agent loop. The server side
// lives behind "fsgate serve" and never goes through this package.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"fsgate/internal/agent"
	"fsgate/internal/client"
	"fsgate/internal/config"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitOpErr    = 1
	ExitUsageErr = 2
	ExitInternal = 3
)

// Run is the CLI entry point. Returns an exit code.
func Run(args []string) int {
	debug := false
	for len(args) > 0 && (args[0] == "-d" || args[0] == "--debug") {
		debug = true
		args = args[1:]
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage(os.Stdout)
		return ExitOK
	}

	logger := initLogger(debug)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitInternal
	}

	switch args[0] {
	case "tools":
		return runTools(cfg, logger)
	case "call":
		return runCall(cfg, logger, args[1:])
	case "agent":
		return runAgent(cfg, logger, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "fsgate: unknown command: %s\n", args[0])
		printUsage(os.Stderr)
		return ExitUsageErr
	}
}

func initLogger(debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func printUsage(out *os.File) {
	fmt.Fprintln(out, "Usage: fsgate <command> [arguments]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  serve              Run the filesystem server on stdio")
	fmt.Fprintln(out, "  tools              List the operations the server exposes")
	fmt.Fprintln(out, "  call <op> [ARGS]   Call one operation (--param value flags or a JSON object)")
	fmt.Fprintln(out, "  agent <prompt>     Let the model drive the operations to answer a prompt")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Flags:")
	fmt.Fprintln(out, "  -d, --debug        Verbose diagnostics on stderr")
}

// connect spawns the server subprocess and completes the handshake. By
// default the current binary re-executes itself with "serve" and the
// configured sandbox root, so client and server agree on the boundary.
func connect(ctx context.Context, cfg *config.Config) (*client.Client, error) {
	command := cfg.Client.Command
	args := cfg.Client.Args
	if command == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating own binary: %w", err)
		}
		command = exe
		args = []string{"serve", cfg.Root}
	}

	env := make([]string, 0, len(cfg.Client.Env))
	for k, v := range cfg.Client.Env {
		env = append(env, k+"="+v)
	}

	return client.Connect(ctx, command, env, args...)
}

func runTools(cfg *config.Config, logger zerolog.Logger) int {
	ctx := context.Background()
	c, err := connect(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitInternal
	}
	defer c.Close()

	ops, err := c.Operations(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitInternal
	}

	for _, op := range ops {
		fmt.Printf("%s\n    %s\n", op.Name, op.Description)
	}
	logger.Debug().Int("operations", len(ops)).Msg("catalogue listed")
	return ExitOK
}

func runCall(cfg *config.Config, logger zerolog.Logger, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fsgate: call requires an operation name")
		return ExitUsageErr
	}
	name := args[0]

	opArgs, err := parseCallArgs(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitUsageErr
	}

	ctx := context.Background()
	c, err := connect(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitInternal
	}
	defer c.Close()

	res, err := c.Invoke(ctx, name, opArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		if errors.Is(err, client.ErrUnknownOperation) || errors.Is(err, client.ErrInvalidArguments) {
			return ExitUsageErr
		}
		return ExitInternal
	}

	if res.IsError {
		fmt.Fprintln(os.Stderr, res.Text)
		return ExitOpErr
	}
	fmt.Println(res.Text)
	logger.Debug().Str("operation", name).Msg("call completed")
	return ExitOK
}

func runAgent(cfg *config.Config, logger zerolog.Logger, args []string) int {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "fsgate: agent requires a prompt")
		return ExitUsageErr
	}

	ctx := context.Background()
	c, err := connect(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitInternal
	}
	defer c.Close()

	a, err := agent.New(cfg.Agent, c, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitUsageErr
	}

	answer, err := a.Run(ctx, prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsgate: %v\n", err)
		return ExitInternal
	}
	fmt.Println(answer)
	return ExitOK
}
