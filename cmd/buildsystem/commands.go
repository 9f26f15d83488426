package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/buildsystem/server/internal/handler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tick loop with an interactive console",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Run one console command, save and exit",
	Long: `Run a single console command against the database, for example:

  buildsystem exec worlds importall -g flat -c Alice
  buildsystem exec worlds setstatus spawn finished`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

// consoleSender is the server console. It holds every permission.
type consoleSender struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *consoleSender) Name() string { return "CONSOLE" }

func (c *consoleSender) HasPermission(string) bool { return true }

func (c *consoleSender) SendMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, msg)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := bootstrap(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer a.close()

	console := &consoleSender{out: cmd.OutOrStdout()}
	a.scripts.Announce = console.SendMessage
	a.deps.Async = a.goAsync

	// Console lines are read on their own goroutine and handled on the
	// tick goroutine.
	lines := make(chan string, 16)
	go readConsole(os.Stdin, lines)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	tickRate := a.cfg.Server.TickRate
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	printSection("Ready")
	printReady(fmt.Sprintf("World container %s", a.cfg.Worlds.Container))
	printReady(fmt.Sprintf("Tick loop started (tick: %s)", tickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			a.runner.Tick(tickRate)
		case line, ok := <-lines:
			if !ok {
				lines = nil // stdin closed, keep serving
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !handler.HandleCommand(console, line, a.deps) {
				console.SendMessage(a.deps.Messages.Prefixed("unknown_command"))
			}
		case sig := <-shutdownCh:
			a.log.Info("shutdown signal received", zap.String("signal", sig.String()))
			a.shutdown()
			a.log.Info("server stopped")
			return nil
		}
	}
}

func readConsole(r io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines <- sc.Text()
	}
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := bootstrap(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer a.close()

	console := &consoleSender{out: cmd.OutOrStdout()}
	a.scripts.Announce = console.SendMessage

	line := strings.Join(args, " ")
	if !handler.HandleCommand(console, line, a.deps) {
		return fmt.Errorf("not a worlds command: %q", line)
	}
	a.shutdown()
	return nil
}
