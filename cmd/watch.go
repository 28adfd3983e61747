package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/FluidXR/adbwifi/internal/adb"
	"github.com/FluidXR/adbwifi/internal/poller"
	"github.com/FluidXR/adbwifi/internal/saved"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:               "watch",
	Short:             "Watch devices and manage WiFi connections interactively",
	PersistentPreRunE: requireDeps(),
	Long: `Polls adb for devices and reprints the list whenever it changes.
Type 'help' for the commands available while watching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := a.savedStore()
		defer store.Close()

		s := newSession(os.Stdout, store, poller.New(a.adb, a.cfg.PollInterval, a.log), a.adb, a.cfg.TCPIPPort, a.log)
		return s.run(ctx, readLines(os.Stdin), stop)
	},
}

// connector is the adb surface the watch session uses for user actions.
type connector interface {
	Connect(ctx context.Context, ip string, port int) error
	Disconnect(ctx context.Context, ip string, port int) error
}

// session is the presentation side of watch. Everything it prints and every
// store call it makes happens on the goroutine running run.
type session struct {
	out     io.Writer
	store   *saved.Store
	poller  *poller.Poller
	conn    connector
	port    int
	log     zerolog.Logger
	saved   chan []adb.Device
	results chan string
}

func newSession(out io.Writer, store *saved.Store, p *poller.Poller, conn connector, port int, logger zerolog.Logger) *session {
	s := &session{
		out:     out,
		store:   store,
		poller:  p,
		conn:    conn,
		port:    port,
		log:     logger,
		saved:   make(chan []adb.Device, 1),
		results: make(chan string, 8),
	}
	store.OnChange(s.savedChanged)
	return s
}

// savedChanged runs on the store goroutine, so it only hands the list over.
func (s *session) savedChanged(list []adb.Device) {
	select {
	case s.saved <- list:
		return
	default:
	}
	select {
	case <-s.saved:
	default:
	}
	select {
	case s.saved <- list:
	default:
	}
}

// run drives the poller and handles user input until ctx ends or the user
// quits through quit.
func (s *session) run(ctx context.Context, lines <-chan string, quit func()) error {
	pollDone := make(chan error, 1)
	go func() { pollDone <- s.poller.Run(ctx) }()

	printWelcome(s.out, len(s.store.List()))
	updates := s.poller.Updates()

	for {
		select {
		case devices, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			s.store.SetCurrent(devices)
			fmt.Fprintln(s.out)
			printDevices(s.out, devices, s.store)

		case list := <-s.saved:
			printSaved(s.out, list, s.store)

		case msg := <-s.results:
			fmt.Fprintln(s.out, msg)

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if s.handle(ctx, line) {
				quit()
			}

		case err := <-pollDone:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			// The loop only ends on its own when ctx did; say so rather than
			// leaving a stale device list on screen.
			fmt.Fprintf(s.out, "Device polling stopped: %v\n", err)
			return err
		}
	}
}

// handle executes one user command and reports whether the user asked to quit.
func (s *session) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, arg := strings.ToLower(fields[0]), ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch verb {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, watchHelp)
	case "pause":
		s.poller.SetActive(false)
		fmt.Fprintln(s.out, "Polling paused.")
	case "resume":
		s.poller.SetActive(true)
		fmt.Fprintln(s.out, "Polling resumed.")
	case "list", "ls":
		printDevices(s.out, s.store.Current(), s.store)
		printSaved(s.out, s.store.List(), s.store)
	case "save":
		if arg == "" {
			fmt.Fprintln(s.out, "usage: save <ip>")
			break
		}
		if _, err := saveLive(s.store, arg); err != nil {
			fmt.Fprintf(s.out, "Save failed: %v\n", err)
		}
	case "delete", "forget":
		if arg == "" {
			fmt.Fprintln(s.out, "usage: delete <ip>")
			break
		}
		if !s.store.HasRemoteIPSaved(arg) {
			fmt.Fprintf(s.out, "No saved connection for %s\n", arg)
			break
		}
		s.store.Delete(adb.Device{RemoteIP: arg})
	case "connect", "disconnect":
		if arg == "" {
			fmt.Fprintf(s.out, "usage: %s <ip>\n", verb)
			break
		}
		go s.connect(ctx, verb, arg)
	default:
		fmt.Fprintf(s.out, "Unknown command %q, type 'help'\n", verb)
	}
	return false
}

// connect runs adb connect/disconnect off the presentation goroutine and
// reports back through results.
func (s *session) connect(ctx context.Context, verb, ip string) {
	var err error
	if verb == "connect" {
		err = s.conn.Connect(ctx, ip, s.port)
	} else {
		err = s.conn.Disconnect(ctx, ip, s.port)
	}
	msg := fmt.Sprintf("%s %s: ok", verb, ip)
	if err != nil {
		s.log.Warn().Err(err).Str("ip", ip).Msg(verb + " failed")
		msg = fmt.Sprintf("%s %s: %v", verb, ip, err)
	}
	select {
	case s.results <- msg:
	case <-ctx.Done():
	}
}

const watchHelp = `Commands:
  list               show devices and saved connections
  save <ip>          save the live connection with this address
  delete <ip>        forget a saved connection
  connect <ip>       connect over WiFi
  disconnect <ip>    drop a WiFi connection
  pause | resume     stop or restart device polling
  quit               leave`

// readLines feeds stdin lines into a channel, closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
