package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mdlayher/wwan"
	"github.com/mdlayher/wwan/internal/command"
	"github.com/mdlayher/wwan/internal/config"
	"github.com/mdlayher/wwan/internal/journal"
	"github.com/mdlayher/wwan/internal/kernel"
	"github.com/mdlayher/wwan/internal/mmcli"
	"github.com/mdlayher/wwan/internal/mmdbus"
	"github.com/mdlayher/wwan/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Commands declare the resources setup must open for them with an
// annotation.
const (
	needsAnnotation = "wwanctl.needs"
	needsBackends   = "backends"
	needsJournal    = "journal"
	needsRequest    = "request"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "0.1.0"

// backends are the Daemon and Kernel implementations selected by the
// configuration.
type backends struct {
	Daemon wwan.Daemon
	Kernel wwan.Kernel

	// DaemonVersion is the ModemManager version, if known.
	DaemonVersion string

	Close func() error
}

// An openFunc opens the backends named by cfg.
type openFunc func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*backends, error)

// An app holds the state shared by every wwanctl command.
type app struct {
	// Global flags.
	cfgFile string
	output  string
	daemon  string
	kernel  string
	verbose bool

	// Set during PersistentPreRunE.
	cfg       *config.Config
	log       *logrus.Logger
	be        *backends
	client    *wwan.Client
	formatter output.Formatter
	journal   *journal.Store

	// req is filled in by the lte flags.
	req wwan.Request

	open openFunc
}

func newApp(open openFunc) *app {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	return &app{log: log, open: open}
}

// command builds the wwanctl command tree.
func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "wwanctl",
		Short: "Bind cellular modems to network interfaces and manage their connections",
		Long: `wwanctl discovers modems managed by ModemManager, resolves the kernel
network interface each one drives, and connects or disconnects them by
configuring that interface's address, link state and default route.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	fs := root.PersistentFlags()
	fs.StringVar(&a.cfgFile, "config", "", "config file (default is "+config.DefaultPath+")")
	fs.StringVarP(&a.output, "output", "o", "", `output format: table, json, yaml (default "table")`)
	fs.StringVar(&a.daemon, "daemon", "", "modem daemon backend: dbus, mmcli")
	fs.StringVar(&a.kernel, "kernel", "", "kernel backend: netlink, iproute2")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.listModemCommand(),
		a.listDeviceCommand(),
		a.bindingCommand(),
		a.lteCommand(),
		a.historyCommand(),
		a.versionCommand(),
	)

	return root
}

// setup loads the configuration and opens the backends it names.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	needs := cmd.Annotations[needsAnnotation]

	// Reject malformed requests before touching anything outside the process.
	if strings.Contains(needs, needsRequest) {
		if err := a.req.Validate(); err != nil {
			return err
		}
	}

	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}

	// Override config with flags.
	if a.output != "" {
		cfg.Output = a.output
	}
	if a.daemon != "" {
		cfg.Daemon = a.daemon
	}
	if a.kernel != "" {
		cfg.Kernel = a.kernel
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	a.log.SetLevel(lvl)

	a.formatter = output.NewFormatter(cfg.Output)

	if strings.Contains(needs, needsBackends) {
		be, err := a.open(cmd.Context(), cfg, a.log)
		if err != nil {
			return err
		}
		a.be = be

		a.client = wwan.NewClient(be.Daemon, be.Kernel, &wwan.Config{
			APN:         cfg.APN,
			RouteMetric: cfg.RouteMetric,
			Logger:      a.log,
		})
	}
	if strings.Contains(needs, needsJournal) {
		return a.openJournal()
	}

	return nil
}

func (a *app) openJournal() error {
	if a.cfg.Journal == "" {
		return nil
	}

	s, err := journal.Open(a.cfg.Journal, a.log)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	a.journal = s

	return nil
}

// Close releases the resources opened by setup.
func (a *app) Close() error {
	var err error
	if a.journal != nil {
		err = a.journal.Close()
	}
	if a.be != nil && a.be.Close != nil {
		if cerr := a.be.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// openBackends opens the Daemon and Kernel backends named by cfg.
func openBackends(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*backends, error) {
	be := &backends{Close: func() error { return nil }}

	switch cfg.Daemon {
	case config.DaemonDBus:
		c, err := mmdbus.Dial(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to dial ModemManager: %w", err)
		}

		be.Daemon = c
		be.DaemonVersion = c.Version
		be.Close = c.Close
	case config.DaemonMMCLI:
		be.Daemon = mmcli.New(cfg.MMCLIPath, &command.Exec{Log: log})
	}

	switch cfg.Kernel {
	case config.KernelNetlink:
		be.Kernel = kernel.NewNetlink(log)
	case config.KernelIPRoute2:
		be.Kernel = kernel.NewIPRoute2(cfg.IPPath, &command.Exec{Log: log})
	}

	log.WithFields(logrus.Fields{
		"daemon": cfg.Daemon,
		"kernel": cfg.Kernel,
	}).Debug("opened backends")

	return be, nil
}
