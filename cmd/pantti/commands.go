package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/app"
	"github.com/muurk/pantti/internal/config"
	"github.com/muurk/pantti/internal/discovery"
	"github.com/muurk/pantti/internal/logging"
	"github.com/muurk/pantti/internal/notify"
	"github.com/muurk/pantti/internal/palpa"
	"github.com/muurk/pantti/internal/scanner"
	"github.com/muurk/pantti/internal/server"
	"github.com/muurk/pantti/internal/tui"
	"github.com/muurk/pantti/internal/ui"
	"github.com/muurk/pantti/internal/version"
)

// Command flags
var (
	baudRate    int
	portFilter  string
	useStdin    bool
	lookupURL   string
	noNotify    bool
	serveHost   string
	servePort   int
	certPath    string
	keyPath     string
	advertise   bool
	serviceName string
	skipCheck   bool
	scanTimeout int
	forceInit   bool
)

func init() {
	// Scanner and lookup flags are shared by every command that scans
	for _, cmd := range []*cobra.Command{rootCmd, tuiCmd, serveCmd, devicesCmd} {
		cmd.Flags().IntVar(&baudRate, "baud", 0, "Serial baud rate (default from config)")
		cmd.Flags().StringVar(&portFilter, "ports", "", "Only use serial ports whose name or product contains this")
	}
	for _, cmd := range []*cobra.Command{rootCmd, tuiCmd, serveCmd, lookupCmd} {
		cmd.Flags().StringVar(&lookupURL, "lookup-url", "", "Deposit API base URL (default from config)")
	}
	for _, cmd := range []*cobra.Command{rootCmd, tuiCmd, serveCmd} {
		cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Disable desktop notifications")
	}
	serveCmd.Flags().BoolVar(&useStdin, "stdin", false, "Offer standard input as a capture device")
	devicesCmd.Flags().BoolVar(&useStdin, "stdin", false, "Include standard input in the list")

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the server over mDNS")
	serveCmd.Flags().StringVar(&serviceName, "name", "", "mDNS instance name (default from config)")

	lookupCmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Send the barcode as is, without checksum validation")

	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Browse timeout in seconds (default from config)")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configPathCmd, configShowCmd)

	rootCmd.AddCommand(tuiCmd, serveCmd, lookupCmd, devicesCmd, discoverCmd, configCmd)
}

// applyFlags lets command-line flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("baud") {
		cfg.Scanner.BaudRate = baudRate
	}
	if flags.Changed("ports") {
		cfg.Scanner.PortFilter = portFilter
	}
	if flags.Changed("stdin") {
		cfg.Scanner.Stdin = useStdin
	}
	if flags.Changed("lookup-url") {
		cfg.Lookup.BaseURL = lookupURL
	}
	if flags.Changed("no-notify") {
		cfg.UI.Notify = !noNotify
	}
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("cert") {
		cfg.Server.CertPath = certPath
	}
	if flags.Changed("key") {
		cfg.Server.KeyPath = keyPath
	}
	if flags.Changed("advertise") {
		cfg.Server.Advertise = advertise
	}
	if flags.Changed("name") {
		cfg.Server.ServiceName = serviceName
	}
	if flags.Changed("timeout") {
		cfg.Server.DiscoverTimeout = scanTimeout
	}
}

func newLookupClient(cfg *config.Config) *palpa.Client {
	client := palpa.NewClient(cfg.Lookup.BaseURL)
	client.SetTimeout(cfg.LookupTimeout())
	client.UserAgent = "pantti/" + version.Version
	return client
}

func newOpener(cfg *config.Config) *scanner.SerialOpener {
	return scanner.NewSerialOpener(cfg.Scanner.BaudRate, cfg.Scanner.PortFilter, cfg.Scanner.Stdin)
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.UI.Notify {
		return notify.Nop{}
	}
	return notify.NewDesktop(cfg.Scanner.Beep)
}

func newApp(cfg *config.Config) *app.App {
	opener := newOpener(cfg)
	return app.New(app.Options{
		MountID:  cfg.UI.MountID,
		Session:  scanner.NewLineSession(opener),
		Media:    scanner.NewPortMedia(opener),
		Lookup:   newLookupClient(cfg),
		Notifier: newNotifier(cfg),
	})
}

// tuiCmd is the explicit form of running without a command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal interface",
	Long: `Run the terminal interface.

Capture devices are the serial barcode readers attached to this machine.
Standard input is not offered as a device because the interface reads
keys from it. Logs go to --log-file, or to pantti.log in the temporary
directory when only --log-level is set.`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	cfg.Scanner.Stdin = false

	if logFile == "" && (logLevel != "" || os.Getenv(logging.LogLevelEnvVar) != "") {
		if err := logging.InitializeToFile(logLevel, filepath.Join(os.TempDir(), "pantti.log")); err != nil {
			return err
		}
	}

	a := newApp(cfg)
	bridge := tui.NewBridge()
	a.OnRender(bridge.OnRender)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	uiErr := tui.Run(bridge, a)
	cancel()
	return errors.Join(uiErr, <-done)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the checker to browsers",
	Long: `Serve the checker over HTTP. Every connected browser shows the same
live view and can press its buttons; barcodes are read from the capture
devices of this machine.

With --advertise the server announces itself over mDNS so that
'pantti discover' finds it on the local network.`,
	Example: `  # Serve on the configured port
  pantti serve

  # Serve on port 9000 and announce over mDNS
  pantti serve --port 9000 --advertise

  # Read barcodes typed into this terminal
  pantti serve --stdin`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a := newApp(cfg)
	srv, err := server.New(&server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CertPath:    cfg.Server.CertPath,
		KeyPath:     cfg.Server.KeyPath,
		Advertise:   cfg.Server.Advertise,
		ServiceName: cfg.Server.ServiceName,
		MountID:     cfg.UI.MountID,
		Version:     version.Version,
	}, a)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	a.OnRender(srv.OnRender)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheme := "http"
	if cfg.Server.CertPath != "" {
		scheme = "https"
	}
	fmt.Printf("Serving on %s://%s\n", scheme, net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))

	errc := make(chan error, 2)
	go func() { errc <- a.Run(ctx) }()
	go func() { errc <- srv.Start(ctx) }()

	first := <-errc
	stop()
	second := <-errc

	logging.Info("Shut down", zap.NamedError("first", first), zap.NamedError("second", second))
	return errors.Join(first, second)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <barcode>",
	Short: "Look up the deposit of one barcode",
	Long: `Look up the deposit of one barcode without scanning.

The barcode is checked like a scanned one: EAN-13 and EAN-8 codes must
have a valid check digit, and 12-digit UPC-A codes are widened to EAN-13.`,
	Example: `  pantti lookup 6410405082658
  pantti lookup --skip-check 123`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	barcode := args[0]
	if !skipCheck {
		result, err := scanner.Decode(barcode)
		if err != nil {
			return fmt.Errorf("%q is not a valid EAN barcode (use --skip-check to send it anyway)", barcode)
		}
		barcode = result.Text
	}

	client := newLookupClient(cfg)
	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader("Deposit lookup", "pantti lookup",
		ui.Detail{Key: "Barcode", Value: barcode},
		ui.Detail{Key: "Endpoint", Value: client.URL(barcode)},
	)

	resp, err := client.Lookup(cmd.Context(), barcode)
	if err != nil {
		printer.PrintError("Lookup failed", err, []string{
			"Check your network connection",
			"The API is unofficial and may have changed; try --lookup-url",
		})
		return err
	}

	printer.PrintLookup(barcode, resp)
	return nil
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	RunE:  runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if !cmd.Flags().Changed("stdin") {
		cfg.Scanner.Stdin = false
	}

	devices, err := newOpener(cfg).Ports(cmd.Context())
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	if len(devices) == 0 {
		printer.PrintWarning("No capture devices found",
			ui.Detail{Key: "Port filter", Value: cfg.Scanner.PortFilter},
		)
		return nil
	}

	details := make([]ui.Detail, 0, len(devices))
	for _, d := range devices {
		details = append(details, ui.Detail{Key: d.ID, Value: d.Label})
	}
	printer.PrintSuccess(fmt.Sprintf("Found %d device(s)", len(devices)), details...)
	return nil
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find pantti servers on the local network",
	Long:  `Browse mDNS for servers started with 'pantti serve --advertise'.`,
	RunE:  runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	timeout := cfg.DiscoverTimeout()
	if timeout < time.Second {
		return fmt.Errorf("discover timeout must be at least 1s, got %s", timeout)
	}
	fmt.Printf("Browsing for pantti servers (timeout: %s)...\n\n", timeout)

	hosts, err := discovery.Browse(cmd.Context(), timeout)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	printer := ui.NewPrinter(os.Stdout)
	if len(hosts) == 0 {
		printer.PrintResult(ui.NewWarningResult("No servers found").SetBody(
			"Start one with 'pantti serve --advertise', or try a longer --timeout."))
		return nil
	}

	details := make([]ui.Detail, 0, len(hosts))
	for _, h := range hosts {
		details = append(details, ui.Detail{Key: h.Instance, Value: h.BaseURL() + "  (v" + h.Version() + ")"})
	}
	printer.PrintSuccess(fmt.Sprintf("Found %d server(s)", len(hosts)), details...)
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		force := forceInit
		if !force {
			if path, err := resolveConfigPath(); err == nil {
				if _, err := os.Stat(path); err == nil && ui.IsTerminal() {
					force = ui.Confirm(os.Stdin, os.Stdout, "Config file "+path+" exists. Overwrite?")
					if !force {
						return nil
					}
				}
			}
		}

		path, err := config.CreateDefaultConfig(configPath, force)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}
