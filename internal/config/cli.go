package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/xvzc/ipksniff/internal/ptr"
)

const (
	configFilename = "ipksniff.toml"
	usageText      = "ipksniff [-i interface | --interface interface] {-p port} " +
		"{[--tcp|-t] [--udp|-u] [--arp] [--icmp]} {-n num}"
)

func CreateCommand(
	runFunc func(ctx context.Context, configPath string, cfg *Config) error,
	version string,
) *cli.Command {
	cmd := &cli.Command{
		Name:                   "ipksniff",
		Version:                version,
		Usage:                  "capture frames on a network interface and dump them",
		UsageText:              usageText,
		Description:            "Without an interface, the available devices are listed.",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name: "arp",
				Usage: `
				Capture ARP frames`,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name: "backend",
				Usage: `
				Capture facility, 'pcap' or 'afpacket' (linux only)`,
				Value:     "pcap",
				OnlyOnce:  true,
				Validator: checkBackend,
			},

			&cli.BoolFlag{
				Name: "clean",
				Usage: `
				if set, all configuration files will be ignored`,
				OnlyOnce: true,
			},

			&cli.BoolFlag{
				Name: "color",
				Usage: `
				Highlight the hex dump for a terminal`,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage: `
				Custom location of the config file to load. Options given through the command
				line flags will override the options set in this file.`,
				OnlyOnce: true,
				Sources:  cli.EnvVars("IPKSNIFF_CONFIG"),
			},

			&cli.BoolFlag{
				Name: "icmp",
				Usage: `
				Capture ICMP and ICMPv6 packets`,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name:    "interface",
				Aliases: []string{"i"},
				Usage: `
				Interface to capture on. When missing, the available interfaces are listed`,
				Value:    NoInterface,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name: "log-file",
				Usage: `
				Also write diagnostics to this file, rotated by size`,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name: "log-level",
				Usage: `
				Set log level (default: 'info')`,
				Value:     "info",
				OnlyOnce:  true,
				Validator: checkLogLevel,
			},

			&cli.IntFlag{
				Name:    "num",
				Aliases: []string{"n"},
				Usage: `
				Number of frames to report`,
				Value:    defaultCount,
				OnlyOnce: true,
			},

			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage: `
				Capture only TCP and UDP traffic on this port (1-65535)`,
				OnlyOnce: true,
			},

			&cli.IntFlag{
				Name: "snaplen",
				Usage: `
				Maximum number of bytes captured per frame (128-262144)`,
				Value:    defaultSnapLen,
				OnlyOnce: true,
			},

			&cli.BoolFlag{
				Name:    "tcp",
				Aliases: []string{"t"},
				Usage: `
				Capture TCP segments`,
				OnlyOnce: true,
			},

			&cli.IntFlag{
				Name: "timeout",
				Usage: `
				Read timeout of the capture device in milliseconds`,
				Value:    defaultTimeoutMillis,
				OnlyOnce: true,
			},

			&cli.BoolFlag{
				Name:    "udp",
				Aliases: []string{"u"},
				Usage: `
				Capture UDP datagrams`,
				OnlyOnce: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var tomlCfg *Config
			var configPath string
			if !cmd.Bool("clean") {
				p, err := searchTomlFile(cmd.String("config"), lookupPaths())
				if err != nil {
					return err
				}

				if p != "" {
					configPath = p
					tomlCfg, err = fromTomlFile(p)
					if err != nil {
						return fmt.Errorf("%w: error parsing toml config: %w", ErrInvalidArgument, err)
					}
				}
			}

			argsCfg, err := parseConfigFromArgs(cmd)
			if err != nil {
				return err
			}

			finalCfg := NewConfig().Merge(tomlCfg).Merge(argsCfg)
			if err := finalCfg.Validate(); err != nil {
				return err
			}

			return runFunc(ctx, configPath, finalCfg)
		},
	}

	cli.HelpFlag = &cli.BoolFlag{
		Name:    "help",
		Aliases: []string{"h"},
		Usage: `
        show help`,
	}

	return cmd
}

func lookupPaths() []string {
	return []string{
		path.Join(string(os.PathSeparator), "etc", configFilename),
		path.Join(os.Getenv("XDG_CONFIG_HOME"), "ipksniff", configFilename),
		path.Join(os.Getenv("HOME"), ".config", "ipksniff", configFilename),
	}
}

// parseConfigFromArgs keeps only the flags that were given, so that they
// override the config file and nothing else does.
func parseConfigFromArgs(cmd *cli.Command) (*Config, error) {
	general := &GeneralOptions{}
	if cmd.IsSet("log-level") {
		general.LogLevel = ptr.Of(MustParseLogLevel(cmd.String("log-level")))
	}
	if cmd.IsSet("log-file") {
		general.LogFile = ptr.Of(cmd.String("log-file"))
	}
	if cmd.IsSet("color") {
		general.Color = ptr.Of(cmd.Bool("color"))
	}

	capture := &CaptureOptions{}
	if cmd.IsSet("interface") {
		capture.Interface = ptr.Of(cmd.String("interface"))
	}
	// the port only matters for a capture, listing ignores it
	if cmd.IsSet("port") && !capture.Listing() {
		v := int64(cmd.Int("port"))
		if err := checkPort(v); err != nil {
			return nil, err
		}
		capture.Port = ptr.Of(uint16(v))
	}
	if cmd.IsSet("tcp") {
		capture.TCP = ptr.Of(cmd.Bool("tcp"))
	}
	if cmd.IsSet("udp") {
		capture.UDP = ptr.Of(cmd.Bool("udp"))
	}
	if cmd.IsSet("icmp") {
		capture.ICMP = ptr.Of(cmd.Bool("icmp"))
	}
	if cmd.IsSet("arp") {
		capture.ARP = ptr.Of(cmd.Bool("arp"))
	}
	if cmd.IsSet("num") {
		capture.Count = ptr.Of(int(cmd.Int("num")))
	}
	if cmd.IsSet("snaplen") {
		capture.SnapLen = ptr.Of(int(cmd.Int("snaplen")))
	}
	if cmd.IsSet("timeout") {
		v := int64(cmd.Int("timeout"))
		if err := checkUint16NonZero(v); err != nil {
			return nil, fmt.Errorf("%w: timeout %w", ErrInvalidArgument, err)
		}
		capture.Timeout = ptr.Of(time.Duration(v) * time.Millisecond)
	}
	if cmd.IsSet("backend") {
		capture.Backend = ptr.Of(MustParseBackend(cmd.String("backend")))
	}

	return &Config{General: general, Capture: capture}, nil
}
