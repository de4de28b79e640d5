// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/boot"
	"github.com/tyx/aerys/config"
	"github.com/tyx/aerys/handler/docroot"
	"github.com/tyx/aerys/handler/metrics"
	"github.com/tyx/aerys/handler/proxy"
	"github.com/tyx/aerys/logging"
	"github.com/tyx/aerys/runtime"

	"github.com/spf13/cobra"
)

func main() {
	err := newCommand().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "aerys",
		Short:        "Run the aerys HTTP server from a declarative host config",
		RunE:         run,
		SilenceUsage: true,
	}
	cmd.Flags().StringP("config", "c", "", "path to the config file, or a directory holding config.yaml")
	cmd.Flags().BoolP("debug", "d", false, "leave options unsealed and log at debug level")
	cmd.Flags().String("log-level", "warning", "minimum severity to emit (debug..emergency)")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	log := logging.New(logging.NewSlogSink(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	args := flagArgs{cmd: cmd}

	if name := args.Arg("log-level"); name != "" {
		level, ok := logging.ParseLevel(name)
		if !ok {
			return fmt.Errorf("unknown log level %q", name)
		}
		log.SetOutputLevel(int(level))
	}
	if args.Defined("debug") {
		log.SetOutputLevel(int(logging.Debug))
	}

	registry, err := loadRegistry(args.Arg("config"))
	if err != nil {
		return err
	}

	srv, err := boot.Bootstrap(cmd.Context(), args, registry, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runtime.New(srv, log).Run(ctx)
}

// flagArgs adapts cobra flags to the boot.Args accessor contract.
type flagArgs struct {
	cmd *cobra.Command
}

func (a flagArgs) Arg(name string) string {
	v, _ := a.cmd.Flags().GetString(name)
	return v
}

func (a flagArgs) Defined(name string) bool {
	ok, _ := a.cmd.Flags().GetBool(name)
	return ok
}

// hostSpec is one declared host in the config file's hosts section.
type hostSpec struct {
	Name    string `config:"name"`
	Address string `config:"address"`
	Port    int    `config:"port"`
	Docroot string `config:"docroot"`
	Proxy   string `config:"proxy"`
	Metrics bool   `config:"metrics"`
}

type hostsConfig struct {
	Hosts []hostSpec `config:"hosts"`
}

// loadRegistry builds the host registry from the config file's hosts
// section. Hosts without any declared action still assemble: they get
// the server's default success responder.
func loadRegistry(path string) (aerys.HostRegistry, error) {
	registry := aerys.NewRegistry()

	resolved, err := config.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}

	var src config.Source
	if strings.EqualFold(filepath.Ext(resolved), ".json") {
		src = config.FromJson(f)
	} else {
		src = config.FromYaml(f)
	}
	m, err := config.Read(src)
	if err != nil {
		return nil, err
	}

	var cfg hostsConfig
	if err := m.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	for _, spec := range cfg.Hosts {
		address := spec.Address
		if address == "" {
			address = "0.0.0.0"
		}
		port := spec.Port
		if port == 0 {
			port = 80
		}

		host := aerys.Host{
			Name:       spec.Name,
			Interfaces: []aerys.Interface{{Address: address, Port: port}},
		}
		if spec.Metrics {
			host.Actions = append(host.Actions, metrics.NewMiddleware(nil))
		}
		if spec.Docroot != "" {
			host.Actions = append(host.Actions, docroot.New(spec.Docroot))
		}
		if spec.Proxy != "" {
			host.Actions = append(host.Actions, proxy.New(spec.Proxy))
		}
		registry.Add(host)
	}
	return registry, nil
}
