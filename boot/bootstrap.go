// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package boot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/config"
	"github.com/tyx/aerys/internal/try"
	"github.com/tyx/aerys/logging"
	"github.com/tyx/aerys/server"
)

// OptionsEnvKey is the process-wide option override: an environment
// variable holding a JSON object merged over the config file's values.
const OptionsEnvKey = "AERYS_OPTIONS"

// Args is the CLI argument accessor the bootstrapper consumes.
type Args interface {
	Arg(name string) string
	Defined(name string) bool
}

// ConfigEvalError occurs when the config file evaluates to no options.
type ConfigEvalError struct {
	Path string
}

// Error implements the error interface.
func (e ConfigEvalError) Error() string {
	return fmt.Sprintf("config file %q evaluated to no options", e.Path)
}

// Bootstrap resolves and seals the configuration, constructs the
// server's shared state and assembles every host yielded by the
// registry. Any failure is fatal to process startup; nothing is
// partially started.
func Bootstrap(ctx context.Context, args Args, registry aerys.HostRegistry, log *logging.Logger) (_ *server.Server, err error) {
	defer try.Recover(&err)

	path, err := config.ResolvePath(args.Arg("config"))
	if err != nil {
		return nil, err
	}

	m, err := evalConfig(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(m.Values()) == 0 {
		return nil, ConfigEvalError{Path: path}
	}
	if err := m.Merge(config.FromEnvJson(OptionsEnvKey)); err != nil {
		return nil, err
	}

	raw := m.Values()
	fileDebug, _ := raw["debug"].(bool)
	debug := fileDebug || args.Defined("debug")
	raw["debug"] = debug
	raw["configPath"] = path

	opts, err := config.Seal(raw, debug)
	if err != nil {
		return nil, err
	}

	srv := server.New(opts, log)
	loader := NewLoader(srv, log)

	hosts := registry.Hosts()
	if len(hosts) == 0 {
		hosts = []aerys.Host{defaultHost()}
		log.Notice("no hosts declared, falling back to the default host")
	}

	for _, host := range hosts {
		vh, err := AssembleVhost(ctx, host, loader)
		if err != nil {
			return nil, err
		}
		if err := srv.RegisterVhost(vh); err != nil {
			return nil, err
		}
	}

	log.Info("server bootstrapped",
		slog.String("config", path),
		slog.Bool("debug", debug),
		slog.Int("hosts", len(hosts)),
	)
	return srv, nil
}

// evalConfig evaluates the resolved config file through the source
// matching its extension.
func evalConfig(ctx context.Context, path string) (*config.Manager, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	reader := config.NewFileReader(os.DirFS(filepath.Dir(path)), filepath.Base(path))

	var src config.Source
	if strings.EqualFold(filepath.Ext(path), ".json") {
		src = config.FromJson(reader)
	} else {
		src = config.FromYaml(reader)
	}
	return config.Read(src)
}

func defaultHost() aerys.Host {
	return aerys.Host{
		Name: "localhost",
		Interfaces: []aerys.Interface{
			{Address: "0.0.0.0", Port: 80},
		},
	}
}
