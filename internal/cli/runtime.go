package cli

import (
	"github.com/sirupsen/logrus"

	"dbf-converter/internal/logging"
	"dbf-converter/internal/version"
	"dbf-converter/internal/workspace"
)

// runtimeEnv is what every converting command needs: merged options and a
// logger. close must be called when the command finishes.
type runtimeEnv struct {
	configPath string
	settings   workspace.Settings
	resolved   workspace.Resolved
	logger     logrus.FieldLogger
	close      func()
}

func loadRuntime(configFlag string, overrides workspace.Overrides, single, debug bool) (runtimeEnv, error) {
	configPath := workspace.ConfigPath(configFlag)
	settings, err := workspace.ReadSettings(configPath)
	if err != nil {
		return runtimeEnv{}, err
	}
	resolved, err := workspace.Resolve(settings, overrides, single)
	if err != nil {
		return runtimeEnv{}, err
	}
	logger, cleanup, err := logging.Open(settings.LogFile, settings.Debug || debug)
	if err != nil {
		return runtimeEnv{}, err
	}
	return runtimeEnv{
		configPath: configPath,
		settings:   settings,
		resolved:   resolved,
		logger:     logging.WithVersion(logger, version.Value),
		close:      cleanup,
	}, nil
}
