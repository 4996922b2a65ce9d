package config

// Config is the on-disk mqbridge configuration. Today it only carries
// the launch-mode worker definition.
type Config struct {
	Worker WorkerConfig `toml:"worker"`
}

// WorkerConfig describes how launch mode starts the Maquette worker.
type WorkerConfig struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`

	// ReadyToken is the stderr marker the worker prints once its
	// socket endpoint is accepting requests.
	ReadyToken string `toml:"ready_token"`
	// QueueMax bounds the boot queue of requests held until ready.
	QueueMax int `toml:"queue_max"`
}

// IsConfigured reports whether a worker command is set.
func (w WorkerConfig) IsConfigured() bool {
	return w.Command != ""
}
