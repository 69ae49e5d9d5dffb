package directedinputs

import (
	"io"
	"log/slog"
	"os"
)

// EnvironFunc enumerates the process environment as KEY=VALUE pairs. Override
// with WithEnviron to run against a fabricated environment in tests.
type EnvironFunc func() []string

type config struct {
	values          map[string]any
	fromEnvironment bool
	envPrefix       string
	stripEnvPrefix  bool
	fromStdin       bool
	environ         EnvironFunc
	stdin           io.Reader
	logger          *slog.Logger
}

func defaultConfig() config {
	return config{
		fromEnvironment: true,
		environ:         os.Environ,
		stdin:           os.Stdin,
	}
}

// Option configures an Inputs context (and, through NewBinder, every context a
// Binder produces).
type Option func(*config)

// WithValues seeds the context with explicit inputs. These are the
// highest-priority non-call-site source: neither the environment nor stdin
// overwrites them.
func WithValues(values map[string]any) Option {
	return func(c *config) {
		if c.values == nil {
			c.values = make(map[string]any, len(values))
		}
		for k, v := range values {
			c.values[k] = v
		}
	}
}

// WithoutEnvironment disables environment variable loading.
func WithoutEnvironment() Option {
	return func(c *config) {
		c.fromEnvironment = false
	}
}

// WithEnvPrefix restricts environment loading to variables whose raw key
// starts with prefix (case-sensitive). When strip is true the prefix is
// removed from the stored key.
func WithEnvPrefix(prefix string, strip bool) Option {
	return func(c *config) {
		c.envPrefix = prefix
		c.stripEnvPrefix = strip
	}
}

// FromStdin enables reading one JSON document from stdin. The stream is not
// touched until the first lookup that needs it, and is consumed at most once
// per context regardless of outcome.
func FromStdin() Option {
	return func(c *config) {
		c.fromStdin = true
	}
}

// WithEnviron overrides how the environment snapshot is obtained.
func WithEnviron(fn EnvironFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.environ = fn
		}
	}
}

// WithStdin overrides the reader consumed by FromStdin.
func WithStdin(r io.Reader) Option {
	return func(c *config) {
		if r != nil {
			c.stdin = r
		}
	}
}

// WithLogger attaches a logger used by the binding layer to record resolution
// decisions at debug level. Without it nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

type getConfig struct {
	def          any
	hasDefault   bool
	required     bool
	aliases      []string
	kind         Kind
	fromBase64   bool
	fromJSON     bool
	fromYAML     bool
	defaultIfNil bool
}

// GetOption adjusts a single Get or Decode lookup.
type GetOption func(*getConfig)

// Default supplies a fallback used when no source provides a value.
func Default(value any) GetOption {
	return func(g *getConfig) {
		g.def = value
		g.hasDefault = true
	}
}

// Required makes the lookup fail with a MissingInputError when no source
// provides a value.
func Required() GetOption {
	return func(g *getConfig) {
		g.required = true
	}
}

// Aliases adds additional lookup keys tried, in order, after the primary key.
func Aliases(keys ...string) GetOption {
	return func(g *getConfig) {
		g.aliases = append(g.aliases, keys...)
	}
}

// As coerces the looked-up value to the given kind.
func As(kind Kind) GetOption {
	return func(g *getConfig) {
		g.kind = kind
	}
}

// AsBool coerces the value to a boolean using the strict token sets.
func AsBool() GetOption { return As(KindBool) }

// AsInt coerces the value to an int64.
func AsInt() GetOption { return As(KindInt) }

// AsFloat coerces the value to a float64.
func AsFloat() GetOption { return As(KindFloat) }

// AsPath treats the value as a filesystem path. Repeated separators are
// collapsed; ".." is preserved and existence is never checked.
func AsPath() GetOption { return As(KindPath) }

// AsTime parses the value as an ISO-8601 timestamp.
func AsTime() GetOption { return As(KindTime) }

// AsDuration parses the value as a Go duration string.
func AsDuration() GetOption { return As(KindDuration) }

// FromBase64 base64-decodes the value before any JSON or YAML parsing.
func FromBase64() GetOption {
	return func(g *getConfig) {
		g.fromBase64 = true
	}
}

// FromJSON parses the (post-base64) value as JSON.
func FromJSON() GetOption {
	return func(g *getConfig) {
		g.fromJSON = true
	}
}

// FromYAML parses the (post-base64) value as YAML.
func FromYAML() GetOption {
	return func(g *getConfig) {
		g.fromYAML = true
	}
}

// DefaultIfNil substitutes the default when a decode produces an explicit
// null.
func DefaultIfNil() GetOption {
	return func(g *getConfig) {
		g.defaultIfNil = true
	}
}

func applyGetOptions(opts []GetOption) getConfig {
	var g getConfig
	for _, opt := range opts {
		opt(&g)
	}
	return g
}
