/*
Package config loads and holds the bot configuration using toml.

An example configuration looks like this:

	command_char = "."
	log_folder = "logs"

	[sources.irc1]
		type = "Irc"
		[sources.irc1.config]
			server = "irc.example.org"
			port = 6697
			nickname = "multiq"
			tls = true
			channels = ["#bots"]

	[sources.console]
		type = "Console"

	[modules.pipe1]
		type = "pipe"
		priority = 10
		[modules.pipe1.subscriptions]
			irc1 = ["TextMessage"]
			console = ["TextMessage"]
		[modules.pipe1.config]
			[[modules.pipe1.config.endpoints]]
				source = "irc1"
				channel = "#bots"

The package also owns the process-wide shared configuration instance. Modules
read and occasionally write it at event time, so every access goes through
the instance's lock.
*/
package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	// defaultCommandChar prefixes text messages that should be treated as
	// commands.
	defaultCommandChar = "."
	// defaultLogFolder is where transcripts are written if not overridden.
	defaultLogFolder = "logs"
)

const (
	fmtErrFileRead      = "config: failed to read config file (%v)"
	fmtErrDecode        = "config: failed to decode config (%v)"
	fmtErrReservedID    = "config: source id %q is reserved"
	fmtErrMissingType   = "config(%v): requires a type, but nothing was given"
	errMsgNoCommandChar = "config: command_char must not be empty"
)

// Source is one configured event source entry.
type Source struct {
	Type   string `toml:"type"`
	Config Map    `toml:"config"`
}

// Module is one configured module entry.
type Module struct {
	Type          string              `toml:"type"`
	Priority      uint8               `toml:"priority"`
	Subscriptions map[string][]string `toml:"subscriptions"`
	Config        Map                 `toml:"config"`
}

// document is the raw shape of the toml file.
type document struct {
	CommandChar string             `toml:"command_char"`
	LogFolder   string             `toml:"log_folder"`
	Sources     map[string]*Source `toml:"sources"`
	Modules     map[string]*Module `toml:"modules"`
}

// Config holds the entire configuration. All access is synchronized so
// modules can read and mutate it during dispatch.
type Config struct {
	doc      document
	errors   errList
	filename string
	protect  sync.RWMutex
}

// New initializes an empty Config.
func New() *Config {
	c := &Config{}
	c.doc.Sources = make(map[string]*Source)
	c.doc.Modules = make(map[string]*Module)
	c.doc.CommandChar = defaultCommandChar
	c.doc.LogFolder = defaultLogFolder
	return c
}

// FromFile reads the configuration from a toml file. Errors accumulate on
// the config and are retrievable with Errors.
func (c *Config) FromFile(filename string) *Config {
	c.protect.Lock()
	c.filename = filename
	c.protect.Unlock()

	file, err := os.Open(filename)
	if err != nil {
		c.addError(fmtErrFileRead, err)
		return c
	}
	defer file.Close()

	return c.FromReader(file)
}

// FromString reads the configuration from a toml string.
func (c *Config) FromString(conf string) *Config {
	c.protect.Lock()
	defer c.protect.Unlock()

	if _, err := toml.Decode(conf, &c.doc); err != nil {
		c.errors = append(c.errors, fmt.Errorf(fmtErrDecode, err))
	}
	c.fillDefaults()
	return c
}

// FromReader reads the configuration from a reader supplying toml.
func (c *Config) FromReader(reader io.Reader) *Config {
	c.protect.Lock()
	defer c.protect.Unlock()

	if _, err := toml.DecodeReader(reader, &c.doc); err != nil {
		c.errors = append(c.errors, fmt.Errorf(fmtErrDecode, err))
	}
	c.fillDefaults()
	return c
}

// fillDefaults patches missing values after a decode. Callers must hold the
// write lock.
func (c *Config) fillDefaults() {
	if len(c.doc.CommandChar) == 0 {
		c.doc.CommandChar = defaultCommandChar
	}
	if len(c.doc.LogFolder) == 0 {
		c.doc.LogFolder = defaultLogFolder
	}
	if c.doc.Sources == nil {
		c.doc.Sources = make(map[string]*Source)
	}
	if c.doc.Modules == nil {
		c.doc.Modules = make(map[string]*Module)
	}
}

// Save writes the configuration back out to the file it was loaded from.
// Saving is always an explicit operation; mutation never writes to disk on
// its own.
func (c *Config) Save() error {
	c.protect.RLock()
	filename := c.filename
	c.protect.RUnlock()

	if len(filename) == 0 {
		return fmt.Errorf("config: no filename to save to")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.SaveTo(file)
}

// SaveTo writes the configuration as toml to the given writer.
func (c *Config) SaveTo(writer io.Writer) error {
	c.protect.RLock()
	defer c.protect.RUnlock()

	return toml.NewEncoder(writer).Encode(c.doc)
}

// CommandChar returns the prefix that promotes a text message to a command.
func (c *Config) CommandChar() string {
	c.protect.RLock()
	defer c.protect.RUnlock()
	return c.doc.CommandChar
}

// LogFolder returns the directory transcripts are written under.
func (c *Config) LogFolder() string {
	c.protect.RLock()
	defer c.protect.RUnlock()
	return c.doc.LogFolder
}

// SourceNames returns the configured source ids in lexical order. This is
// the canonical "configured order" used by the core, since toml tables are
// unordered.
func (c *Config) SourceNames() []string {
	c.protect.RLock()
	defer c.protect.RUnlock()

	names := make([]string, 0, len(c.doc.Sources))
	for name := range c.doc.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the source entry for id, or nil.
func (c *Config) Source(id string) *Source {
	c.protect.RLock()
	defer c.protect.RUnlock()
	return c.doc.Sources[id]
}

// ModuleNames returns the configured module ids in lexical order.
func (c *Config) ModuleNames() []string {
	c.protect.RLock()
	defer c.protect.RUnlock()

	names := make([]string, 0, len(c.doc.Modules))
	for name := range c.doc.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module returns the module entry for id, or nil.
func (c *Config) Module(id string) *Module {
	c.protect.RLock()
	defer c.protect.RUnlock()
	return c.doc.Modules[id]
}

// SetModuleValue sets a key in a module's opaque config. Used by modules
// that persist user-visible settings (e.g. enabling/disabling themselves).
// The change is in-memory only until Save is called.
func (c *Config) SetModuleValue(id, key string, value interface{}) {
	c.protect.Lock()
	defer c.protect.Unlock()

	mod, ok := c.doc.Modules[id]
	if !ok {
		return
	}
	if mod.Config == nil {
		mod.Config = make(Map)
	}
	mod.Config[key] = value
}

// AddSource adds a source entry. Useful for building configs by hand.
func (c *Config) AddSource(id, typ string, conf Map) *Config {
	c.protect.Lock()
	defer c.protect.Unlock()
	c.doc.Sources[id] = &Source{Type: typ, Config: conf}
	return c
}

// AddModule adds a module entry. Useful for building configs by hand.
func (c *Config) AddModule(id, typ string, priority uint8,
	subscriptions map[string][]string, conf Map) *Config {

	c.protect.Lock()
	defer c.protect.Unlock()
	c.doc.Modules[id] = &Module{
		Type:          typ,
		Priority:      priority,
		Subscriptions: subscriptions,
		Config:        conf,
	}
	return c
}

// Validate checks the configuration for structural problems and records
// them on the error list. Returns true when no errors exist.
func (c *Config) Validate() bool {
	c.protect.Lock()
	defer c.protect.Unlock()

	if len(c.doc.CommandChar) == 0 {
		c.errors = append(c.errors, fmt.Errorf(errMsgNoCommandChar))
	}

	if _, ok := c.doc.Sources["core"]; ok {
		c.errors = append(c.errors, fmt.Errorf(fmtErrReservedID, "core"))
	}

	for id, src := range c.doc.Sources {
		if len(src.Type) == 0 {
			c.errors = append(c.errors, fmt.Errorf(fmtErrMissingType, id))
		}
	}

	for id, mod := range c.doc.Modules {
		if len(mod.Type) == 0 {
			c.errors = append(c.errors, fmt.Errorf(fmtErrMissingType, id))
		}
	}

	return len(c.errors) == 0
}

// Errors returns the errors accumulated while loading and validating.
func (c *Config) Errors() []error {
	c.protect.RLock()
	defer c.protect.RUnlock()

	errs := make([]error, len(c.errors))
	copy(errs, c.errors)
	return errs
}

// addError records an error on the configuration.
func (c *Config) addError(format string, args ...interface{}) {
	c.protect.Lock()
	c.errors = append(c.errors, fmt.Errorf(format, args...))
	c.protect.Unlock()
}

type errList []error

// Global configuration instance. The command prefix and module
// enable/disable flags are read and written from modules at event time, so
// the instance is process wide and internally locked.
var (
	globalProtect sync.Mutex
	global        *Config
)

// SetGlobal installs the process-wide configuration instance.
func SetGlobal(c *Config) {
	globalProtect.Lock()
	global = c
	globalProtect.Unlock()
}

// Global returns the process-wide configuration instance. An empty config
// is installed if none has been set.
func Global() *Config {
	globalProtect.Lock()
	defer globalProtect.Unlock()
	if global == nil {
		global = New()
	}
	return global
}
