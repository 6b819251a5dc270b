package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/yyliziqiu/smsc/util"
)

const EnvPrefix = "smpp"

// Modes are decoded as text here so an unknown value surfaces as UnrecognizedModeError.
type fileDefaults struct {
	Defaults
	ConnectionMode string `toml:"connection_mode"`
}

type fileSmsc struct {
	Smsc
	ConnectionMode string `toml:"connection_mode"`
}

type fileProperties struct {
	SetupRightAway *bool               `toml:"setup_right_away"`
	Defaults       fileDefaults        `toml:"defaults"`
	Connections    map[string]fileSmsc `toml:"connections"`
}

// Load reads .env (if any), the TOML file at path and the SMPP_* environment overrides.
func Load(path string) (*Properties, error) {
	if err := godotenv.Load(); err != nil {
		util.LogDebug("[Config] No .env file loaded: %v", err)
	}

	props, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err = ApplyEnv(props); err != nil {
		return nil, err
	}

	if err = props.Validate(); err != nil {
		return nil, err
	}

	util.LogInfo("[Config] Loaded %d connections from %s, default mode: %s", len(props.Connections), path, props.Defaults.ConnectionMode)

	return props, nil
}

func LoadFile(path string) (*Properties, error) {
	raw := fileProperties{Defaults: fileDefaults{Defaults: DefaultDefaults()}}

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	for _, key := range meta.Undecoded() {
		util.LogWarn("[Config] Unknown key %s in %s", key.String(), path)
	}

	return fromFile(raw, meta)
}

func Decode(data string) (*Properties, error) {
	raw := fileProperties{Defaults: fileDefaults{Defaults: DefaultDefaults()}}

	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}

	return fromFile(raw, meta)
}

func fromFile(raw fileProperties, meta toml.MetaData) (*Properties, error) {
	props := NewProperties()
	if raw.SetupRightAway != nil {
		props.SetupRightAway = *raw.SetupRightAway
	}

	props.Defaults = raw.Defaults.Defaults
	if raw.Defaults.ConnectionMode != "" {
		mode, err := ParseConnectionMode(raw.Defaults.ConnectionMode)
		if err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
		props.Defaults.ConnectionMode = mode
	}

	for _, name := range connectionNames(meta) {
		rs, ok := raw.Connections[name]
		if !ok {
			continue
		}
		smsc := rs.Smsc
		mode, err := ParseConnectionMode(rs.ConnectionMode)
		if err != nil {
			return nil, &UnrecognizedModeError{Name: name, Value: rs.ConnectionMode}
		}
		smsc.ConnectionMode = mode
		props.Add(name, &smsc)
	}

	return props, nil
}

// connectionNames returns the [connections.<name>] tables in document order.
func connectionNames(meta toml.MetaData) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, key := range meta.Keys() {
		if len(key) < 2 || key[0] != "connections" || seen[key[1]] {
			continue
		}
		seen[key[1]] = true
		names = append(names, key[1])
	}
	return names
}

type envProperties struct {
	SetupRightAway *bool          `envconfig:"SETUP_RIGHT_AWAY"`
	ConnectionMode string         `envconfig:"DEFAULTS_CONNECTION_MODE"`
	SystemType     *string        `envconfig:"DEFAULTS_SYSTEM_TYPE"`
	UseTLS         *bool          `envconfig:"DEFAULTS_USE_TLS"`
	Ucs2Only       *bool          `envconfig:"DEFAULTS_UCS2_ONLY"`
	MaxLength      *int           `envconfig:"DEFAULTS_MAX_LENGTH"`
	WindowSize     *int           `envconfig:"DEFAULTS_WINDOW_SIZE"`
	RequestTimeout *time.Duration `envconfig:"DEFAULTS_REQUEST_TIMEOUT"`
	EnquireLink    *time.Duration `envconfig:"DEFAULTS_ENQUIRE_LINK"`
	RebindPeriod   *time.Duration `envconfig:"DEFAULTS_REBIND_PERIOD"`
	BindTimeout    *time.Duration `envconfig:"DEFAULTS_BIND_TIMEOUT"`
	AllowedPhones  []string       `envconfig:"DEFAULTS_ALLOWED_PHONES"`
}

// ApplyEnv overlays SMPP_* environment variables onto the global section.
func ApplyEnv(props *Properties) error {
	var env envProperties
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("config env failed: %w", err)
	}

	if env.SetupRightAway != nil {
		props.SetupRightAway = *env.SetupRightAway
	}
	if env.ConnectionMode != "" {
		mode, err := ParseConnectionMode(env.ConnectionMode)
		if err != nil {
			return fmt.Errorf("defaults: %w", err)
		}
		props.Defaults.ConnectionMode = mode
	}

	d := &props.Defaults
	d.SystemType = pick(env.SystemType, d.SystemType)
	d.UseTLS = pick(env.UseTLS, d.UseTLS)
	d.Ucs2Only = pick(env.Ucs2Only, d.Ucs2Only)
	d.MaxLength = pick(env.MaxLength, d.MaxLength)
	d.WindowSize = pick(env.WindowSize, d.WindowSize)
	d.RequestTimeout = pick(env.RequestTimeout, d.RequestTimeout)
	d.EnquireLink = pick(env.EnquireLink, d.EnquireLink)
	d.RebindPeriod = pick(env.RebindPeriod, d.RebindPeriod)
	d.BindTimeout = pick(env.BindTimeout, d.BindTimeout)
	if env.AllowedPhones != nil {
		d.AllowedPhones = env.AllowedPhones
	}

	return nil
}
