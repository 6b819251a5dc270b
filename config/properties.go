package config

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Defaults apply to every connection that does not override them.
type Defaults struct {
	ConnectionMode ConnectionMode `toml:"connection_mode"`
	SystemType     string         `toml:"system_type"`
	UseTLS         bool           `toml:"use_tls"`
	Ucs2Only       bool           `toml:"ucs2_only"`
	MaxLength      int            `toml:"max_length"`
	WindowSize     int            `toml:"window_size"`
	RequestTimeout time.Duration  `toml:"request_timeout"`
	EnquireLink    time.Duration  `toml:"enquire_link"`
	RebindPeriod   time.Duration  `toml:"rebind_period"`
	BindTimeout    time.Duration  `toml:"bind_timeout"`
	AllowedPhones  []string       `toml:"allowed_phones"`
}

// Smsc is the configuration of one named connection. Nil fields inherit the defaults.
type Smsc struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`

	ConnectionMode ConnectionMode `toml:"connection_mode"`
	SystemType     *string        `toml:"system_type"`
	UseTLS         *bool          `toml:"use_tls"`
	Ucs2Only       *bool          `toml:"ucs2_only"`
	MaxLength      *int           `toml:"max_length"`
	WindowSize     *int           `toml:"window_size"`
	RequestTimeout *time.Duration `toml:"request_timeout"`
	EnquireLink    *time.Duration `toml:"enquire_link"`
	RebindPeriod   *time.Duration `toml:"rebind_period"`
	BindTimeout    *time.Duration `toml:"bind_timeout"`
	AllowedPhones  []string       `toml:"allowed_phones"`
}

type Properties struct {
	SetupRightAway bool             `toml:"setup_right_away"`
	Defaults       Defaults         `toml:"defaults"`
	Connections    map[string]*Smsc `toml:"connections"`

	// Names keeps the order in which connections were declared.
	Names []string `toml:"-"`
}

func DefaultDefaults() Defaults {
	return Defaults{
		ConnectionMode: ModeStandard,
		WindowSize:     100,
		RequestTimeout: 10 * time.Second,
		EnquireLink:    30 * time.Second,
		RebindPeriod:   10 * time.Second,
		BindTimeout:    5 * time.Second,
	}
}

func NewProperties() *Properties {
	return &Properties{
		SetupRightAway: true,
		Defaults:       DefaultDefaults(),
		Connections:    make(map[string]*Smsc),
	}
}

// Add registers a connection, keeping declaration order.
func (p *Properties) Add(name string, smsc *Smsc) {
	if p.Connections == nil {
		p.Connections = make(map[string]*Smsc)
	}
	if _, ok := p.Connections[name]; !ok {
		p.Names = append(p.Names, name)
	}
	p.Connections[name] = smsc
}

// OrderedNames returns connection names in declaration order. Connections
// added to the map directly come last, sorted by name.
func (p *Properties) OrderedNames() []string {
	names := make([]string, 0, len(p.Connections))
	seen := make(map[string]bool, len(p.Connections))
	for _, name := range p.Names {
		if _, ok := p.Connections[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	rest := make([]string, 0)
	for name := range p.Connections {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(names, rest...)
}

// Validate checks what the builder cannot: modes resolve and real connections are addressable.
func (p *Properties) Validate() error {
	for _, name := range p.OrderedNames() {
		smsc := p.Connections[name]
		if smsc == nil {
			return fmt.Errorf("connection %s: empty configuration", name)
		}

		mode := ResolveMode(p.Defaults, smsc.ConnectionMode)
		if mode == ModeUnset {
			return fmt.Errorf("connection %s: %w", name, ErrMissingDefault)
		}
		if !mode.Valid() {
			return &UnrecognizedModeError{Name: name, Value: mode.String()}
		}
		if mode == ModeMock {
			continue
		}

		if strings.TrimSpace(smsc.Host) == "" {
			return fmt.Errorf("connection %s: host is required", name)
		}
		if smsc.Port <= 0 || smsc.Port > 65535 {
			return fmt.Errorf("connection %s: invalid port %d", name, smsc.Port)
		}
		if strings.TrimSpace(smsc.Username) == "" {
			return fmt.Errorf("connection %s: username is required", name)
		}
	}
	return nil
}

// Effective is the configuration of one connection after merging defaults.
type Effective struct {
	Name           string
	Mode           ConnectionMode
	Host           string
	Port           int
	Username       string
	Password       string
	SystemType     string
	UseTLS         bool
	Ucs2Only       bool
	MaxLength      int
	WindowSize     int
	RequestTimeout time.Duration
	EnquireLink    time.Duration
	RebindPeriod   time.Duration
	BindTimeout    time.Duration
	AllowedPhones  []string
}

func (e Effective) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}
