package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const sampleConfig = `
setup_right_away = false

[defaults]
connection_mode = "test"
request_timeout = "5s"
window_size = 20
allowed_phones = ["79000000001"]

[connections.zeta]
host = "zeta.example.com"
port = 2775
username = "zeta"
password = "zeta-pass"

[connections.alpha]
connection_mode = "mock"

[connections.mid]
host = "mid.example.com"
port = 2776
username = "mid"
password = "mid-pass"
connection_mode = "standard"
window_size = 5
request_timeout = "1s"
use_tls = true
`

func TestDecode(t *testing.T) {
	props, err := Decode(sampleConfig)
	if err != nil {
		t.Fatal(err)
	}

	if props.SetupRightAway {
		t.Error("setup_right_away should be false")
	}
	if !reflect.DeepEqual(props.OrderedNames(), []string{"zeta", "alpha", "mid"}) {
		t.Errorf("names = %v, want declaration order", props.OrderedNames())
	}

	d := props.Defaults
	if d.ConnectionMode != ModeTest || d.RequestTimeout != 5*time.Second || d.WindowSize != 20 {
		t.Errorf("unexpected defaults %+v", d)
	}
	if d.EnquireLink != DefaultDefaults().EnquireLink {
		t.Errorf("unset default lost its builtin value: %v", d.EnquireLink)
	}

	if props.Connections["zeta"].ConnectionMode != ModeUnset {
		t.Errorf("zeta mode = %v, want unset", props.Connections["zeta"].ConnectionMode)
	}
	if props.Connections["alpha"].ConnectionMode != ModeMock {
		t.Errorf("alpha mode = %v, want mock", props.Connections["alpha"].ConnectionMode)
	}

	mid := props.Connections["mid"]
	if mid.ConnectionMode != ModeStandard || mid.WindowSize == nil || *mid.WindowSize != 5 {
		t.Errorf("unexpected mid %+v", mid)
	}
	if mid.UseTLS == nil || !*mid.UseTLS || mid.RequestTimeout == nil || *mid.RequestTimeout != time.Second {
		t.Errorf("unexpected mid overrides %+v", mid)
	}

	if err = props.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestDecodeUnrecognizedMode(t *testing.T) {
	_, err := Decode(`
[connections.D]
connection_mode = "bogus"
`)
	if !errors.Is(err, ErrUnrecognizedMode) {
		t.Fatalf("got %v, want ErrUnrecognizedMode", err)
	}

	var ume *UnrecognizedModeError
	if !errors.As(err, &ume) || ume.Name != "D" || ume.Value != "bogus" {
		t.Errorf("unexpected error %v", err)
	}

	_, err = Decode(`
[defaults]
connection_mode = "bogus"
`)
	if !errors.Is(err, ErrUnrecognizedMode) {
		t.Fatalf("defaults: got %v, want ErrUnrecognizedMode", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		props func() *Properties
		ok    bool
	}{
		{"mock needs no host", func() *Properties {
			p := NewProperties()
			p.Add("a", &Smsc{ConnectionMode: ModeMock})
			return p
		}, true},
		{"standard needs host", func() *Properties {
			p := NewProperties()
			p.Add("a", &Smsc{Port: 2775, Username: "u"})
			return p
		}, false},
		{"bad port", func() *Properties {
			p := NewProperties()
			p.Add("a", &Smsc{Host: "h", Port: 70000, Username: "u"})
			return p
		}, false},
		{"missing default", func() *Properties {
			p := NewProperties()
			p.Defaults.ConnectionMode = ModeUnset
			p.Add("a", &Smsc{Host: "h", Port: 1, Username: "u"})
			return p
		}, false},
		{"nil connection", func() *Properties {
			p := NewProperties()
			p.Add("a", nil)
			return p
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.props().Validate()
			if (err == nil) != tt.ok {
				t.Errorf("validate = %v, ok = %v", err, tt.ok)
			}
		})
	}
}

func TestOrderedNamesFallback(t *testing.T) {
	p := NewProperties()
	p.Add("b", &Smsc{})
	p.Connections["z"] = &Smsc{}
	p.Connections["a"] = &Smsc{}
	p.Add("b", &Smsc{})

	if got := p.OrderedNames(); !reflect.DeepEqual(got, []string{"b", "a", "z"}) {
		t.Errorf("names = %v", got)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SMPP_SETUP_RIGHT_AWAY", "false")
	t.Setenv("SMPP_DEFAULTS_CONNECTION_MODE", "mock")
	t.Setenv("SMPP_DEFAULTS_REQUEST_TIMEOUT", "2s")
	t.Setenv("SMPP_DEFAULTS_ALLOWED_PHONES", "1,2")

	props := NewProperties()
	props.Defaults.WindowSize = 9

	if err := ApplyEnv(props); err != nil {
		t.Fatal(err)
	}

	if props.SetupRightAway {
		t.Error("setup flag not overridden")
	}
	if props.Defaults.ConnectionMode != ModeMock || props.Defaults.RequestTimeout != 2*time.Second {
		t.Errorf("unexpected defaults %+v", props.Defaults)
	}
	if props.Defaults.WindowSize != 9 {
		t.Errorf("absent variable changed window size to %d", props.Defaults.WindowSize)
	}
	if !reflect.DeepEqual(props.Defaults.AllowedPhones, []string{"1", "2"}) {
		t.Errorf("allowed phones = %v", props.Defaults.AllowedPhones)
	}
}

func TestApplyEnvBogusMode(t *testing.T) {
	t.Setenv("SMPP_DEFAULTS_CONNECTION_MODE", "bogus")

	if err := ApplyEnv(NewProperties()); !errors.Is(err, ErrUnrecognizedMode) {
		t.Fatalf("got %v, want ErrUnrecognizedMode", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smpp.toml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	props, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(props.Connections) != 3 {
		t.Errorf("connections = %d, want 3", len(props.Connections))
	}

	if _, err = Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}
