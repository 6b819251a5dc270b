package config

import (
	"fmt"
)

// ResolveMode returns override unless it is unset.
func ResolveMode(defaults Defaults, override ConnectionMode) ConnectionMode {
	if override == ModeUnset {
		return defaults.ConnectionMode
	}
	return override
}

// Resolve merges defaults into the settings of the named connection.
func Resolve(name string, defaults Defaults, smsc Smsc) (Effective, error) {
	mode := ResolveMode(defaults, smsc.ConnectionMode)
	if mode == ModeUnset {
		return Effective{}, fmt.Errorf("connection %s: %w", name, ErrMissingDefault)
	}

	eff := Effective{
		Name:           name,
		Mode:           mode,
		Host:           smsc.Host,
		Port:           smsc.Port,
		Username:       smsc.Username,
		Password:       smsc.Password,
		SystemType:     pick(smsc.SystemType, defaults.SystemType),
		UseTLS:         pick(smsc.UseTLS, defaults.UseTLS),
		Ucs2Only:       pick(smsc.Ucs2Only, defaults.Ucs2Only),
		MaxLength:      pick(smsc.MaxLength, defaults.MaxLength),
		WindowSize:     pick(smsc.WindowSize, defaults.WindowSize),
		RequestTimeout: pick(smsc.RequestTimeout, defaults.RequestTimeout),
		EnquireLink:    pick(smsc.EnquireLink, defaults.EnquireLink),
		RebindPeriod:   pick(smsc.RebindPeriod, defaults.RebindPeriod),
		BindTimeout:    pick(smsc.BindTimeout, defaults.BindTimeout),
		AllowedPhones:  defaults.AllowedPhones,
	}
	if smsc.AllowedPhones != nil {
		eff.AllowedPhones = smsc.AllowedPhones
	}

	return eff, nil
}

func pick[T any](override *T, def T) T {
	if override != nil {
		return *override
	}
	return def
}
