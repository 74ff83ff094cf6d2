package model

import "slices"

// Settings holds the allowed classification values for tasks.
type Settings struct {
	Codes    []string `json:"codes"`
	Channels []string `json:"channels"`
	Types    []string `json:"types"`
}

// SettingsKind names one of the three lists in Settings.
type SettingsKind string

const (
	SettingsCodes    SettingsKind = "codes"
	SettingsChannels SettingsKind = "channels"
	SettingsTypes    SettingsKind = "types"
)

// IsValid reports whether k names a settings list.
func (k SettingsKind) IsValid() bool {
	switch k {
	case SettingsCodes, SettingsChannels, SettingsTypes:
		return true
	}
	return false
}

// DefaultSettings returns the lists seeded into an empty store.
func DefaultSettings() Settings {
	return Settings{
		Codes:    []string{"KK18", "DT5", "GK21", "28C", "61B", "70C&SS"},
		Channels: []string{"KK18", "DT5", "GK21", "OZG34", "OZG35"},
		Types: []string{
			"Toplantı", "Saha", "Sunum", "Görev", "Belge", "Rapor",
			"Kontrol", "Değerlendirme", "Planlama", "Güncelleme", "Denetim", "Teknik",
		},
	}
}

// List returns the list named by kind.
func (s Settings) List(kind SettingsKind) []string {
	switch kind {
	case SettingsCodes:
		return s.Codes
	case SettingsChannels:
		return s.Channels
	case SettingsTypes:
		return s.Types
	}
	return nil
}

// WithAdded returns a copy of s with value appended to the named list.
// Adding a value that is already present is a no-op.
func (s Settings) WithAdded(kind SettingsKind, value string) Settings {
	out := s.clone()
	list := out.ptr(kind)
	if list == nil || value == "" || slices.Contains(*list, value) {
		return out
	}
	*list = append(*list, value)
	return out
}

// WithRemoved returns a copy of s without value in the named list.
func (s Settings) WithRemoved(kind SettingsKind, value string) Settings {
	out := s.clone()
	list := out.ptr(kind)
	if list == nil {
		return out
	}
	*list = slices.DeleteFunc(*list, func(v string) bool { return v == value })
	return out
}

// Disallowed returns the classification fields of t whose values are not
// in the corresponding list.
func (s Settings) Disallowed(t Task) []string {
	var fields []string
	if !slices.Contains(s.Codes, t.Code) {
		fields = append(fields, "code")
	}
	if !slices.Contains(s.Channels, t.Channel) {
		fields = append(fields, "channel")
	}
	if !slices.Contains(s.Types, t.Type) {
		fields = append(fields, "type")
	}
	return fields
}

func (s Settings) clone() Settings {
	return Settings{
		Codes:    slices.Clone(s.Codes),
		Channels: slices.Clone(s.Channels),
		Types:    slices.Clone(s.Types),
	}
}

func (s *Settings) ptr(kind SettingsKind) *[]string {
	switch kind {
	case SettingsCodes:
		return &s.Codes
	case SettingsChannels:
		return &s.Channels
	case SettingsTypes:
		return &s.Types
	}
	return nil
}

// Allows reports whether every classification field of t is permitted.
func (s Settings) Allows(t Task) bool {
	return len(s.Disallowed(t)) == 0
}
