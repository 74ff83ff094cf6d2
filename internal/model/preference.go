package model

// DefaultReminderMinutes is the lead time used when a user enables
// reminders without choosing one.
const DefaultReminderMinutes = 15

// ReminderChoices are the lead times offered in the preference form.
var ReminderChoices = []int{5, 10, 15, 30, 60}

// NotificationPreference holds a user's reminder settings.
type NotificationPreference struct {
	Enabled         bool `json:"enabled" mapstructure:"enabled"`
	ReminderMinutes int  `json:"reminder_minutes" mapstructure:"reminder_minutes"`
}

// DefaultPreference is written when a user first grants notification permission.
func DefaultPreference() NotificationPreference {
	return NotificationPreference{Enabled: true, ReminderMinutes: DefaultReminderMinutes}
}

// Validate rejects negative lead times.
func (p NotificationPreference) Validate() error {
	if p.ReminderMinutes < 0 {
		return &ValidationError{Fields: []string{"reminder_minutes"}}
	}
	return nil
}

// Preferences maps usernames to their notification preference.
type Preferences map[string]NotificationPreference

// For returns the stored preference for user and whether one exists.
func (p Preferences) For(user string) (NotificationPreference, bool) {
	pref, ok := p[user]
	return pref, ok
}
