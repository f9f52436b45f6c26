package main

import "github.com/calebpeterson/Upcoming/calendar"

var appConfig = struct {
	AppName string

	Port     string `yaml:"port" toml:"port"`
	Timezone string `yaml:"timezone" toml:"timezone"`

	RefreshSeconds      int `yaml:"refreshSeconds" toml:"refresh_seconds"`
	NotifyLeadMinutes   int `yaml:"notifyLeadMinutes" toml:"notify_lead_minutes"`
	RecentNotifications int `yaml:"recentNotifications" toml:"recent_notifications"`

	Sources []calendar.Source `yaml:"sources" toml:"sources"`
}{
	AppName:             "Upcoming Server",
	Port:                "8080",
	RefreshSeconds:      60,
	NotifyLeadMinutes:   2,
	RecentNotifications: 32,
}
