package utils

import (
	"time"

	"github.com/pontolabs/ponto-agent/internal/sites"
	"github.com/pontolabs/ponto-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Agent struct {
		MinSupportedVersion string `yaml:"min_supported_version"` // Semver constraint the agent build must satisfy
	} `yaml:"agent"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty disables TLS
		Username      string `yaml:"username"`       // Broker username; password comes from the environment
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Security struct {
		PassphraseFile string `yaml:"passphrase_file"` // Path to the journal passphrase
		Salt           string `yaml:"salt"`            // Key derivation salt, per-fleet
	} `yaml:"security"`

	Location struct {
		CacheTTL time.Duration `yaml:"cache_ttl"` // TTL for the last-fix cache

		GPS struct {
			Enabled  bool   `yaml:"enabled"`   // Use a serial NMEA GPS receiver
			Port     string `yaml:"port"`      // Serial port where the receiver is mounted
			BaudRate int    `yaml:"baud_rate"` // Baud rate for the receiver
		} `yaml:"gps"`

		Google struct {
			Enabled bool `yaml:"enabled"` // Use the Google Geolocation API; key from the environment
		} `yaml:"google"`

		GeoIP struct {
			Enabled  bool   `yaml:"enabled"`   // Use a local MaxMind database as last resort
			DBPath   string `yaml:"db_path"`   // Path to the City database
			PublicIP string `yaml:"public_ip"` // Device egress IP to look up
		} `yaml:"geoip"`
	} `yaml:"location"`

	Sites struct {
		Source     string             `yaml:"source"`      // "postgres" or "static"
		RefreshTTL time.Duration      `yaml:"refresh_ttl"` // How long a fetched site list is reused
		Static     []sites.StaticSite `yaml:"static"`      // Site list for the static source
	} `yaml:"sites"`

	Validation struct {
		MaxRetries int `yaml:"max_retries"` // Acquisition attempts per punch validation
	} `yaml:"validation"`

	Services struct {
		Punch struct {
			Enabled      bool   `yaml:"enabled"`       // Enable/disable punch handling
			RequestTopic string `yaml:"request_topic"` // MQTT topic carrying punch triggers
			EventTopic   string `yaml:"event_topic"`   // MQTT topic for validated punch events
			QOS          int    `yaml:"qos"`           // MQTT QoS level for punch messages
			JournalFile  string `yaml:"journal_file"`  // Path of the offline punch journal
		} `yaml:"punch"`

		Heartbeat struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable heartbeat service
			Topic    string        `yaml:"topic"`    // MQTT topic for heartbeat service
			Interval time.Duration `yaml:"interval"` // Interval between heartbeats
			QOS      int           `yaml:"qos"`      // MQTT QoS level for heartbeat messages
		} `yaml:"heartbeat"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
