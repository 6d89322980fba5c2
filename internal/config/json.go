package config

import (
	"encoding/json"
	"os"

	"github.com/okozlov/identityd/internal/flagx"
	"github.com/okozlov/identityd/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files. Interval fields use timex.Duration so both "10s"
// strings and nanosecond integers parse; optional booleans are pointers so
// an omitted key leaves the default untouched.
type JsonConfig struct {
	EndpointAddr     string          `json:"endpoint_addr"`
	DatabaseDSN      string          `json:"database_dsn"`
	LogBackend       string          `json:"log_backend"`
	DirectoryEnabled *bool           `json:"directory_enabled"`
	GroupSyncEnabled *bool           `json:"group_sync_enabled"`
	ServiceUID       string          `json:"service_uid"`
	LDAPURL          string          `json:"ldap_url"`
	LDAPBindDN       string          `json:"ldap_bind_dn"`
	LDAPBindPassword string          `json:"ldap_bind_password"`
	LDAPBaseDN       string          `json:"ldap_base_dn"`
	LDAPUIDAttribute string          `json:"ldap_uid_attribute"`
	LDAPAdminGroup   string          `json:"ldap_admin_group"`
	LDAPTimeout      *timex.Duration `json:"ldap_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c/-config flags; when
// neither is set, no JSON file is loaded. Unreadable or invalid files panic:
// a half-applied config file is worse than a crash at startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.LogBackend != "" {
		config.LogBackend = c.LogBackend
	}
	if c.DirectoryEnabled != nil {
		config.DirectoryEnabled = *c.DirectoryEnabled
	}
	if c.GroupSyncEnabled != nil {
		config.GroupSyncEnabled = *c.GroupSyncEnabled
	}
	if c.ServiceUID != "" {
		config.ServiceUID = c.ServiceUID
	}
	if c.LDAPURL != "" {
		config.LDAPURL = c.LDAPURL
	}
	if c.LDAPBindDN != "" {
		config.LDAPBindDN = c.LDAPBindDN
	}
	if c.LDAPBindPassword != "" {
		config.LDAPBindPassword = c.LDAPBindPassword
	}
	if c.LDAPBaseDN != "" {
		config.LDAPBaseDN = c.LDAPBaseDN
	}
	if c.LDAPUIDAttribute != "" {
		config.LDAPUIDAttribute = c.LDAPUIDAttribute
	}
	if c.LDAPAdminGroup != "" {
		config.LDAPAdminGroup = c.LDAPAdminGroup
	}
	if c.LDAPTimeout != nil {
		config.LDAPTimeout = c.LDAPTimeout.Duration
	}
}
