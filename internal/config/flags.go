package config

import (
	"flag"
	"os"
	"time"

	"github.com/okozlov/identityd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string                 HTTP bind address (e.g., ":8080")
//	-d string                 PostgreSQL DSN
//	-l string                 log backend ("slog" or "zap")
//	-s string                 service identity uid
//	-dir bool                 enable directory fallback
//	-sync bool                enable group synchronization
//	-ldap-url string          directory URL (e.g., "ldap://host:389")
//	-ldap-bind-dn string      bind DN for the service account
//	-ldap-bind-password string
//	-ldap-base-dn string      search base for user entries
//	-ldap-uid-attr string     attribute matched against the uid
//	-ldap-admin-group string  group granting the admin flag
//	-ldap-timeout int         directory request timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config file flags.
// Boolean flags must use the -flag=value form to survive filtering.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-l", "-s", "-dir", "-sync",
		"-ldap-url", "-ldap-bind-dn", "-ldap-bind-password", "-ldap-base-dn",
		"-ldap-uid-attr", "-ldap-admin-group", "-ldap-timeout",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zap)")
	fs.StringVar(&config.ServiceUID, "s", config.ServiceUID, "service identity uid")
	fs.BoolVar(&config.DirectoryEnabled, "dir", config.DirectoryEnabled, "enable directory fallback")
	fs.BoolVar(&config.GroupSyncEnabled, "sync", config.GroupSyncEnabled, "enable group synchronization")

	fs.StringVar(&config.LDAPURL, "ldap-url", config.LDAPURL, "LDAP directory URL")
	fs.StringVar(&config.LDAPBindDN, "ldap-bind-dn", config.LDAPBindDN, "LDAP bind DN")
	fs.StringVar(&config.LDAPBindPassword, "ldap-bind-password", config.LDAPBindPassword, "LDAP bind password")
	fs.StringVar(&config.LDAPBaseDN, "ldap-base-dn", config.LDAPBaseDN, "LDAP search base DN")
	fs.StringVar(&config.LDAPUIDAttribute, "ldap-uid-attr", config.LDAPUIDAttribute, "LDAP uid attribute")
	fs.StringVar(&config.LDAPAdminGroup, "ldap-admin-group", config.LDAPAdminGroup, "LDAP admin group name")

	ldapTimeout := fs.Int("ldap-timeout", int(config.LDAPTimeout.Seconds()), "ldap_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.LDAPTimeout = time.Duration(*ldapTimeout) * time.Second
}
