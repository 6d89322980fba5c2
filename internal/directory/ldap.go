package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/logging"
)

// LDAPOptions carries the connection and attribute-mapping settings for the
// LDAP-backed directory client.
type LDAPOptions struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	UIDAttribute string
	AdminGroup   string
	Timeout      time.Duration
}

// ldapConn is the slice of *ldap.Conn the client uses; a seam for tests.
type ldapConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SetTimeout(t time.Duration)
	Close() error
}

// LDAPClient implements Client against an LDAP directory. Every Lookup
// dials, binds with the configured service account, and searches for a
// single entry matching the uid attribute.
type LDAPClient struct {
	opts   LDAPOptions
	logger logging.Logger
	dial   func() (ldapConn, error)
}

func NewLDAPClient(opts LDAPOptions, logger logging.Logger) *LDAPClient {
	c := &LDAPClient{
		opts:   opts,
		logger: logger.With("module", "ldap_client"),
	}
	c.dial = func() (ldapConn, error) {
		return ldap.DialURL(opts.URL)
	}
	return c
}

var userAttributes = []string{"cn", "displayName", "mail", "memberOf", "nsAccountLock"}

// searchTimeLimit converts the configured timeout to whole seconds, rounding
// up: a time limit of 0 means "no server-side limit" in LDAP, so a
// sub-second timeout must not truncate to it.
func searchTimeLimit(timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}
	limit := int(timeout / time.Second)
	if timeout%time.Second != 0 {
		limit++
	}
	return limit
}

func (c *LDAPClient) Lookup(ctx context.Context, uid string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", common.ErrorDirectoryUnavailable, c.opts.URL, err)
	}
	defer conn.Close()

	if c.opts.Timeout > 0 {
		conn.SetTimeout(c.opts.Timeout)
	}

	if err := conn.Bind(c.opts.BindDN, c.opts.BindPassword); err != nil {
		return nil, fmt.Errorf("%w: bind: %v", common.ErrorDirectoryUnavailable, err)
	}

	filter := fmt.Sprintf("(%s=%s)", c.opts.UIDAttribute, ldap.EscapeFilter(uid))
	req := ldap.NewSearchRequest(
		c.opts.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, searchTimeLimit(c.opts.Timeout), false,
		filter, userAttributes, nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: search: %v", common.ErrorDirectoryUnavailable, err)
	}

	if len(res.Entries) == 0 {
		return nil, common.ErrorNotFound
	}

	rec := c.recordFromEntry(uid, res.Entries[0])
	c.logger.Info(ctx, "directory lookup", "uid", uid, "groups", len(rec.Groups))
	return rec, nil
}

func (c *LDAPClient) recordFromEntry(uid string, entry *ldap.Entry) *Record {
	name := entry.GetAttributeValue("displayName")
	if name == "" {
		name = entry.GetAttributeValue("cn")
	}

	groups := groupNamesFromDNs(entry.GetAttributeValues("memberOf"))

	admin := false
	for _, g := range groups {
		if g == c.opts.AdminGroup {
			admin = true
			break
		}
	}

	return &Record{
		UID:    uid,
		Name:   name,
		Email:  entry.GetAttributeValue("mail"),
		Active: !strings.EqualFold(entry.GetAttributeValue("nsAccountLock"), "true"),
		Admin:  admin,
		Groups: groups,
	}
}

// groupNamesFromDNs extracts the leading RDN value from each group DN, e.g.
// "cn=ops,ou=groups,dc=example,dc=org" yields "ops". Unparseable values are
// skipped.
func groupNamesFromDNs(dns []string) []string {
	names := make([]string, 0, len(dns))
	for _, raw := range dns {
		dn, err := ldap.ParseDN(raw)
		if err != nil || len(dn.RDNs) == 0 || len(dn.RDNs[0].Attributes) == 0 {
			continue
		}
		names = append(names, dn.RDNs[0].Attributes[0].Value)
	}
	return names
}
