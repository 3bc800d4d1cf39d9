package server_lists

import "strings"

// Directory maps the registries the client knows about to their WHOIS hosts.
// A Directory is a plain value: copy it, override fields, and hand it to a
// client. Nothing in this package mutates it.
type Directory struct {
	Default     string `json:"default" yaml:"default" toml:"default"`             // Default is the generic registry used for queries without a TLD.
	Handles     string `json:"handles" yaml:"handles" toml:"handles"`             // Handles is the InterNIC handle database, used for "!" queries.
	Military    string `json:"military" yaml:"military" toml:"military"`          // Military serves .mil.
	Government  string `json:"government" yaml:"government" toml:"government"`    // Government serves .gov.
	ARIN        string `json:"arin" yaml:"arin" toml:"arin"`                      // ARIN serves "-arin" handles and numeric TLDs.
	RIPE        string `json:"ripe" yaml:"ripe" toml:"ripe"`                      // RIPE is a referral target of ARIN.
	APNIC       string `json:"apnic" yaml:"apnic" toml:"apnic"`                   // APNIC is a referral target of ARIN and backs QueryAPNIC.
	RADB        string `json:"radb" yaml:"radb" toml:"radb"`                      // RADB is the Route Arbiter database.
	IPv6        string `json:"ipv6" yaml:"ipv6" toml:"ipv6"`                      // IPv6 is the IPv6 resource centre.
	Brazil      string `json:"brazil" yaml:"brazil" toml:"brazil"`                // Brazil is a referral target of ARIN.
	GenericTail string `json:"genericTail" yaml:"genericTail" toml:"genericTail"` // GenericTail is appended to a TLD to build its server name.
	Registrar   string `json:"registrar" yaml:"registrar" toml:"registrar"`       // Registrar is the registrar database used by authoritative mode.
}

// DefaultDirectory returns the stock set of NIC servers.
func DefaultDirectory() Directory {
	return Directory{
		Default:     "whois.crsnic.net",
		Handles:     "whois.networksolutions.com",
		Military:    "whois.nic.mil",
		Government:  "whois.nic.gov",
		ARIN:        "whois.arin.net",
		RIPE:        "whois.ripe.net",
		APNIC:       "whois.apnic.net",
		RADB:        "whois.ra.net",
		IPv6:        "whois.6bone.net",
		Brazil:      "whois.registro.br",
		GenericTail: ".whois-servers.net",
		Registrar:   "whois.crsnic.net",
	}
}

// Merge returns a copy of d where every non-empty field of o replaces the
// corresponding field of d.
func (d Directory) Merge(o Directory) Directory {
	pick := func(base, override string) string {
		if override = strings.TrimSpace(override); override != "" {
			return override
		}
		return base
	}
	return Directory{
		Default:     pick(d.Default, o.Default),
		Handles:     pick(d.Handles, o.Handles),
		Military:    pick(d.Military, o.Military),
		Government:  pick(d.Government, o.Government),
		ARIN:        pick(d.ARIN, o.ARIN),
		RIPE:        pick(d.RIPE, o.RIPE),
		APNIC:       pick(d.APNIC, o.APNIC),
		RADB:        pick(d.RADB, o.RADB),
		IPv6:        pick(d.IPv6, o.IPv6),
		Brazil:      pick(d.Brazil, o.Brazil),
		GenericTail: pick(d.GenericTail, o.GenericTail),
		Registrar:   pick(d.Registrar, o.Registrar),
	}
}

// IPRegistries lists the registries ARIN announces without a "Whois Server:"
// label, in the order they are checked.
func (d Directory) IPRegistries() []string {
	return []string{d.RIPE, d.APNIC, d.Brazil}
}

// SelectServer picks the server a query is first sent to. Rules are applied
// in order and the first one that matches wins:
//
//	"!handle"        -> Handles
//	"...-arin"       -> ARIN
//	"....gov"        -> Government
//	"....mil"        -> Military
//	no dot           -> Default
//	numeric last label -> ARIN
//	anything else    -> <tld><GenericTail>
//
// Suffix checks are case-insensitive.
func (d Directory) SelectServer(query string) string {
	query = strings.TrimSpace(query)
	lower := strings.ToLower(query)

	switch {
	case strings.HasPrefix(query, "!"):
		return d.Handles
	case strings.HasSuffix(lower, "-arin"):
		return d.ARIN
	case strings.HasSuffix(lower, ".gov"):
		return d.Government
	case strings.HasSuffix(lower, ".mil"):
		return d.Military
	}
	return d.chooseByTLD(lower)
}

func (d Directory) chooseByTLD(query string) string {
	idx := strings.LastIndex(query, ".")
	if idx < 0 {
		return d.Default
	}

	tld := query[idx+1:]
	switch {
	case tld == "":
		return d.Default
	case isNumeric(tld):
		return d.ARIN
	}
	return tld + d.GenericTail
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
