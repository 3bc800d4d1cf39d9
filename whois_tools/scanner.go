package whois_tools

import "strings"

const (
	// whoisServerLabel introduces a referral. Matching is case-sensitive, so
	// "Registrar WHOIS Server:" lines are not referrals.
	whoisServerLabel = "Whois Server:"
	// domainNameMarker starts the record of interest in a registrar answer.
	domainNameMarker = "Domain Name:"
	// ambiguityMarker is matched case-insensitively.
	ambiguityMarker = "to single out one record"
)

// FindReferral returns the host named by the first "Whois Server:" line of a
// response. Lines are compared after trimming trailing whitespace; the label
// may appear anywhere in the line and everything after it, trimmed, is the
// host. Lines whose value is empty are skipped.
func FindReferral(response string) (string, bool) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimRight(line, " \t\r\n")
		idx := strings.Index(line, whoisServerLabel)
		if idx < 0 {
			continue
		}
		host := strings.TrimSpace(line[idx+len(whoisServerLabel):])
		if host != "" {
			return host, true
		}
	}
	return "", false
}

// FindRegistryMention returns the registry host mentioned on the first line
// that contains any of the given hosts. When one line mentions several, the
// one listed last in hosts wins.
func FindRegistryMention(response string, hosts []string) (string, bool) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimRight(line, " \t\r\n")
		found := ""
		for _, host := range hosts {
			if host != "" && strings.Contains(line, host) {
				found = host
			}
		}
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// IsAmbiguous reports whether a response lists several matching records
// instead of one.
func IsAmbiguous(response string) bool {
	return strings.Contains(strings.ToLower(response), ambiguityMarker)
}

// DomainNameChunk returns the response from the first "Domain Name:" marker to
// the end.
func DomainNameChunk(response string) (string, bool) {
	idx := strings.Index(response, domainNameMarker)
	if idx < 0 {
		return "", false
	}
	return response[idx:], true
}
