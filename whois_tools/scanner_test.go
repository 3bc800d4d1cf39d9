package whois_tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindReferral(t *testing.T) {
	tests := []struct {
		name     string
		response string
		host     string
		found    bool
	}{
		{"plain", "Whois Server: whois.example.net\n", "whois.example.net", true},
		{"padded", "   Whois Server:   whois.example.net  \r\n", "whois.example.net", true},
		{"crlf", "a\r\nWhois Server: whois.example.net\r\nb\r\n", "whois.example.net", true},
		{"first wins", "Whois Server: one\nWhois Server: two\n", "one", true},
		{"empty value skipped", "Whois Server:\nWhois Server: two\n", "two", true},
		{"case sensitive", "WHOIS SERVER: whois.example.net\n", "", false},
		{"registrar label", "Registrar WHOIS Server: whois.example.net\n", "", false},
		{"no newline at end", "Whois Server: whois.example.net", "whois.example.net", true},
		{"nothing", "Domain Name: EXAMPLE.COM\n", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, found := FindReferral(tt.response)
			require.Equal(t, tt.found, found)
			require.Equal(t, tt.host, host)
		})
	}
}

func TestFindRegistryMention(t *testing.T) {
	hosts := []string{"whois.ripe.net", "whois.apnic.net", "whois.registro.br"}

	host, ok := FindRegistryMention("NetName: X\nComment: whois.apnic.net\nComment: whois.ripe.net\n", hosts)
	require.True(t, ok)
	require.Equal(t, "whois.apnic.net", host)

	// Several hosts on one line: the one listed last wins.
	host, ok = FindRegistryMention("see whois.registro.br or whois.ripe.net\n", hosts)
	require.True(t, ok)
	require.Equal(t, "whois.registro.br", host)

	_, ok = FindRegistryMention("NetName: EXAMPLE\n", hosts)
	require.False(t, ok)

	_, ok = FindRegistryMention("anything", []string{""})
	require.False(t, ok)
}

func TestIsAmbiguous(t *testing.T) {
	require.True(t, IsAmbiguous("To single out one record, look it up with \"xxx\""))
	require.True(t, IsAmbiguous("to SINGLE out ONE record"))
	require.False(t, IsAmbiguous("Domain Name: EXAMPLE.COM"))
}

func TestDomainNameChunk(t *testing.T) {
	chunk, ok := DomainNameChunk("header\n   Domain Name: EXAMPLE.COM\n   Whois Server: w\n")
	require.True(t, ok)
	require.Equal(t, "Domain Name: EXAMPLE.COM\n   Whois Server: w\n", chunk)

	_, ok = DomainNameChunk("No match for \"EXAMPLE.COM\".\n")
	require.False(t, ok)
}
