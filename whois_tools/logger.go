package whois_tools

import "github.com/sirupsen/logrus"

// Log is a package-global logger used throughout the module. Configuration can be
// changed directly on this instance or the instance replaced.
var Log = logrus.New()

func logger(server, query string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"server": server,
		"query":  query,
	})
}
