package database

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/storage/database/embedded"
	"github.com/nm2tech/classroom/storage/database/remote"
)

// placeholder hosts that ship in sample configs. A remote URL pointing at
// one of these is treated as unconfigured.
var placeholderHosts = []string{
	"your-project.supabase.co",
	"example.com",
	"localhost",
	"127.0.0.1",
}

// Open selects the storage engine from the configuration. The remote engine
// is used only when a usable remote URL and API key are both present;
// otherwise the embedded engine serves as fallback and a warning is logged
// once at startup.
func Open(conf *core.Config, logger core.Logger) (core.Store, error) {
	if reason, ok := remoteUsable(conf); ok {
		store, err := remote.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening remote store")
		}
		return store, nil
	} else if conf.Database.RemoteURL != "" || conf.Database.RemoteKey != "" {
		logger.Warn("remote storage not usable, falling back to embedded: " + reason)
	}

	store, err := embedded.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening embedded store")
	}
	return store, nil
}

// remoteUsable reports whether the remote engine can be selected. The probe
// runs once at startup; the choice is not revisited per request.
func remoteUsable(conf *core.Config) (reason string, ok bool) {
	rawURL := strings.TrimSpace(conf.Database.RemoteURL)
	key := strings.TrimSpace(conf.Database.RemoteKey)
	if rawURL == "" {
		return "remote URL not set", false
	}
	if key == "" {
		return "remote API key not set", false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "remote URL invalid: " + err.Error(), false
	}
	if u.Scheme != "https" {
		return "remote URL must use https", false
	}
	host := strings.ToLower(u.Hostname())
	for _, ph := range placeholderHosts {
		if host == ph {
			return "remote URL is a placeholder", false
		}
	}
	return "", true
}
