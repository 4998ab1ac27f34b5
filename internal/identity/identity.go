package identity

import (
	"fmt"
	"net/url"
)

// DefaultImpersonation is the browser User-Agent sent when impersonation is
// requested without a custom agent string.
const DefaultImpersonation = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/91 Safari/537.36"

// Agent selects which User-Agent the inspection service forwards to the
// archive host. The zero value is the default (no agent forwarded).
type Agent struct {
	impersonated bool
	value        string
}

// Default returns an agent that forwards no User-Agent.
func Default() Agent { return Agent{} }

// Impersonate returns an agent that forwards the built-in browser string.
func Impersonate() Agent { return Impersonated(DefaultImpersonation) }

// Impersonated returns an agent that forwards ua. An empty ua falls back to
// DefaultImpersonation.
func Impersonated(ua string) Agent {
	if ua == "" {
		ua = DefaultImpersonation
	}
	return Agent{impersonated: true, value: ua}
}

// IsImpersonated reports whether a User-Agent will be forwarded.
func (a Agent) IsImpersonated() bool { return a.impersonated }

// UserAgent maps the agent to the string placed in requests. Empty means
// "omit the header downstream".
func (a Agent) UserAgent() string {
	if !a.impersonated {
		return ""
	}
	return a.value
}

func (a Agent) String() string {
	if !a.impersonated {
		return "default"
	}
	return "impersonated(" + a.value + ")"
}

// Identity is the per-call context forwarded to the inspection service.
type Identity struct {
	SourceURL string
	Cookies   string // opaque Cookie header value, may be empty
	Agent     Agent
}

// New builds an Identity from the raw user inputs.
func New(sourceURL, cookies string, impersonate bool, customAgent string) Identity {
	id := Identity{SourceURL: sourceURL, Cookies: cookies}
	if impersonate || customAgent != "" {
		id.Agent = Impersonated(customAgent)
	}
	return id
}

// UserAgent is shorthand for id.Agent.UserAgent().
func (id Identity) UserAgent() string {
	return id.Agent.UserAgent()
}

// Validate checks that SourceURL is an absolute URL with a host.
func (id Identity) Validate() error {
	if id.SourceURL == "" {
		return fmt.Errorf("archive URL is required")
	}
	u, err := url.Parse(id.SourceURL)
	if err != nil {
		return fmt.Errorf("invalid archive URL %q: %w", id.SourceURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid archive URL %q: scheme and host are required", id.SourceURL)
	}
	return nil
}
