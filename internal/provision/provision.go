// Package provision defines the tunnel provisioning request and its
// validation rules. Validation is pure apart from the advisory document-root
// existence check; nothing here performs remote calls or mutates files.
package provision

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Request carries everything needed to provision a tunnel and wire it into
// the local routing and web-server configuration.
type Request struct {
	// TunnelName is the name registered with the remote tunnel service.
	TunnelName string

	// ConfigName names the routing config file, without extension.
	ConfigName string

	// Hostname is the public hostname routed through the tunnel.
	Hostname string

	// Port is the local port traffic is forwarded to.
	Port int

	// DocumentRoot is the directory served for Hostname. Required when
	// UpdateVHost is set, ignored otherwise.
	DocumentRoot string

	// UpdateVHost requests a virtual-host entry for Hostname.
	UpdateVHost bool
}

// Violation describes a single invalid field.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Violations is the full set of invalid fields found in one pass.
type Violations []Violation

func (vs Violations) Error() string {
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.String()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field rule independently and returns all violations
// found, so a caller can report precise feedback in one round trip. A nil
// return means the request is valid.
func Validate(req Request) Violations {
	var vs Violations

	if req.TunnelName == "" {
		vs = append(vs, Violation{"tunnelName", "must not be empty"})
	} else if containsWhitespace(req.TunnelName) {
		vs = append(vs, Violation{"tunnelName", "must not contain whitespace"})
	}

	if req.ConfigName == "" {
		vs = append(vs, Violation{"configName", "must not be empty"})
	} else if strings.ContainsAny(req.ConfigName, `/\:`) {
		vs = append(vs, Violation{"configName", "must not contain path separators"})
	}

	switch {
	case req.Hostname == "":
		vs = append(vs, Violation{"hostname", "must not be empty"})
	case containsWhitespace(req.Hostname):
		vs = append(vs, Violation{"hostname", "must not contain whitespace"})
	case !strings.Contains(req.Hostname, "."):
		vs = append(vs, Violation{"hostname", "must contain at least one dot"})
	}

	if req.Port < 1 || req.Port > 65535 {
		vs = append(vs, Violation{"port", "must be between 1 and 65535"})
	}

	if req.UpdateVHost {
		if req.DocumentRoot == "" {
			vs = append(vs, Violation{"documentRoot", "required when updating virtual hosts"})
		} else if !isDirectory(req.DocumentRoot) {
			vs = append(vs, Violation{"documentRoot", fmt.Sprintf("not an existing directory: %s", req.DocumentRoot)})
		}
	}

	return vs
}

func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// isDirectory is advisory only. The vhost patcher re-checks before mutating,
// since filesystem state can change between validation and patch.
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
