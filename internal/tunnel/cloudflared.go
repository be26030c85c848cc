package tunnel

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/silkstream/tunnelctl/internal/logging"
)

// DefaultBinary is the cloudflared executable looked up on PATH when no
// explicit path is configured.
const DefaultBinary = "cloudflared"

var (
	createdRE     = regexp.MustCompile(`Created tunnel \S+ with id ([0-9a-fA-F-]+)`)
	credentialsRE = regexp.MustCompile(`credentials written to (\S+\.json)`)
)

// Cloudflared provisions tunnels by running `cloudflared tunnel create`.
type Cloudflared struct {
	// Binary is the cloudflared executable. Defaults to DefaultBinary.
	Binary string

	// OriginDir is the directory cloudflared writes credentials into,
	// used as a fallback when the output does not name the file.
	OriginDir string
}

// Create registers a named tunnel and returns its identity. On failure the
// returned error carries cloudflared's own diagnostic text.
func (c *Cloudflared) Create(ctx context.Context, name string) (Identity, error) {
	binary := c.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	logging.Debug("running cloudflared", "binary", binary, "tunnel", name)

	cmd := exec.CommandContext(ctx, binary, "tunnel", "create", name)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			msg = err.Error()
		}
		return Identity{}, &Error{Message: msg}
	}

	return c.parseCreateOutput(out.String())
}

// parseCreateOutput extracts the tunnel UUID and credentials path from the
// cloudflared output. cloudflared prints both on success, e.g.
//
//	Tunnel credentials written to /home/user/.cloudflared/<uuid>.json.
//	Created tunnel my-site with id 6ff42ae2-765d-4adf-8112-31c75c1551ef
func (c *Cloudflared) parseCreateOutput(output string) (Identity, error) {
	m := createdRE.FindStringSubmatch(output)
	if m == nil {
		return Identity{}, &Error{Message: fmt.Sprintf("unexpected cloudflared output: %s", strings.TrimSpace(output))}
	}

	id, err := uuid.Parse(m[1])
	if err != nil {
		return Identity{}, &Error{Message: fmt.Sprintf("malformed tunnel id %q in cloudflared output", m[1])}
	}

	identity := Identity{UUID: id.String()}

	if cm := credentialsRE.FindStringSubmatch(output); cm != nil {
		identity.CredentialsPath = cm[1]
	} else {
		identity.CredentialsPath = filepath.Join(c.OriginDir, identity.UUID+".json")
	}

	logging.Debug("tunnel created", "uuid", identity.UUID, "credentials", identity.CredentialsPath)
	return identity, nil
}
