// Package vhost appends virtual-host blocks to a shared Apache-style
// configuration file. It is append-only: existing blocks are never rewritten,
// deleted, or reordered, and a hostname that already has a block is left
// alone.
package vhost

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/silkstream/tunnelctl/internal/logging"
)

// Patcher mutates a single vhost configuration file. All writes go through
// one Patcher instance per file; the internal mutex gives single-writer
// discipline when tunnels are provisioned back-to-back.
type Patcher struct {
	// Path is the vhost configuration file, e.g. httpd-vhosts.conf.
	Path string

	mu sync.Mutex
}

// Patch ensures the file contains a virtual-host block for hostname serving
// docRoot. The document root is re-checked here: the validator's earlier
// existence check is advisory and filesystem state may have changed since.
func (p *Patcher) Patch(hostname, docRoot string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(docRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("document root is not an existing directory: %s", docRoot)
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return fmt.Errorf("failed to read vhost config %s: %w", p.Path, err)
	}

	if hasEntry(string(data), hostname) {
		logging.Debug("vhost entry already present", "hostname", hostname)
		return nil
	}

	updated := string(data)
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += renderBlock(hostname, docRoot)

	if err := writeFileAtomic(p.Path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write vhost config %s: %w", p.Path, err)
	}

	logging.Debug("vhost entry added", "hostname", hostname, "docRoot", docRoot)
	return nil
}

// HasEntry reports whether the file already holds a block for hostname.
func (p *Patcher) HasEntry(hostname string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read vhost config %s: %w", p.Path, err)
	}
	return hasEntry(string(data), hostname), nil
}

// hasEntry keys on the ServerName directive, not on full block content, so a
// hand-edited block for the same hostname still counts as present.
func hasEntry(content, hostname string) bool {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "ServerName" && strings.EqualFold(fields[1], hostname) {
			return true
		}
	}
	return false
}

func renderBlock(hostname, docRoot string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n<VirtualHost *:80>\n")
	fmt.Fprintf(&b, "    ServerName %s\n", hostname)
	fmt.Fprintf(&b, "    DocumentRoot %q\n", docRoot)
	fmt.Fprintf(&b, "    <Directory %q>\n", docRoot)
	fmt.Fprintf(&b, "        AllowOverride All\n")
	fmt.Fprintf(&b, "        Require all granted\n")
	fmt.Fprintf(&b, "    </Directory>\n")
	fmt.Fprintf(&b, "</VirtualHost>\n")
	return b.String()
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
