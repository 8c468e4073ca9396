package storage

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"pagegrab/pkg/config"
	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/logger"
)

// trailing ".html", ".php" and similar
var extensionSuffix = regexp.MustCompile(`\.[A-Za-z0-9_]+$`)

var unsafeLabelChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Provisioner maps page identities to folders under a root directory
type Provisioner struct {
	root         string
	naming       string
	defaultLabel string
	prefix       string
	log          logger.Logger

	mu       sync.Mutex
	created  map[string]bool
	assigned map[string]string // identity -> label
	owners   map[string]string // label -> identity
}

// NewProvisioner creates a provisioner rooted at root. naming is one of
// config.FolderNamingURL or config.FolderNamingSequence.
func NewProvisioner(root, naming, defaultLabel, prefix string, log logger.Logger) *Provisioner {
	if log == nil {
		log = logger.GetLogger()
	}
	if naming == "" {
		naming = config.FolderNamingURL
	}
	return &Provisioner{
		root:         root,
		naming:       naming,
		defaultLabel: defaultLabel,
		prefix:       prefix,
		log:          log.WithField("component", "provisioner"),
		created:      make(map[string]bool),
		assigned:     make(map[string]string),
		owners:       make(map[string]string),
	}
}

// Provision returns the folder for a page and makes sure it exists.
// index is the 1-based visit sequence number. A page always gets the same
// folder, and two different pages never share one: a label already taken
// by another page is suffixed with the page's query or its index.
func (p *Provisioner) Provision(identity string, index int) (string, error) {
	if p.naming == config.FolderNamingSequence && index < 1 {
		return "", errs.New(errs.KindIO, fmt.Sprintf("invalid page index %d", index))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	label, ok := p.assigned[identity]
	if !ok {
		base, err := p.Label(identity, index)
		if err != nil {
			return "", err
		}
		label = p.claim(identity, base, index)
	}
	dir := filepath.Join(p.root, label)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Wrap(errs.KindIO, err, "failed to create page folder").WithURL(identity)
	}

	if !p.created[dir] {
		p.created[dir] = true
		p.log.DebugWithFields("Page folder ready", map[string]interface{}{
			"page_url": identity,
			"folder":   dir,
		})
	}

	return dir, nil
}

// claim reserves a label for identity that no other page holds.
// Callers hold p.mu.
func (p *Provisioner) claim(identity, base string, index int) string {
	candidates := []string{base}
	if u, err := url.Parse(identity); err == nil && u.RawQuery != "" {
		if q := strings.Trim(unsafeLabelChars.ReplaceAllString(u.RawQuery, "_"), "_"); q != "" {
			candidates = append(candidates, base+"-"+q)
		}
	}
	candidates = append(candidates, fmt.Sprintf("%s-%d", base, index))

	label := ""
	for _, c := range candidates {
		if _, taken := p.owners[c]; !taken {
			label = c
			break
		}
	}
	for n := 2; label == ""; n++ {
		c := fmt.Sprintf("%s-%d-%d", base, index, n)
		if _, taken := p.owners[c]; !taken {
			label = c
		}
	}

	if label != base {
		p.log.DebugWithFields("Folder label taken by another page", map[string]interface{}{
			"page_url": identity,
			"label":    base,
			"owner":    p.owners[base],
			"using":    label,
		})
	}
	p.assigned[identity] = label
	p.owners[label] = identity
	return label
}

// Label computes the folder name for a page without touching the filesystem
func (p *Provisioner) Label(identity string, index int) (string, error) {
	if p.naming == config.FolderNamingSequence {
		if index < 1 {
			return "", errs.New(errs.KindIO, fmt.Sprintf("invalid page index %d", index))
		}
		return fmt.Sprintf("%s%d", p.prefix, index), nil
	}

	u, err := url.Parse(identity)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, err, "cannot derive folder from page URL").WithURL(identity)
	}
	return FolderLabel(u.Path, p.defaultLabel), nil
}

// FolderLabel derives a folder name from a URL path: the site root maps to
// defaultLabel, anything else to its last segment without an extension.
func FolderLabel(urlPath, defaultLabel string) string {
	trimmed := strings.TrimRight(urlPath, "/")
	if trimmed == "" {
		return defaultLabel
	}

	label := extensionSuffix.ReplaceAllString(path.Base(trimmed), "")
	if label == "" || label == "." || label == ".." {
		return defaultLabel
	}
	return label
}
