// Package catalog holds the teams, players and other reference names used to
// fill post templates and to match subscriber entities.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"sync"

	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"

	"go.yaml.in/yaml/v3"
)

// Entity kinds; the values match the subscription kinds in storage.
const (
	KindTeam   = "team"
	KindPlayer = "player"
)

type Team struct {
	Name    string `yaml:"name"`
	City    string `yaml:"city"`
	Founded int    `yaml:"founded"`
	Stadium string `yaml:"stadium"`
}

type Player struct {
	Name        string `yaml:"name"`
	Team        string `yaml:"team"`
	Position    string `yaml:"position"`
	Nationality string `yaml:"nationality"`
}

// Data is one immutable snapshot of the catalog.
type Data struct {
	Teams        []Team   `yaml:"teams"`
	Players      []Player `yaml:"players"`
	Tournaments  []string `yaml:"tournaments"`
	Channels     []string `yaml:"channels"`
	Achievements []string `yaml:"achievements"`
}

// Entity is a subscribable name.
type Entity struct {
	Name string
	Kind string
}

// TeamNames returns team names in catalog order.
func (d Data) TeamNames() []string {
	out := make([]string, 0, len(d.Teams))
	for _, t := range d.Teams {
		out = append(out, t.Name)
	}
	return out
}

// PlayerNames returns player names in catalog order.
func (d Data) PlayerNames() []string {
	out := make([]string, 0, len(d.Players))
	for _, p := range d.Players {
		out = append(out, p.Name)
	}
	return out
}

// Entities lists every team then every player.
func (d Data) Entities() []Entity {
	out := make([]Entity, 0, len(d.Teams)+len(d.Players))
	for _, t := range d.Teams {
		out = append(out, Entity{Name: t.Name, Kind: KindTeam})
	}
	for _, p := range d.Players {
		out = append(out, Entity{Name: p.Name, Kind: KindPlayer})
	}
	return out
}

// Parse decodes a YAML catalog strictly and overlays it on the built-in data:
// a non-empty list in the file replaces the built-in list of the same name.
func Parse(b []byte) (Data, error) {
	var file Data
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return Builtin(), nil
		}
		return Data{}, fmt.Errorf("catalog: decode: %w", err)
	}

	out := Builtin()
	if len(file.Teams) > 0 {
		out.Teams = file.Teams
	}
	if len(file.Players) > 0 {
		out.Players = file.Players
	}
	if len(file.Tournaments) > 0 {
		out.Tournaments = file.Tournaments
	}
	if len(file.Channels) > 0 {
		out.Channels = file.Channels
	}
	if len(file.Achievements) > 0 {
		out.Achievements = file.Achievements
	}
	return out, validate(out)
}

func validate(d Data) error {
	var errs []error
	seen := map[string]bool{}
	for i, t := range d.Teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("teams[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("teams[%d]: duplicate name %q", i, name))
		}
		seen[name] = true
	}
	seen = map[string]bool{}
	for i, p := range d.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("players[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("players[%d]: duplicate name %q", i, name))
		}
		seen[name] = true
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// Catalog serves the current Data. With a file path it can reload (Watch).
type Catalog struct {
	path string
	log  logx.Logger

	mu       sync.RWMutex
	data     Data
	hash     uint64
	onChange []func(Data)
}

// New returns a catalog backed by path. An empty path serves the built-in data only.
func New(path string, log logx.Logger) (*Catalog, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Catalog{path: strings.TrimSpace(path), log: log, data: Builtin()}
	if c.path == "" {
		return c, nil
	}
	if _, err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Path() string { return c.path }

// Snapshot returns the current data. Callers must not mutate the slices.
func (c *Catalog) Snapshot() Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// Entities returns every subscribable name of the current snapshot.
func (c *Catalog) Entities() []Entity { return c.Snapshot().Entities() }

// OnChange registers fn to be called after a successful reload.
func (c *Catalog) OnChange(fn func(Data)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Reload re-reads the file. It reports whether the content changed; a failed
// reload keeps the previous snapshot.
func (c *Catalog) Reload() (bool, error) {
	if c.path == "" {
		return false, nil
	}
	b, err := os.ReadFile(c.path)
	if err != nil {
		return false, fmt.Errorf("catalog: read %s: %w", c.path, err)
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	sum := h.Sum64()

	c.mu.RLock()
	unchanged := sum == c.hash
	c.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	d, err := Parse(b)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.data = d
	c.hash = sum
	hooks := append([]func(Data){}, c.onChange...)
	c.mu.Unlock()

	c.log.Info("catalog loaded",
		logx.String("path", c.path),
		logx.Int("teams", len(d.Teams)),
		logx.Int("players", len(d.Players)),
	)
	for _, fn := range hooks {
		fn(d)
	}
	return true, nil
}
