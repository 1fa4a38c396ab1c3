// Package external adapts the dnd5e-api client into a reference catalog, so
// classic 5e class ids resolve hit dice and saving throws when the core SW5e
// catalog does not know them.
package external

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	"github.com/fadedpez/dnd5e-api/entities"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/reference"
)

// slugPattern matches characters that should be replaced in slugs
var slugPattern = regexp.MustCompile(`[^a-z0-9-]+`)

var dashRuns = regexp.MustCompile(`-+`)

// abilityKeys maps the API's short ability keys to sheet ability names
var abilityKeys = map[string]string{
	"str": sw5e.AbilityStrength,
	"dex": sw5e.AbilityDexterity,
	"con": sw5e.AbilityConstitution,
	"int": sw5e.AbilityIntelligence,
	"wis": sw5e.AbilityWisdom,
	"cha": sw5e.AbilityCharisma,
}

// classFetcher is the subset of dnd5e.Interface the catalog uses
type classFetcher interface {
	GetClass(key string) (*entities.Class, error)
}

// Config contains configuration options for the external catalog.
type Config struct {
	// BaseURL for the D&D 5e API (optional, defaults to https://www.dnd5eapi.co/api/2014/)
	BaseURL string
	// HTTPTimeout for API requests (optional, defaults to 10 seconds)
	HTTPTimeout time.Duration
	// CacheTTL for the cached client (optional, defaults to 24 hours)
	CacheTTL time.Duration
}

// Validate validates the Config and sets defaults if not provided.
func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.dnd5eapi.co/api/2014/"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return nil
}

// Catalog is a reference.Catalog backed by the dnd5e-api.
// Lookups block on the network the first time a class is seen; hits and
// misses are both remembered for the life of the catalog.
type Catalog struct {
	client classFetcher

	mu    sync.Mutex
	cache map[string]cachedClass
}

type cachedClass struct {
	info  reference.ClassInfo
	found bool
}

var _ reference.Catalog = (*Catalog)(nil)

// New creates a catalog talking to the dnd5e-api with the given configuration.
func New(cfg *Config) (*Catalog, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	baseClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client:  httpClient,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create D&D 5e API client: %w", err)
	}

	return newCatalog(dnd5e.NewCachedClient(baseClient, cfg.CacheTTL)), nil
}

func newCatalog(client classFetcher) *Catalog {
	return &Catalog{
		client: client,
		cache:  make(map[string]cachedClass),
	}
}

// Class implements reference.Catalog
func (c *Catalog) Class(id string) (reference.ClassInfo, bool) {
	apiID := toAPIFormat(id)
	if apiID == "" {
		return reference.ClassInfo{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if hit, ok := c.cache[apiID]; ok {
		return hit.info, hit.found
	}

	class, err := c.client.GetClass(apiID)
	if err != nil || class == nil {
		if err != nil {
			slog.Warn("class lookup failed",
				"class_id", id,
				"api_id", apiID,
				"error", err.Error())
		}
		c.cache[apiID] = cachedClass{}
		return reference.ClassInfo{}, false
	}

	info := convertClass(id, class)
	c.cache[apiID] = cachedClass{info: info, found: true}
	return info, true
}

func convertClass(id string, class *entities.Class) reference.ClassInfo {
	info := reference.ClassInfo{
		ID:     id,
		Name:   class.Name,
		HitDie: int(class.HitDie),
	}
	for _, st := range class.SavingThrows {
		if ability, ok := abilityKeys[strings.ToLower(st.Key)]; ok {
			info.SavingThrows = append(info.SavingThrows, ability)
		}
	}
	return info
}

// toAPIFormat converts a class id to the API's slug format
// e.g., "Eldritch Knight" -> "eldritch-knight"
func toAPIFormat(id string) string {
	slug := strings.ToLower(strings.TrimSpace(id))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = dashRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
