package catalog

import (
	"fmt"
	"strings"

	"pixy/internal/config"
	"pixy/internal/services"
)

// Family identifies an upscaler binary ecosystem. The set is closed; every
// switch over Family handles all three cases.
type Family int

const (
	RealESRGAN Family = iota
	RealCUGAN
	Waifu2x
)

func (f Family) String() string {
	switch f {
	case RealESRGAN:
		return "realesrgan"
	case RealCUGAN:
		return "realcugan"
	case Waifu2x:
		return "waifu2x"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// MarshalText renders the family token.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a family token.
func (f *Family) UnmarshalText(text []byte) error {
	parsed, err := ParseFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// SupportsDenoise reports whether the family's binary accepts a denoise level.
func (f Family) SupportsDenoise() bool {
	switch f {
	case RealCUGAN, Waifu2x:
		return true
	default:
		return false
	}
}

// ParseFamily maps a family token to its value.
func ParseFamily(value string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "realesrgan", "real-esrgan":
		return RealESRGAN, nil
	case "realcugan", "real-cugan":
		return RealCUGAN, nil
	case "waifu2x":
		return Waifu2x, nil
	default:
		return 0, services.Wrap(services.ErrInvalidArgument, "", "parse family", fmt.Sprintf("unknown upscaler family %q", value), nil)
	}
}

// Model describes one selectable upscaling model.
type Model struct {
	Name         string `json:"name"`
	Family       Family `json:"family"`
	Scale        int    `json:"scale"`
	DenoiseLevel *int   `json:"denoise_level,omitempty"`
	Path         string `json:"path,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Validate checks the model invariants: a name, a scale of at least 1, and a
// denoise level only on families that accept one.
func (m Model) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return services.Wrap(services.ErrInvalidArgument, "", "model", "name must be set", nil)
	}
	if m.Scale < 1 {
		return services.Wrap(services.ErrInvalidArgument, "", "model "+m.Name, fmt.Sprintf("scale %d must be >= 1", m.Scale), nil)
	}
	if m.DenoiseLevel != nil && !m.Family.SupportsDenoise() {
		return services.Wrap(services.ErrInvalidArgument, "", "model "+m.Name, m.Family.String()+" does not accept a denoise level", nil)
	}
	return nil
}

// Catalog is a read-only model registry. Build it once at startup and pass it
// to the components that need model lookups.
type Catalog struct {
	models []Model
	index  map[string]int
}

// New builds a catalog from models. A later model replaces an earlier one
// with the same name, keeping the earlier position.
func New(models ...Model) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(models))}
	for _, m := range models {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if i, ok := c.index[m.Name]; ok {
			c.models[i] = m
			continue
		}
		c.index[m.Name] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// NewCurated returns the built-in catalog.
func NewCurated() *Catalog {
	c, err := New(curated()...)
	if err != nil {
		panic(fmt.Sprintf("curated catalog invalid: %v", err))
	}
	return c
}

// With returns a new catalog holding the receiver's models plus extra.
func (c *Catalog) With(extra ...Model) (*Catalog, error) {
	combined := make([]Model, 0, len(c.models)+len(extra))
	combined = append(combined, c.models...)
	combined = append(combined, extra...)
	return New(combined...)
}

// Lookup returns the model registered under name.
func (c *Catalog) Lookup(name string) (Model, bool) {
	i, ok := c.index[strings.TrimSpace(name)]
	if !ok {
		return Model{}, false
	}
	return c.models[i], true
}

// Resolve is Lookup with an InvalidArgument error for unknown names.
func (c *Catalog) Resolve(name string) (Model, error) {
	if m, ok := c.Lookup(name); ok {
		return m, nil
	}
	return Model{}, services.Wrap(services.ErrInvalidArgument, "", "model lookup",
		fmt.Sprintf("unknown model %q (known: %s)", name, strings.Join(c.Names(), ", ")), nil)
}

// All returns the models in registration order.
func (c *Catalog) All() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Names returns the model names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.models))
	for _, m := range c.models {
		names = append(names, m.Name)
	}
	return names
}

// FromConfig converts [[models]] entries into catalog models.
func FromConfig(entries []config.Model) ([]Model, error) {
	models := make([]Model, 0, len(entries))
	for _, entry := range entries {
		family, err := ParseFamily(entry.Family)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", entry.Name, err)
		}
		m := Model{
			Name:        entry.Name,
			Family:      family,
			Scale:       entry.Scale,
			Path:        entry.Path,
			Description: entry.Description,
		}
		if entry.DenoiseLevel != nil {
			level := *entry.DenoiseLevel
			m.DenoiseLevel = &level
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Load builds the curated catalog extended with the configured models.
func Load(cfg *config.Config) (*Catalog, error) {
	base := NewCurated()
	if cfg == nil || len(cfg.Models) == 0 {
		return base, nil
	}
	extra, err := FromConfig(cfg.Models)
	if err != nil {
		return nil, err
	}
	return base.With(extra...)
}
