package alloc

import (
	"fmt"
	"strings"
)

// BasePageSize is the page granule used by PageConfig.
const BasePageSize = 4096

// Config defines the placement strategy of an Allocator.
type Config struct {
	// Name for this configuration (for CLI selection and reports)
	Name string

	// Policy picks among free ranges that can hold a request.
	Policy Policy

	// Granule rounds every request size up to a multiple of itself.
	// Zero or one means exact byte sizes. Must be a power of two.
	Granule uint64

	// MaxAlign rejects alignments above this value. Zero means no bound.
	MaxAlign uint64
}

// Predefined configurations.
var (
	// DefaultConfig: first-fit with exact byte sizes. An allocation fails
	// only when no single free range can hold it.
	DefaultConfig = Config{
		Name:   "default",
		Policy: FirstFit,
	}

	// PageConfig: first-fit with sizes rounded up to whole 4KB pages.
	PageConfig = Config{
		Name:    "page",
		Policy:  FirstFit,
		Granule: BasePageSize,
	}

	// BestFitConfig: best-fit with exact byte sizes.
	BestFitConfig = Config{
		Name:   "bestfit",
		Policy: BestFit,
	}
)

// Configs lists the predefined configurations by name.
var Configs = []Config{DefaultConfig, PageConfig, BestFitConfig}

// ConfigByName returns the predefined configuration called name.
func ConfigByName(name string) (Config, error) {
	for _, c := range Configs {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	names := make([]string, len(Configs))
	for i, c := range Configs {
		names[i] = c.Name
	}
	return Config{}, fmt.Errorf("unknown config %q (must be one of %s)", name, strings.Join(names, ", "))
}

// Validate checks the configuration for inconsistent values.
func (c Config) Validate() error {
	if c.Policy != FirstFit && c.Policy != BestFit {
		return fmt.Errorf("alloc: unknown policy %v", c.Policy)
	}
	if c.Granule > 1 && !isPowerOfTwo(c.Granule) {
		return fmt.Errorf("alloc: granule %d is not a power of two", c.Granule)
	}
	if c.MaxAlign != 0 && !isPowerOfTwo(c.MaxAlign) {
		return fmt.Errorf("alloc: max alignment %d is not a power of two", c.MaxAlign)
	}
	return nil
}

func (c Config) granule() uint64 {
	if c.Granule == 0 {
		return 1
	}
	return c.Granule
}
