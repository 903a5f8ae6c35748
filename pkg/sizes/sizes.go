// Package sizes is the nominal size catalog: pipe diameters and wall
// thicknesses per schedule, flange dimensions per pressure rating and
// U-bolt dimensions per nominal diameter.
package sizes

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

var ErrUnknownSize = errors.New("sizes: unknown size")

type PipeSize struct {
	OD  float64 `yaml:"od" json:"od"`
	Thk float64 `yaml:"thk" json:"thk"`
}

type FlangeSize struct {
	Type string  `yaml:"type" json:"type"`
	D    float64 `yaml:"D" json:"D"`
	Bore float64 `yaml:"d" json:"d"`
	Df   float64 `yaml:"df" json:"df"`
	F    float64 `yaml:"f" json:"f"`
	T    float64 `yaml:"t" json:"t"`
	N    int     `yaml:"n" json:"n"`
}

type UboltSize struct {
	Type string  `yaml:"type" json:"type"`
	C    float64 `yaml:"C" json:"C"`
	H    float64 `yaml:"H" json:"H"`
	D    float64 `yaml:"d" json:"d"`
}

// Catalog maps rating -> DN -> dimensions.
type Catalog struct {
	Pipes   map[string]map[string]PipeSize   `yaml:"pipes"`
	Flanges map[string]map[string]FlangeSize `yaml:"flanges"`
	Ubolts  map[string]UboltSize             `yaml:"ubolts"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("sizes: parse catalog: %w", err)
	}
	return &c, nil
}

// Load reads a catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (c *Catalog) Pipe(rating, dn string) (PipeSize, error) {
	s, ok := c.Pipes[rating][dn]
	if !ok {
		return PipeSize{}, fmt.Errorf("%w: pipe %s %s", ErrUnknownSize, rating, dn)
	}
	return s, nil
}

func (c *Catalog) Flange(rating, dn string) (FlangeSize, error) {
	s, ok := c.Flanges[rating][dn]
	if !ok {
		return FlangeSize{}, fmt.Errorf("%w: flange %s %s", ErrUnknownSize, rating, dn)
	}
	return s, nil
}

func (c *Catalog) Ubolt(dn string) (UboltSize, error) {
	s, ok := c.Ubolts[dn]
	if !ok {
		return UboltSize{}, fmt.Errorf("%w: U-bolt %s", ErrUnknownSize, dn)
	}
	return s, nil
}

// Ratings lists the pipe schedules in the catalog.
func (c *Catalog) Ratings() []string {
	out := make([]string, 0, len(c.Pipes))
	for r := range c.Pipes {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// DNs lists the nominal diameters known for a pipe rating, smallest
// first.
func (c *Catalog) DNs(rating string) []string {
	out := make([]string, 0, len(c.Pipes[rating]))
	for dn := range c.Pipes[rating] {
		out = append(out, dn)
	}
	sort.Slice(out, func(i, j int) bool { return dnValue(out[i]) < dnValue(out[j]) })
	return out
}

func dnValue(dn string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(dn, "DN"))
	if err != nil {
		return 0
	}
	return n
}
