// Package cfg loads the aligner parameters from a TOML file.
package cfg

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mudesheng/tiledaligner/chain"
	"github.com/mudesheng/tiledaligner/mapper"
	"github.com/mudesheng/tiledaligner/psl"
	"github.com/mudesheng/tiledaligner/splitdetect"
	"github.com/mudesheng/tiledaligner/tilematch"
)

var ErrInvalidConfig = errors.New("invalid config")

type SplitConfig struct {
	TileLength       int `toml:"tile-length" comment:"Tile index"`
	MinTileCount     int `toml:"min-tile-count"`
	OverlapBuffer    int `toml:"overlap-buffer"`
	MaxHitsPerBucket int `toml:"max-hits-per-bucket" comment:"0 means no limit"`
	MaxPairs         int `toml:"max-pairs" comment:"Split hypotheses built per query, 0 means no limit"`
}

type ChainConfig struct {
	DistanceMultiplier int `toml:"distance-multiplier" comment:"Genomic gap bound: multiplier * query gap + slack"`
	GapSlack           int `toml:"gap-slack"`
	OverlapTolerance   int `toml:"overlap-tolerance"`
}

type MergeConfig struct {
	Tolerance     int `toml:"tolerance"`
	MaxHypotheses int `toml:"max-hypotheses" comment:"0 means no limit"`
}

type OutputConfig struct {
	Format string `toml:"format" comment:"psl or sam"`
}

type Config struct {
	LogLevel string       `toml:"log-level"`
	Split    SplitConfig  `toml:"split"`
	Chain    ChainConfig  `toml:"chain"`
	Merge    MergeConfig  `toml:"merge"`
	Output   OutputConfig `toml:"output"`
}

func Default() Config {
	sp := splitdetect.DefaultParams()
	cp := chain.DefaultParams()
	return Config{
		LogLevel: "info",
		Split: SplitConfig{
			TileLength:       tilematch.DefaultTileLength,
			MinTileCount:     sp.MinTileCount,
			OverlapBuffer:    sp.OverlapBuffer,
			MaxHitsPerBucket: sp.MaxHitsPerBucket,
			MaxPairs:         sp.MaxPairs,
		},
		Chain: ChainConfig{
			DistanceMultiplier: cp.DistanceMultiplier,
			GapSlack:           cp.GapSlack,
			OverlapTolerance:   cp.OverlapTolerance,
		},
		Merge: MergeConfig{
			Tolerance:     psl.DefaultMergeTolerance,
			MaxHypotheses: mapper.DefaultMaxHypotheses,
		},
		Output: OutputConfig{Format: "psl"},
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("[Load] %s: %w", path, err)
	}
	return c, c.Validate()
}

func Write(path string, c Config) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	switch {
	case c.Split.TileLength < 1:
		return fmt.Errorf("tile-length %d: %w", c.Split.TileLength, ErrInvalidConfig)
	case c.Split.MinTileCount < 1:
		return fmt.Errorf("min-tile-count %d: %w", c.Split.MinTileCount, ErrInvalidConfig)
	case c.Split.OverlapBuffer < 0 || c.Split.MaxHitsPerBucket < 0 || c.Split.MaxPairs < 0:
		return fmt.Errorf("negative split setting: %w", ErrInvalidConfig)
	case c.Chain.DistanceMultiplier < 1 || c.Chain.GapSlack < 0 || c.Chain.OverlapTolerance < 0:
		return fmt.Errorf("chain settings %+v: %w", c.Chain, ErrInvalidConfig)
	case c.Merge.Tolerance < 0 || c.Merge.MaxHypotheses < 0:
		return fmt.Errorf("merge settings %+v: %w", c.Merge, ErrInvalidConfig)
	case c.Output.Format != "psl" && c.Output.Format != "sam":
		return fmt.Errorf("output format %q: %w", c.Output.Format, ErrInvalidConfig)
	}
	return nil
}

// MapperParams converts c into pipeline parameters.
func (c Config) MapperParams() mapper.Params {
	p := mapper.DefaultParams()
	p.Split.MinTileCount = c.Split.MinTileCount
	p.Split.OverlapBuffer = c.Split.OverlapBuffer
	p.Split.MaxHitsPerBucket = c.Split.MaxHitsPerBucket
	p.Split.MaxPairs = c.Split.MaxPairs
	p.Chain.DistanceMultiplier = c.Chain.DistanceMultiplier
	p.Chain.GapSlack = c.Chain.GapSlack
	p.Chain.OverlapTolerance = c.Chain.OverlapTolerance
	p.MergeTolerance = c.Merge.Tolerance
	p.MaxHypotheses = c.Merge.MaxHypotheses
	return p.WithTileLength(c.Split.TileLength)
}
