package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/internal/logutil"
)

// Config is the heapctl configuration file.
//
//	[allocator]
//	chunk-size = 4096
//	buckets = 14
//	check = false
//
//	[arena]
//	provider = "slice"   # or "mmap"
//	max-heap = 104857600
//
//	[replay]
//	workers = 4
//	verify = true
//
//	[log]
//	level = "info"
//	format = "console"
//	filename = ""
type Config struct {
	Allocator AllocatorConfig   `toml:"allocator"`
	Arena     ArenaConfig       `toml:"arena"`
	Replay    ReplayConfig      `toml:"replay"`
	Log       logutil.LogConfig `toml:"log"`
}

type AllocatorConfig struct {
	ChunkSize int  `toml:"chunk-size"`
	Buckets   int  `toml:"buckets"`
	Check     bool `toml:"check"`
}

type ArenaConfig struct {
	Provider string `toml:"provider"`
	MaxHeap  int    `toml:"max-heap"`
}

type ReplayConfig struct {
	Workers int  `toml:"workers"`
	Verify  bool `toml:"verify"`
}

func defaultConfig() Config {
	o := alloc.DefaultOptions()
	return Config{
		Allocator: AllocatorConfig{ChunkSize: o.ChunkSize, Buckets: o.Buckets},
		Arena:     ArenaConfig{Provider: string(arena.KindSlice), MaxHeap: arena.DefaultMaxHeap},
		Replay:    ReplayConfig{Workers: 4, Verify: true},
		Log:       logutil.DefaultConfig(),
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return c, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return c, nil
}

// allocOptions converts the [allocator] section.
func (c Config) allocOptions() alloc.Options {
	return alloc.Options{
		ChunkSize:    c.Allocator.ChunkSize,
		Buckets:      c.Allocator.Buckets,
		CheckEveryOp: c.Allocator.Check,
		Logger:       logger.Named("alloc"),
	}
}

// newProvider builds the arena provider named by the [arena] section.
func (c Config) newProvider() (arena.Provider, error) {
	return arena.New(arena.Kind(c.Arena.Provider), c.Arena.MaxHeap)
}
