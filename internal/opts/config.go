/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opts

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config mirrors the configuration file:
//
//	[optimizer]
//	steps = ["sccp", "literal-upgrade"]
//	max-optimize-blocks = 2000
//
//	[log]
//	verbosity = 1
//
// Absent keys keep their defaults.
type Config struct {
	Optimizer OptimizerConfig `toml:"optimizer"`
	Log       LogConfig       `toml:"log"`
}

type OptimizerConfig struct {
	Steps             *[]string `toml:"steps"`
	MaxOptimizeBlocks *int      `toml:"max-optimize-blocks"`
}

type LogConfig struct {
	Verbosity *int `toml:"verbosity"`
}

// Apply overrides the options with the values present in the config.
func (self *Config) Apply(o *Options) error {
	if v := self.Optimizer.Steps; v != nil {
		if steps, err := ParseSteps(*v); err != nil {
			return err
		} else {
			o.Steps = steps
		}
	}

	if v := self.Optimizer.MaxOptimizeBlocks; v != nil {
		if *v < 0 {
			return errors.Errorf("invalid max-optimize-blocks: %d", *v)
		} else {
			o.MaxOptimizeBlocks = *v
		}
	}

	if v := self.Log.Verbosity; v != nil {
		if *v < _MinVerbosity {
			return errors.Errorf("invalid verbosity: %d", *v)
		} else {
			o.Verbosity = *v
		}
	}
	return nil
}

func checkUndecoded(md toml.MetaData, src string) error {
	if keys := md.Undecoded(); len(keys) != 0 {
		return errors.Errorf("unknown configuration keys in %s: %v", src, keys)
	} else {
		return nil
	}
}

// Parse reads the configuration text on top of the default options.
func Parse(text string) (Options, error) {
	var cfg Config
	ret := GetDefaultOptions()

	/* decode the text */
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return ret, errors.Wrap(err, "cannot parse configuration")
	}

	/* reject typos */
	if err = checkUndecoded(md, "configuration"); err != nil {
		return ret, err
	}

	/* override the defaults */
	if err = cfg.Apply(&ret); err != nil {
		return ret, errors.Wrap(err, "invalid configuration")
	}
	return ret, nil
}

// LoadFile reads the configuration file at path on top of the default
// options.
func LoadFile(path string) (Options, error) {
	var cfg Config
	ret := GetDefaultOptions()

	/* decode the file */
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return ret, errors.Wrapf(err, "cannot load configuration from %s", path)
	}

	/* reject typos */
	if err = checkUndecoded(md, path); err != nil {
		return ret, err
	}

	/* override the defaults */
	if err = cfg.Apply(&ret); err != nil {
		return ret, errors.Wrapf(err, "invalid configuration in %s", path)
	}
	return ret, nil
}

// SetDefaults makes o the default options from now on.
func SetDefaults(o Options) {
	Steps = o.Steps
	MaxOptimizeBlocks = o.MaxOptimizeBlocks
	Verbosity = o.Verbosity
}

func (self Options) String() string {
	return fmt.Sprintf("steps=%#x max-optimize-blocks=%d verbosity=%d", uint32(self.Steps), self.MaxOptimizeBlocks, self.Verbosity)
}
