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
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/dexssa/internal/ssa"
)

const (
	_DefaultMaxOptimizeBlocks = 0 // no limit
	_DefaultVerbosity         = 0 // notice and above
)

const (
	_MinVerbosity = -4
)

var (
	Steps             = parseStepsOrDefault("DEXSSA_STEPS", ssa.STEP_all)
	MaxOptimizeBlocks = parseOrDefault("DEXSSA_MAX_OPTIMIZE_BLOCKS", _DefaultMaxOptimizeBlocks, 0)
	Verbosity         = parseOrDefault("DEXSSA_VERBOSITY", _DefaultVerbosity, _MinVerbosity)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseInt(env, 0, 64); err != nil {
		panic("dexssa: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("dexssa: value too small for " + key)
	} else {
		return ret
	}
}

func parseStepsOrDefault(key string, def ssa.Steps) ssa.Steps {
	if env := os.Getenv(key); env == "" {
		return def
	} else if ret, err := ParseSteps(strings.Split(env, ",")); err != nil {
		panic("dexssa: invalid value for " + key + ": " + err.Error())
	} else {
		return ret
	}
}
