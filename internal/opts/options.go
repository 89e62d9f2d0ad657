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
	"strings"

	"github.com/cloudwego/dexssa/internal/advice"
	"github.com/cloudwego/dexssa/internal/ssa"
	"github.com/pkg/errors"
)

type Options struct {
	Steps             ssa.Steps
	MaxOptimizeBlocks int
	Verbosity         int
	Advice            advice.TranslationAdvice
}

// Optimizer returns the optimizer configured by the options.
func (self *Options) Optimizer() ssa.Optimizer {
	return ssa.Optimizer{
		Steps:     self.Steps,
		MaxBlocks: self.MaxOptimizeBlocks,
		Advice:    self.Advice,
	}
}

func GetDefaultOptions() Options {
	return Options{
		Steps:             Steps,
		MaxOptimizeBlocks: MaxOptimizeBlocks,
		Verbosity:         Verbosity,
		Advice:            advice.Default,
	}
}

// ParseSteps converts step names into a step set. "all" and "none" are
// also accepted.
func ParseSteps(names []string) (ssa.Steps, error) {
	ret := ssa.STEP_none
	for _, name := range names {
		switch name = strings.TrimSpace(name); name {
		case "", "none":
			continue
		case "all":
			ret |= ssa.STEP_all
		default:
			if step, ok := ssa.StepNames[name]; !ok {
				return 0, errors.Errorf("unknown optimizer step: %q", name)
			} else {
				ret |= step
			}
		}
	}
	return ret, nil
}
