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

package dexssa

import (
	"fmt"

	"github.com/cloudwego/dexssa/internal/advice"
	"github.com/cloudwego/dexssa/internal/opts"
	"github.com/cloudwego/dexssa/internal/ssa"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// Steps is a set of optimizer passes.
type Steps = ssa.Steps

const (
	StepNone           = ssa.STEP_none
	StepSCCP           = ssa.STEP_sccp
	StepLiteralUpgrade = ssa.STEP_literal_upgrade
	StepAll            = ssa.STEP_all
)

// TranslationAdvice tells the optimizer which literal operand forms the
// target instruction set has.
type TranslationAdvice = advice.TranslationAdvice

var (
	// VMAdvice allows 16-bit int literals, and 8-bit literal shift counts.
	VMAdvice TranslationAdvice = advice.VM{}

	// NoLiteralsAdvice never allows literal operands.
	NoLiteralsAdvice TranslationAdvice = advice.NoLiterals{}
)

// WithSteps selects the optimizer passes to run.
//
// Passes always run in the same order: SCCP first, then the literal upgrade.
// StepNone still converts the body into SSA form.
//
// The default value of this option is StepAll.
func WithSteps(steps Steps) Option {
	if steps&^StepAll != 0 {
		panic(fmt.Sprintf("dexssa: invalid optimizer steps: %#x", uint32(steps)))
	} else {
		return func(o *opts.Options) { o.Steps = steps }
	}
}

// WithoutSteps disables some of the optimizer passes.
func WithoutSteps(steps Steps) Option {
	return func(o *opts.Options) { o.Steps &^= steps }
}

// WithMaxOptimizeBlocks sets the maximum number of basic blocks a method can
// have before the optimizer leaves it as it is.
//
// Set this option to "0" disables this limit, which means optimizing
// everything.
//
// The default value of this option is "0".
func WithMaxOptimizeBlocks(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("dexssa: invalid max optimize blocks: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxOptimizeBlocks = n }
	}
}

// WithAdvice sets the translation advice of the literal upgrade.
//
// The default value of this option is VMAdvice.
func WithAdvice(adv TranslationAdvice) Option {
	if adv == nil {
		panic("dexssa: nil translation advice")
	} else {
		return func(o *opts.Options) { o.Advice = adv }
	}
}

// SetSteps sets the default optimizer passes for all methods from now on.
//
// This value can also be configured with the `DEXSSA_STEPS` environment
// variable, as a comma separated list of "sccp" and "literal-upgrade".
//
// Returns the old opts.Steps value.
func SetSteps(steps Steps) Steps {
	steps, opts.Steps = opts.Steps, steps
	return steps
}

// SetMaxOptimizeBlocks sets the default maximum number of basic blocks to
// optimize for all methods from now on.
//
// This value can also be configured with the `DEXSSA_MAX_OPTIMIZE_BLOCKS`
// environment variable.
//
// Returns the old opts.MaxOptimizeBlocks value.
func SetMaxOptimizeBlocks(n int) int {
	n, opts.MaxOptimizeBlocks = opts.MaxOptimizeBlocks, n
	return n
}
