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

package ssa

import (
    `sync/atomic`

    `github.com/cloudwego/dexssa/internal/advice`
)

type Pass interface {
    Apply(*Method)
}

// Steps selects the optimizer passes to run.
type Steps uint32

const (
    STEP_sccp Steps = 1 << iota
    STEP_literal_upgrade
)

const (
    STEP_none Steps = 0
    STEP_all  Steps = STEP_sccp | STEP_literal_upgrade
)

type _PassDescriptor struct {
    step Steps
    desc string
    pass func(adv advice.TranslationAdvice) Pass
}

var _passes = [...]_PassDescriptor {
    { step: STEP_sccp            , desc: "Sparse Conditional Constant Propagation" , pass: func(advice.TranslationAdvice) Pass { return SCCP{} } },
    { step: STEP_literal_upgrade , desc: "Literal Operand Upgrade"                 , pass: func(adv advice.TranslationAdvice) Pass { return LiteralUpgrade { Advice: adv } } },
}

// Optimizer runs the enabled passes over methods in SSA form.
type Optimizer struct {
    Steps     Steps
    MaxBlocks int
    Advice    advice.TranslationAdvice
}

// Optimize runs the enabled passes in order. Methods with more blocks than
// MaxBlocks are left as they are, unless MaxBlocks is zero.
func (self Optimizer) Optimize(m *Method) {
    atomic.AddUint64(&MethodCount, 1)

    /* too large to optimize */
    if self.MaxBlocks > 0 && len(m.Blocks) > self.MaxBlocks {
        atomic.AddUint64(&SkippedCount, 1)
        log.Infof("method with %d blocks exceeds the limit of %d, not optimized", len(m.Blocks), self.MaxBlocks)
        return
    }

    /* run all the enabled passes */
    for _, p := range _passes {
        if self.Steps & p.step != 0 {
            log.Debugf("running pass: %s", p.desc)
            p.pass(self.Advice).Apply(m)
        }
    }
}

// StepNames maps the config file names of the passes to their steps.
var StepNames = map[string]Steps {
    "sccp"            : STEP_sccp,
    "literal-upgrade" : STEP_literal_upgrade,
}
