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

package advice

import (
    `github.com/cloudwego/dexssa/internal/rop`
)

// TranslationAdvice tells the optimizer what the target instruction set is
// able to encode.
type TranslationAdvice interface {
    // HasConstantOperation reports whether op has a form that takes b as an
    // immediate operand.
    HasConstantOperation(op *rop.Rop, a rop.RegisterSpec, b rop.RegisterSpec) bool

    // RequiresSourcesInOrder reports whether the sources of op must stay in
    // their current order, even if op is commutative.
    RequiresSourcesInOrder(op *rop.Rop, sources rop.RegisterSpecList) bool

    // MaxOptimalRegisterCount is the number of registers the encoding can
    // address with the shortest instruction forms.
    MaxOptimalRegisterCount() int
}

// VM is the advice for the register VM: int operations with 8 or 16 bit
// literals.
type VM struct{}

func (VM) HasConstantOperation(op *rop.Rop, a rop.RegisterSpec, b rop.RegisterSpec) bool {
    if a.Type() != rop.Int {
        return false
    }

    /* the second operand must be a constant, except for the reverse sub */
    cst, ok := b.TypeBearer().(rop.CstInteger)
    if !ok {
        if ca, isint := a.TypeBearer().(rop.CstInteger); isint && op.Opcode == rop.OP_sub {
            return ca.FitsIn16Bits()
        } else {
            return false
        }
    }

    /* check by opcode */
    switch op.Opcode {
        case rop.OP_rem, rop.OP_add, rop.OP_mul, rop.OP_div, rop.OP_and, rop.OP_or, rop.OP_xor : return cst.FitsIn16Bits()
        case rop.OP_shl, rop.OP_shr, rop.OP_ushr                                               : return cst.FitsIn8Bits()
        case rop.OP_sub                                                                        : return (-cst).FitsIn16Bits()
        default                                                                                : return false
    }
}

func (VM) RequiresSourcesInOrder(op *rop.Rop, sources rop.RegisterSpecList) bool {
    return op.Opcode == rop.OP_sub && len(sources) == 2 && !sources[1].TypeBearer().IsConstant()
}

func (VM) MaxOptimalRegisterCount() int {
    return 16
}

// NoLiterals is the advice for a target without any immediate operand forms.
type NoLiterals struct{}

func (NoLiterals) HasConstantOperation(*rop.Rop, rop.RegisterSpec, rop.RegisterSpec) bool {
    return false
}

func (NoLiterals) RequiresSourcesInOrder(*rop.Rop, rop.RegisterSpecList) bool {
    return false
}

func (NoLiterals) MaxOptimalRegisterCount() int {
    return 256
}

// Default is the advice used when none is given.
var Default TranslationAdvice = VM{}
