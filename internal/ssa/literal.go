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
    `github.com/cloudwego/dexssa/internal/rop`
)

// LiteralUpgrade rewrites instructions with constant operands into their
// literal forms, and comparisons against zero or null into the single
// operand branches.
type LiteralUpgrade struct {
    Advice advice.TranslationAdvice
}

func (self LiteralUpgrade) Apply(m *Method) {
    adv := self.Advice
    if adv == nil {
        adv = advice.Default
    }

    /* visit every instruction */
    m.ForEachInsn(func(ins Insn) {
        if v, ok := ins.(*NormalInsn); ok && !v.IsMove() {
            upgradeInsn(m, adv, v)
        }
    })
}

func isConstZeroOrNull(rs rop.RegisterSpec) bool {
    if c, ok := rs.Constant(); !ok {
        return false
    } else if _, isnull := c.(rop.CstKnownNull); isnull {
        return true
    } else if v, isint := intOf(c); isint {
        return v == 0
    } else {
        return false
    }
}

func upgradeInsn(m *Method, adv advice.TranslationAdvice, ins *NormalInsn) {
    op := ins.Opcode()
    src := ins.Sources()

    /* instructions that compute a known constant become constant loads */
    if tryReplacingWithConstant(m, ins) {
        return
    }

    /* only two-source instructions can be upgraded */
    if len(src) != 2 {
        return
    }

    /* comparing against zero or null, flip the sense if zero comes first */
    if op.Branch == rop.BRANCH_if {
        if isConstZeroOrNull(src[0]) {
            replacePlainInsn(m, ins, src.WithoutFirst(), rop.FlippedIfOpcode(op.Opcode), nil)
        } else if isConstZeroOrNull(src[1]) {
            replacePlainInsn(m, ins, src.WithoutLast(), op.Opcode, nil)
        }
        return
    }

    /* use the literal form if there is one */
    if adv.HasConstantOperation(op, src[0], src[1]) {
        if m.UpgradeToLiteral(ins) {
            atomic.AddUint64(&UpgradeCount, 1)
        }
        return
    }

    /* commutative operations may swap their operands to get one */
    if op.IsCommutative() && !adv.RequiresSourcesInOrder(op, src) && adv.HasConstantOperation(op, src[1], src[0]) {
        m.SetNewSources(ins, src.Swapped())
        if m.UpgradeToLiteral(ins) {
            atomic.AddUint64(&UpgradeCount, 1)
        }
    }
}

// tryReplacingWithConstant turns an instruction whose result is a known int
// constant into a constant load. When the result came through a
// move-result-pseudo, the throwing instruction before it becomes a goto.
func tryReplacingWithConstant(m *Method, ins *NormalInsn) bool {
    op := ins.Opcode()
    rs := ins.Result()

    /* must have an unnamed constant int result */
    if rs == nil || rs.Local().IsValid() || op.Opcode == rop.OP_const {
        return false
    } else if !rs.TypeBearer().IsConstant() || rs.Basic() != rop.BT_int {
        return false
    }

    /* replace with a constant load */
    cst, _ := rs.Constant()
    replacePlainInsn(m, ins, rop.EmptyList, rop.OP_const, cst)

    /* the producer does not need to run anymore */
    if op.Opcode == rop.OP_move_result_pseudo {
        bb := m.Blocks[ins.Block()]
        if len(bb.Preds) != 1 {
            panic("move-result-pseudo must have exactly one predecessor: " + ins.String())
        }

        /* the throwing instruction ends the predecessor */
        prev := m.Blocks[bb.Preds[0]]
        replacePlainInsn(m, prev.LastInsn().(*NormalInsn), rop.EmptyList, rop.OP_goto, nil)
    }
    return true
}

func replacePlainInsn(m *Method, ins *NormalInsn, sources rop.RegisterSpecList, opc rop.RegOp, cst rop.Constant) {
    var dest rop.TypeBearer
    var insn rop.Insn

    /* find the new operation */
    rs := ins.Result()
    if rs != nil {
        dest = rs.TypeBearer()
    }

    /* build the new instruction */
    if op := rop.MustRopFor(opc, dest, sources.Types(), cst); cst == nil {
        insn = rop.NewPlainInsn(op, rs, sources)
    } else {
        insn = rop.NewPlainCstInsn(op, rs, sources, cst)
    }

    /* replace the old one */
    m.ReplaceInsn(ins, newNormalInsn(ins.Block(), insn))
    atomic.AddUint64(&UpgradeCount, 1)
    log.Debugf("replaced %s with %s", ins, insn)
}
