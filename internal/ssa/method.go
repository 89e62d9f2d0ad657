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
    `fmt`
    `strings`

    `github.com/cloudwego/dexssa/internal/rop`
)

// Method is a method body in SSA form. It owns every block and every
// instruction, and keeps the def-use chains of all the registers up to
// date across mutations made through its methods.
type Method struct {
    Blocks     []*BasicBlock
    Entry      int
    RegCount   int
    IsStatic   bool
    ParamWidth int
    defs       []Insn
    uses       [][]Insn
}

func (self *Method) Block(i int) *BasicBlock {
    return self.Blocks[i]
}

// DefinitionOf returns the only instruction defining reg, or nil if reg
// is never defined.
func (self *Method) DefinitionOf(reg int) Insn {
    if reg >= len(self.defs) {
        return nil
    } else {
        return self.defs[reg]
    }
}

// UsesOf returns the instructions reading reg. An instruction that reads
// reg more than once appears once per operand.
func (self *Method) UsesOf(reg int) []Insn {
    if reg >= len(self.uses) {
        return nil
    } else {
        return append([]Insn(nil), self.uses[reg]...)
    }
}

// ForEachInsn visits every instruction in block order. The visitor may
// replace the instruction it is given.
func (self *Method) ForEachInsn(fn func(ins Insn)) {
    for _, bb := range self.Blocks {
        for i := 0; i < len(bb.Insns); i++ {
            fn(bb.Insns[i])
        }
    }
}

// ForEachPhi visits every Phi node in block order.
func (self *Method) ForEachPhi(fn func(phi *PhiInsn)) {
    for _, bb := range self.Blocks {
        for _, phi := range bb.Phis() {
            fn(phi)
        }
    }
}

func (self *Method) reserve(reg int) {
    for reg >= len(self.defs) {
        self.defs = append(self.defs, nil)
        self.uses = append(self.uses, nil)
    }
    if reg >= self.RegCount {
        self.RegCount = reg + 1
    }
}

func (self *Method) buildDefUse() {
    self.defs = make([]Insn, self.RegCount)
    self.uses = make([][]Insn, self.RegCount)

    /* add every instruction */
    for _, bb := range self.Blocks {
        for _, ins := range bb.Insns {
            self.onInsnAdded(ins)
        }
    }
}

func (self *Method) addUse(reg int, ins Insn) {
    self.reserve(reg)
    self.uses[reg] = append(self.uses[reg], ins)
}

func (self *Method) removeUse(reg int, ins Insn) {
    if reg < len(self.uses) {
        for i, v := range self.uses[reg] {
            if v == ins {
                self.uses[reg] = append(self.uses[reg][:i], self.uses[reg][i + 1:]...)
                return
            }
        }
    }
}

func (self *Method) onInsnAdded(ins Insn) {
    if r := ins.Result(); r != nil {
        if self.reserve(r.Reg()); self.defs[r.Reg()] != nil && self.defs[r.Reg()] != ins {
            panic(fmt.Sprintf("register defined twice: %s", r))
        } else {
            self.defs[r.Reg()] = ins
        }
    }

    /* register the uses */
    for _, r := range ins.Sources() {
        self.addUse(r.Reg(), ins)
    }
}

func (self *Method) onInsnRemoved(ins Insn) {
    if r := ins.Result(); r != nil && r.Reg() < len(self.defs) && self.defs[r.Reg()] == ins {
        self.defs[r.Reg()] = nil
    }

    /* unregister the uses */
    for _, r := range ins.Sources() {
        self.removeUse(r.Reg(), ins)
    }
}

func (self *Method) onSourcesChanged(ins Insn, old rop.RegisterSpecList) {
    for _, r := range old {
        self.removeUse(r.Reg(), ins)
    }
    for _, r := range ins.Sources() {
        self.addUse(r.Reg(), ins)
    }
}

// ChangeOneSource replaces the i-th source operand of ins.
func (self *Method) ChangeOneSource(ins Insn, i int, rs rop.RegisterSpec) {
    old := ins.Sources()
    ins.setSource(i, rs)

    /* only the register number matters to the use lists */
    if old[i].Reg() != rs.Reg() {
        self.removeUse(old[i].Reg(), ins)
        self.addUse(rs.Reg(), ins)
    }
}

// SetResult replaces the result operand of ins.
func (self *Method) SetResult(ins Insn, rs rop.RegisterSpec) {
    old := ins.Result()
    if old == nil {
        panic("instruction has no result: " + ins.String())
    }

    /* update the definition */
    ins.setResult(rs)
    if old.Reg() != rs.Reg() {
        self.defs[old.Reg()] = nil
        self.reserve(rs.Reg())
        self.defs[rs.Reg()] = ins
    }
}

// SetNewSources replaces all the source operands of a normal instruction.
func (self *Method) SetNewSources(ins *NormalInsn, sources rop.RegisterSpecList) {
    old := ins.Sources()
    ins.setSources(sources)
    self.onSourcesChanged(ins, old)
}

// UpgradeToLiteral turns a constant source operand of ins into a literal
// operand, if the instruction set has such a form.
func (self *Method) UpgradeToLiteral(ins *NormalInsn) bool {
    old := ins.insn
    ins.insn = old.WithSourceLiteral()

    /* nothing changed */
    if ins.insn == old {
        return false
    }

    /* update the use lists */
    self.onSourcesChanged(ins, old.Sources())
    return true
}

// ReplaceInsn puts ins at the position of old in its block.
func (self *Method) ReplaceInsn(old Insn, ins Insn) {
    bb := self.Blocks[old.Block()]
    idx := bb.indexOf(old)

    /* must be in the block */
    if idx < 0 {
        panic("instruction is not in its block: " + old.String())
    } else if ins.Block() != old.Block() {
        panic("replacement belongs to another block: " + ins.String())
    }

    /* swap the instruction */
    self.onInsnRemoved(old)
    bb.Insns[idx] = ins
    self.onInsnAdded(ins)
}

func (self *Method) String() string {
    buf := make([]string, 0, len(self.Blocks))
    for _, bb := range self.Blocks {
        buf = append(buf, bb.String())
    }
    return strings.Join(buf, "\n")
}
