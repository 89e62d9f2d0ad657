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

// Insn is an instruction of the SSA graph, either a normal instruction that
// wraps a rop instruction, or a Phi node.
type Insn interface {
    fmt.Stringer
    Block() int
    Result() *rop.RegisterSpec
    Sources() rop.RegisterSpecList
    CanThrow() bool
    IsPhiOrMove() bool
    ToRopInsn() rop.Insn
    setResult(rs rop.RegisterSpec)
    setSource(i int, rs rop.RegisterSpec)
}

type NormalInsn struct {
    block int
    insn  rop.Insn
}

func newNormalInsn(block int, insn rop.Insn) *NormalInsn {
    return &NormalInsn {
        block : block,
        insn  : insn,
    }
}

func (self *NormalInsn) Block() int                    { return self.block }
func (self *NormalInsn) Opcode() *rop.Rop              { return self.insn.Opcode() }
func (self *NormalInsn) Result() *rop.RegisterSpec     { return self.insn.Result() }
func (self *NormalInsn) Sources() rop.RegisterSpecList { return self.insn.Sources() }
func (self *NormalInsn) CanThrow() bool                { return self.insn.CanThrow() }
func (self *NormalInsn) OriginalRopInsn() rop.Insn     { return self.insn }
func (self *NormalInsn) ToRopInsn() rop.Insn           { return self.insn }
func (self *NormalInsn) String() string                { return self.insn.String() }

// IsMove reports whether this is a plain register-to-register move.
func (self *NormalInsn) IsMove() bool {
    return self.insn.Opcode().Opcode == rop.OP_move
}

func (self *NormalInsn) IsPhiOrMove() bool {
    return self.IsMove()
}

// Constant returns the embedded constant operand, if any.
func (self *NormalInsn) Constant() (rop.Constant, bool) {
    if c, ok := self.insn.(rop.CstInsn); ok {
        return c.Constant(), true
    } else {
        return nil, false
    }
}

func (self *NormalInsn) setResult(rs rop.RegisterSpec) {
    self.insn = self.insn.WithNewRegisters(&rs, self.insn.Sources())
}

func (self *NormalInsn) setSource(i int, rs rop.RegisterSpec) {
    self.insn = self.insn.WithNewRegisters(self.insn.Result(), self.insn.Sources().With(i, rs))
}

func (self *NormalInsn) setSources(sources rop.RegisterSpecList) {
    self.insn = self.insn.WithNewRegisters(self.insn.Result(), sources)
}

// PhiOperand is the value a Phi node selects when control arrives from
// the predecessor block Pred.
type PhiOperand struct {
    Reg  rop.RegisterSpec
    Pred int
}

type PhiInsn struct {
    block  int
    orig   int
    result rop.RegisterSpec
    ops    []PhiOperand
}

func newPhiInsn(block int, orig int) *PhiInsn {
    return &PhiInsn {
        block  : block,
        orig   : orig,
        result : rop.MakeReg(orig, rop.Void),
    }
}

func (self *PhiInsn) Block() int        { return self.block }
func (self *PhiInsn) CanThrow() bool    { return false }
func (self *PhiInsn) IsPhiOrMove() bool { return true }

// OriginalReg is the register number this Phi node merges before renaming.
func (self *PhiInsn) OriginalReg() int {
    return self.orig
}

func (self *PhiInsn) Result() *rop.RegisterSpec {
    rs := self.result
    return &rs
}

// Operands returns a copy of the operand list.
func (self *PhiInsn) Operands() []PhiOperand {
    return append([]PhiOperand(nil), self.ops...)
}

func (self *PhiInsn) Sources() rop.RegisterSpecList {
    ret := make(rop.RegisterSpecList, 0, len(self.ops))
    for _, v := range self.ops {
        ret = append(ret, v.Reg)
    }
    return ret
}

func (self *PhiInsn) ToRopInsn() rop.Insn {
    panic("cannot convert a Phi node into a rop instruction: " + self.String())
}

func (self *PhiInsn) addOperand(reg rop.RegisterSpec, pred int) {
    self.ops = append(self.ops, PhiOperand { Reg: reg, Pred: pred })
}

func (self *PhiInsn) setResult(rs rop.RegisterSpec) {
    self.result = rs
}

func (self *PhiInsn) setSource(i int, rs rop.RegisterSpec) {
    self.ops[i].Reg = rs
}

func (self *PhiInsn) String() string {
    buf := make([]string, 0, len(self.ops))
    for _, v := range self.ops {
        buf = append(buf, fmt.Sprintf("%s @%d", v.Reg, v.Pred))
    }
    return fmt.Sprintf("%s = phi(%s)", self.result, strings.Join(buf, ", "))
}
