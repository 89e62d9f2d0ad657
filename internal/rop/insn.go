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

package rop

import (
    `fmt`
    `strings`
)

// Insn is an instruction over plain registers. Instructions are immutable,
// all the "With" methods return a new instruction.
type Insn interface {
    fmt.Stringer
    Opcode() *Rop
    Result() *RegisterSpec
    Sources() RegisterSpecList
    CanThrow() bool
    WithNewRegisters(result *RegisterSpec, sources RegisterSpecList) Insn
    WithSourceLiteral() Insn
}

// CstInsn is an instruction with an embedded constant operand.
type CstInsn interface {
    Insn
    Constant() Constant
}

type PlainInsn struct {
    op      *Rop
    result  *RegisterSpec
    sources RegisterSpecList
}

type PlainCstInsn struct {
    PlainInsn
    cst Constant
}

type ThrowingInsn struct {
    op      *Rop
    sources RegisterSpecList
}

type ThrowingCstInsn struct {
    ThrowingInsn
    cst Constant
}

func copyResult(result *RegisterSpec) *RegisterSpec {
    if result == nil {
        return nil
    } else {
        rs := *result
        return &rs
    }
}

func NewPlainInsn(op *Rop, result *RegisterSpec, sources RegisterSpecList) *PlainInsn {
    if op.Branch == BRANCH_throw {
        panic("plain instruction with a throwing opcode: " + op.Nickname)
    } else if result != nil && op.Branch != BRANCH_none {
        panic("branching instruction with a result: " + op.Nickname)
    } else {
        return &PlainInsn { op: op, result: copyResult(result), sources: MakeList(sources...) }
    }
}

func NewPlainCstInsn(op *Rop, result *RegisterSpec, sources RegisterSpecList, cst Constant) *PlainCstInsn {
    if cst == nil {
        panic("constant instruction without a constant: " + op.Nickname)
    } else {
        return &PlainCstInsn { PlainInsn: *NewPlainInsn(op, result, sources), cst: cst }
    }
}

func NewThrowingInsn(op *Rop, sources RegisterSpecList) *ThrowingInsn {
    if op.Branch != BRANCH_throw {
        panic("throwing instruction with a non-throwing opcode: " + op.Nickname)
    } else {
        return &ThrowingInsn { op: op, sources: MakeList(sources...) }
    }
}

func NewThrowingCstInsn(op *Rop, sources RegisterSpecList, cst Constant) *ThrowingCstInsn {
    if cst == nil {
        panic("constant instruction without a constant: " + op.Nickname)
    } else {
        return &ThrowingCstInsn { ThrowingInsn: *NewThrowingInsn(op, sources), cst: cst }
    }
}

func (self *PlainInsn) Opcode() *Rop                 { return self.op }
func (self *PlainInsn) Result() *RegisterSpec        { return copyResult(self.result) }
func (self *PlainInsn) Sources() RegisterSpecList    { return self.sources }
func (self *PlainInsn) CanThrow() bool               { return false }
func (self *ThrowingInsn) Opcode() *Rop              { return self.op }
func (self *ThrowingInsn) Result() *RegisterSpec     { return nil }
func (self *ThrowingInsn) Sources() RegisterSpecList { return self.sources }
func (self *ThrowingInsn) CanThrow() bool            { return true }
func (self *PlainCstInsn) Constant() Constant        { return self.cst }
func (self *ThrowingCstInsn) Constant() Constant     { return self.cst }

func (self *PlainInsn) WithNewRegisters(result *RegisterSpec, sources RegisterSpecList) Insn {
    return NewPlainInsn(self.op, result, sources)
}

func (self *PlainCstInsn) WithNewRegisters(result *RegisterSpec, sources RegisterSpecList) Insn {
    return NewPlainCstInsn(self.op, result, sources, self.cst)
}

func (self *ThrowingInsn) WithNewRegisters(result *RegisterSpec, sources RegisterSpecList) Insn {
    if result != nil {
        panic("throwing instructions cannot have a result")
    } else {
        return NewThrowingInsn(self.op, sources)
    }
}

func (self *ThrowingCstInsn) WithNewRegisters(result *RegisterSpec, sources RegisterSpecList) Insn {
    if result != nil {
        panic("throwing instructions cannot have a result")
    } else {
        return NewThrowingCstInsn(self.op, sources, self.cst)
    }
}

// literalOf picks the operand that should become the embedded literal, and
// the opcode and constant the literal form uses. A constant last operand is
// preferred, otherwise a constant first operand of a two-operand instruction
// is taken, which makes a reverse operation.
func literalOf(op *Rop, result *RegisterSpec, sources RegisterSpecList) (*Rop, RegisterSpecList, Constant, bool) {
    var ok bool
    var cst Constant
    var rem RegisterSpecList

    /* nothing to upgrade */
    if len(sources) == 0 {
        return nil, nil, nil, false
    }

    /* pick the literal operand */
    opc := op.Opcode
    last := false
    rev := opc == OP_sub || opc.IsCommutative()

    /* prefer the last operand */
    if cst, ok = sources[len(sources) - 1].Constant(); ok {
        last, rem = true, sources.WithoutLast()
    } else if cst, ok = sources[0].Constant(); ok && rev && len(sources) == 2 {
        rem = sources.WithoutFirst()
    } else {
        return nil, nil, nil, false
    }

    /* subtracting a constant is adding its negation */
    if v, isint := cst.(CstInteger); isint && last && opc == OP_sub {
        opc, cst = OP_add, -v
    }

    /* find the literal form */
    var dest TypeBearer
    if result != nil {
        dest = result.TypeBearer()
    }

    /* there may not be such a form */
    if nop, found := RopFor(opc, dest, rem.Types(), cst); !found || nop.Branch != op.Branch {
        return nil, nil, nil, false
    } else {
        return nop, rem, cst, true
    }
}

func (self *PlainInsn) WithSourceLiteral() Insn {
    if op, rem, cst, ok := literalOf(self.op, self.result, self.sources); !ok {
        return self
    } else {
        return NewPlainCstInsn(op, self.result, rem, cst)
    }
}

func (self *PlainCstInsn) WithSourceLiteral() Insn {
    return self
}

func (self *ThrowingInsn) WithSourceLiteral() Insn {
    if op, rem, cst, ok := literalOf(self.op, nil, self.sources); !ok {
        return self
    } else {
        return NewThrowingCstInsn(op, rem, cst)
    }
}

func (self *ThrowingCstInsn) WithSourceLiteral() Insn {
    return self
}

func formatInsn(op *Rop, result *RegisterSpec, sources RegisterSpecList, cst Constant) string {
    var sb strings.Builder
    sb.WriteString(op.Nickname)

    /* constant operand */
    if cst != nil {
        sb.WriteString("(" + cst.String() + ")")
    }

    /* result register */
    if result != nil {
        sb.WriteString(" " + result.String() + " <-")
    } else {
        sb.WriteString(" .")
    }

    /* source registers */
    for _, r := range sources {
        sb.WriteString(" " + r.String())
    }
    return sb.String()
}

func (self *PlainInsn) String() string {
    return formatInsn(self.op, self.result, self.sources, nil)
}

func (self *PlainCstInsn) String() string {
    return formatInsn(self.op, self.result, self.sources, self.cst)
}

func (self *ThrowingInsn) String() string {
    return formatInsn(self.op, nil, self.sources, nil)
}

func (self *ThrowingCstInsn) String() string {
    return formatInsn(self.op, nil, self.sources, self.cst)
}
