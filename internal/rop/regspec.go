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

// LocalItem binds a register to a source-level variable name.
type LocalItem struct {
    Name      string
    Signature string
}

func (self LocalItem) IsValid() bool {
    return self.Name != ""
}

// RegisterSpec binds a register number to a type, and optionally to a
// source-level name. Values of this type are never modified in place.
type RegisterSpec struct {
    reg   int
    tb    TypeBearer
    local LocalItem
}

func MakeReg(reg int, tb TypeBearer) RegisterSpec {
    if reg < 0 {
        panic(fmt.Sprintf("invalid register number: %d", reg))
    } else if tb == nil {
        panic("nil type bearer")
    } else {
        return RegisterSpec { reg: reg, tb: tb }
    }
}

func MakeLocalReg(reg int, tb TypeBearer, local LocalItem) RegisterSpec {
    rs := MakeReg(reg, tb)
    rs.local = local
    return rs
}

func (self RegisterSpec) Reg() int {
    return self.reg
}

func (self RegisterSpec) TypeBearer() TypeBearer {
    return self.tb
}

func (self RegisterSpec) Type() Type {
    return self.tb.Type()
}

func (self RegisterSpec) Basic() BasicType {
    return self.tb.Basic()
}

func (self RegisterSpec) Category() int {
    return self.tb.Type().Category()
}

func (self RegisterSpec) Local() LocalItem {
    return self.local
}

// NextReg is the first register number past the slots this register occupies.
func (self RegisterSpec) NextReg() int {
    return self.reg + self.Category()
}

// Constant returns the constant carried in the type bearer, if any.
func (self RegisterSpec) Constant() (Constant, bool) {
    if !self.tb.IsConstant() {
        return nil, false
    } else {
        c, ok := self.tb.(Constant)
        return c, ok
    }
}

func (self RegisterSpec) WithReg(reg int) RegisterSpec {
    if reg < 0 {
        panic(fmt.Sprintf("invalid register number: %d", reg))
    } else {
        return RegisterSpec { reg: reg, tb: self.tb, local: self.local }
    }
}

func (self RegisterSpec) WithType(tb TypeBearer) RegisterSpec {
    if tb == nil {
        panic("nil type bearer")
    } else {
        return RegisterSpec { reg: self.reg, tb: tb, local: self.local }
    }
}

func (self RegisterSpec) WithLocal(local LocalItem) RegisterSpec {
    return RegisterSpec { reg: self.reg, tb: self.tb, local: local }
}

func (self RegisterSpec) Equal(other RegisterSpec) bool {
    return self.reg == other.reg && self.tb == other.tb && self.local == other.local
}

// SameRegisterAndType ignores the local binding.
func (self RegisterSpec) SameRegisterAndType(other RegisterSpec) bool {
    return self.reg == other.reg && self.tb.Type() == other.tb.Type()
}

func (self RegisterSpec) String() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "v%d:", self.reg)

    /* type or constant */
    if self.tb.IsConstant() {
        sb.WriteString(self.tb.(fmt.Stringer).String())
    } else {
        sb.WriteString(self.tb.Type().String())
    }

    /* local name if any */
    if self.local.IsValid() {
        sb.WriteString(" " + self.local.Name)
    }
    return sb.String()
}

// RegisterSpecList is an ordered list of register operands. Lists are
// treated as immutable, every "modifier" returns a fresh copy.
type RegisterSpecList []RegisterSpec

var EmptyList = RegisterSpecList {}

func MakeList(regs ...RegisterSpec) RegisterSpecList {
    ret := make(RegisterSpecList, len(regs))
    copy(ret, regs)
    return ret
}

func (self RegisterSpecList) WithoutFirst() RegisterSpecList {
    if len(self) == 0 {
        panic("empty register list")
    } else {
        return MakeList(self[1:]...)
    }
}

func (self RegisterSpecList) WithoutLast() RegisterSpecList {
    if len(self) == 0 {
        panic("empty register list")
    } else {
        return MakeList(self[:len(self) - 1]...)
    }
}

// With returns a copy of the list where the i-th operand is replaced.
func (self RegisterSpecList) With(i int, spec RegisterSpec) RegisterSpecList {
    ret := MakeList(self...)
    ret[i] = spec
    return ret
}

// Swapped returns a copy of a two-operand list with the operands exchanged.
func (self RegisterSpecList) Swapped() RegisterSpecList {
    if len(self) != 2 {
        panic("only two-operand lists can be swapped")
    } else {
        return RegisterSpecList { self[1], self[0] }
    }
}

func (self RegisterSpecList) IndexOfRegister(reg int) int {
    for i, r := range self {
        if r.reg == reg {
            return i
        }
    }
    return -1
}

func (self RegisterSpecList) Types() TypeList {
    ret := make(TypeList, 0, len(self))
    for _, r := range self {
        ret = append(ret, r.Type())
    }
    return ret
}

func (self RegisterSpecList) WordCount() (n int) {
    for _, r := range self {
        n += r.Category()
    }
    return
}

func (self RegisterSpecList) Equal(other RegisterSpecList) bool {
    if len(self) != len(other) {
        return false
    }
    for i, r := range self {
        if !r.Equal(other[i]) {
            return false
        }
    }
    return true
}

func (self RegisterSpecList) String() string {
    buf := make([]string, 0, len(self))
    for _, r := range self {
        buf = append(buf, r.String())
    }
    return "{" + strings.Join(buf, ", ") + "}"
}
