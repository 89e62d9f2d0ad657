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

package code

import (
    `fmt`

    `github.com/cloudwego/dexssa/internal/rop`
)

type LocalKind uint8

const (
    LocalTemp LocalKind = iota
    LocalThis
    LocalParam
)

// Local is a virtual variable of a method being built. It only gets a
// register once every local of the method is known.
type Local struct {
    code *Code
    typ  *TypeId
    kind LocalKind
    reg  int
    spec rop.RegisterSpec
}

func newLocal(code *Code, typ *TypeId, kind LocalKind) *Local {
    return &Local {
        code : code,
        typ  : typ,
        kind : kind,
        reg  : -1,
    }
}

func (self *Local) Type() *TypeId {
    return self.typ
}

func (self *Local) Kind() LocalKind {
    return self.kind
}

// Reg returns the register assigned to the local, assigning registers to
// every local of the method if not done yet.
func (self *Local) Reg() int {
    return self.Spec().Reg()
}

func (self *Local) Spec() rop.RegisterSpec {
    if self.reg < 0 {
        self.code.initializeLocals()
    }
    if self.reg < 0 {
        panic("local was not initialized: " + self.typ.Name)
    }
    return self.spec
}

func (self *Local) initialize(reg int) int {
    self.reg = reg
    self.spec = rop.MakeReg(reg, self.typ.rt)
    return self.typ.rt.Category()
}

func (self *Local) String() string {
    if self.reg < 0 {
        return fmt.Sprintf("v?(%s)", self.typ.rt)
    } else {
        return fmt.Sprintf("v%d(%s)", self.reg, self.typ.rt)
    }
}
