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

// Label is a block under construction. Instructions can only be appended
// to a marked label, and a label can be marked once.
type Label struct {
    id        int
    code      *Code
    insns     []rop.Insn
    marked    bool
    primary   *Label
    alternate *Label
}

func (self *Label) IsMarked() bool {
    return self.marked
}

func (self *Label) isEmpty() bool {
    return len(self.insns) == 0
}

// compact skips over labels that ended up with no instructions.
func (self *Label) compact() {
    for self.primary != nil && self.primary.isEmpty() {
        self.primary = self.primary.primary
    }
    for self.alternate != nil && self.alternate.isEmpty() {
        self.alternate = self.alternate.primary
    }
}

// verify checks that the successors agree with the last instruction.
func (self *Label) verify() {
    last := self.insns[len(self.insns) - 1]
    op := last.Opcode()

    /* check by branching kind */
    switch op.Branch {
        case rop.BRANCH_none: {
            panic(fmt.Sprintf("L%d does not end with a branch, return or throw: %s", self.id, last))
        }

        /* unconditional branches */
        case rop.BRANCH_goto: {
            if self.primary == nil {
                panic(fmt.Sprintf("L%d jumps to a label with no instructions", self.id))
            }
        }

        /* two-way branches */
        case rop.BRANCH_if: {
            if self.primary == nil {
                panic(fmt.Sprintf("L%d falls off the end of the method", self.id))
            } else if self.alternate == nil {
                panic(fmt.Sprintf("L%d branches to a label with no instructions", self.id))
            }
        }

        /* a throw never falls through, other throwing instructions continue with their result */
        case rop.BRANCH_throw: {
            if op.Opcode == rop.OP_throw {
                self.primary = nil
            } else if self.primary == nil {
                panic(fmt.Sprintf("L%d falls off the end of the method", self.id))
            }
        }
    }
}

func (self *Label) toBasicBlock() *rop.BasicBlock {
    primary := -1
    succs := make([]int, 0, 2)

    /* fallthrough first */
    if self.primary != nil {
        primary = self.primary.id
        succs = append(succs, primary)
    }

    /* then the branch target */
    if self.alternate != nil {
        succs = append(succs, self.alternate.id)
    }

    /* build the basic block */
    insns := make([]rop.Insn, len(self.insns))
    copy(insns, self.insns)
    return rop.NewBasicBlock(self.id, insns, succs, primary)
}
