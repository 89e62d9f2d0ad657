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

// BasicBlock is a straight-line run of instructions over plain registers.
// Successors are block labels, the primary successor is the fallthrough
// or unconditional target.
type BasicBlock struct {
    Label      int
    Insns      []Insn
    Successors []int
    Primary    int
}

func NewBasicBlock(label int, insns []Insn, succs []int, primary int) *BasicBlock {
    if label < 0 {
        panic(fmt.Sprintf("invalid block label: %d", label))
    } else if len(insns) == 0 {
        panic(fmt.Sprintf("empty basic block: L%d", label))
    }

    /* only the last instruction may transfer control */
    for _, ins := range insns[:len(insns) - 1] {
        if ins.Opcode().Branch != BRANCH_none {
            panic(fmt.Sprintf("branching instruction in the middle of L%d: %s", label, ins))
        }
    }

    /* and it must do so */
    if insns[len(insns) - 1].Opcode().Branch == BRANCH_none {
        panic(fmt.Sprintf("L%d does not end with a branching instruction", label))
    }

    /* the primary successor must be one of the successors */
    if primary >= 0 && indexOf(succs, primary) < 0 {
        panic(fmt.Sprintf("primary successor L%d is not a successor of L%d", primary, label))
    }

    /* build the block */
    return &BasicBlock {
        Label      : label,
        Insns      : insns,
        Successors : append([]int(nil), succs...),
        Primary    : primary,
    }
}

func indexOf(v []int, x int) int {
    for i, y := range v {
        if x == y {
            return i
        }
    }
    return -1
}

func (self *BasicBlock) LastInsn() Insn {
    return self.Insns[len(self.Insns) - 1]
}

func (self *BasicBlock) FirstInsn() Insn {
    return self.Insns[0]
}

func (self *BasicBlock) CanThrow() bool {
    return self.LastInsn().CanThrow()
}

// Alternate is the branch-taken successor of a two-way block, or -1.
func (self *BasicBlock) Alternate() int {
    if len(self.Successors) != 2 {
        return -1
    } else if self.Successors[0] == self.Primary {
        return self.Successors[1]
    } else {
        return self.Successors[0]
    }
}

func (self *BasicBlock) String() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "L%d:\n", self.Label)

    /* instructions */
    for _, ins := range self.Insns {
        sb.WriteString("    " + ins.String() + "\n")
    }

    /* successors */
    succs := make([]string, 0, len(self.Successors))
    for _, s := range self.Successors {
        if s == self.Primary {
            succs = append(succs, fmt.Sprintf("L%d*", s))
        } else {
            succs = append(succs, fmt.Sprintf("L%d", s))
        }
    }

    /* join together */
    sb.WriteString("    -> [" + strings.Join(succs, ", ") + "]")
    return sb.String()
}

// BasicBlockList is the list of blocks of a method, in layout order.
type BasicBlockList []*BasicBlock

func (self BasicBlockList) IndexOfLabel(label int) int {
    for i, bb := range self {
        if bb.Label == label {
            return i
        }
    }
    return -1
}

func (self BasicBlockList) LabelToBlock(label int) *BasicBlock {
    if i := self.IndexOfLabel(label); i < 0 {
        panic(fmt.Sprintf("no such label: L%d", label))
    } else {
        return self[i]
    }
}

// RegCount is the number of register slots referenced by any instruction.
func (self BasicBlockList) RegCount() (n int) {
    for _, bb := range self {
        for _, ins := range bb.Insns {
            if r := ins.Result(); r != nil && r.NextReg() > n {
                n = r.NextReg()
            }
            for _, r := range ins.Sources() {
                if r.NextReg() > n {
                    n = r.NextReg()
                }
            }
        }
    }
    return
}

func (self BasicBlockList) InsnCount() (n int) {
    for _, bb := range self {
        n += len(bb.Insns)
    }
    return
}

// Method is a method body over plain registers.
type Method struct {
    Blocks     BasicBlockList
    FirstLabel int
}

// Predecessors computes the labels of the predecessors of every block.
func (self *Method) Predecessors() map[int][]int {
    ret := make(map[int][]int, len(self.Blocks))
    for _, bb := range self.Blocks {
        for _, s := range bb.Successors {
            ret[s] = append(ret[s], bb.Label)
        }
    }
    return ret
}

func (self *Method) String() string {
    buf := make([]string, 0, len(self.Blocks))
    for _, bb := range self.Blocks {
        buf = append(buf, bb.String())
    }
    return strings.Join(buf, "\n")
}
