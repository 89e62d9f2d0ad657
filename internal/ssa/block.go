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
)

// BasicBlock is a block of the SSA graph. All the references to other
// blocks are indices into Method.Blocks. Phi nodes always come first, and
// when the block has a primary successor it is Succs[0].
type BasicBlock struct {
    Index   int
    Label   int
    Insns   []Insn
    Preds   []int
    Succs   []int
    Primary int
}

// Phis returns the leading Phi nodes of the block.
func (self *BasicBlock) Phis() (ret []*PhiInsn) {
    for _, ins := range self.Insns {
        if phi, ok := ins.(*PhiInsn); !ok {
            break
        } else {
            ret = append(ret, phi)
        }
    }
    return
}

func (self *BasicBlock) LastInsn() Insn {
    if len(self.Insns) == 0 {
        return nil
    } else {
        return self.Insns[len(self.Insns) - 1]
    }
}

// Alternate is the branch-taken successor of a two-way block, or -1.
func (self *BasicBlock) Alternate() int {
    if len(self.Succs) != 2 || self.Primary < 0 {
        return -1
    } else {
        return self.Succs[1]
    }
}

func (self *BasicBlock) indexOf(ins Insn) int {
    for i, v := range self.Insns {
        if v == ins {
            return i
        }
    }
    return -1
}

func (self *BasicBlock) addPhi(phi *PhiInsn) {
    n := len(self.Phis())
    self.Insns = append(self.Insns, nil)
    copy(self.Insns[n + 1:], self.Insns[n:])
    self.Insns[n] = phi
}

func (self *BasicBlock) replacePred(old int, new int) {
    for i, p := range self.Preds {
        if p == old {
            self.Preds[i] = new
            return
        }
    }
    panic(fmt.Sprintf("block %d is not a predecessor of block %d", old, self.Index))
}

func (self *BasicBlock) String() string {
    var sb strings.Builder
    if self.Label < 0 {
        fmt.Fprintf(&sb, "B%d:", self.Index)
    } else {
        fmt.Fprintf(&sb, "B%d (L%d):", self.Index, self.Label)
    }

    /* predecessors */
    if len(self.Preds) != 0 {
        fmt.Fprintf(&sb, " <- %v", self.Preds)
    }

    /* instructions */
    sb.WriteByte('\n')
    for _, ins := range self.Insns {
        sb.WriteString("    " + ins.String() + "\n")
    }

    /* successors */
    succs := make([]string, 0, len(self.Succs))
    for i, s := range self.Succs {
        if i == 0 && s == self.Primary {
            succs = append(succs, fmt.Sprintf("B%d*", s))
        } else {
            succs = append(succs, fmt.Sprintf("B%d", s))
        }
    }

    /* join together */
    sb.WriteString("    -> [" + strings.Join(succs, ", ") + "]")
    return sb.String()
}
