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
    `sort`

    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/oleiade/lane`
)

type _Renamer struct {
    next  int
    stack map[int][]rop.RegisterSpec
    undef map[int]rop.RegisterSpec
}

type _RenameFrame struct {
    bb   int
    exit bool
    defs []int
}

func newRenamer() *_Renamer {
    return &_Renamer {
        stack: make(map[int][]rop.RegisterSpec),
        undef: make(map[int]rop.RegisterSpec),
    }
}

func (self *_Renamer) popr(r int) {
    if n := len(self.stack[r]); n != 0 {
        self.stack[r] = self.stack[r][:n - 1]
    }
}

// topr returns the definition of r that reaches the current point. Uses
// without any reaching definition share one undefined register.
func (self *_Renamer) topr(r rop.RegisterSpec) rop.RegisterSpec {
    if n := len(self.stack[r.Reg()]); n != 0 {
        return self.stack[r.Reg()][n - 1]
    } else if v, ok := self.undef[r.Reg()]; ok {
        return v
    } else {
        v = r.WithReg(self.newr())
        self.undef[r.Reg()] = v
        return v
    }
}

func (self *_Renamer) pushr(r int, def rop.RegisterSpec) {
    self.stack[r] = append(self.stack[r], def)
}

func (self *_Renamer) newr() (r int) {
    r = self.next
    self.next++
    return
}

// renameuse maps a use to its reaching definition. Definitions that carry a
// constant pass it on to their uses.
func (self *_Renamer) renameuse(r rop.RegisterSpec) rop.RegisterSpec {
    if def := self.topr(r); def.TypeBearer().IsConstant() && def.Basic().Frame() == r.Basic().Frame() {
        return r.WithReg(def.Reg()).WithType(def.TypeBearer())
    } else {
        return r.WithReg(def.Reg())
    }
}

func (self *_Renamer) renameblock(m *Method, bb *BasicBlock) (defs []int) {
    for _, ins := range bb.Insns {
        switch v := ins.(type) {
            case *PhiInsn: {
                defs = append(defs, v.orig)
                v.result = v.result.WithReg(self.newr())
                self.pushr(v.orig, v.result)
            }

            /* rename uses before definitions */
            case *NormalInsn: {
                src := v.Sources()
                ret := v.Result()
                buf := make(rop.RegisterSpecList, len(src))

                /* rename the uses */
                for i, r := range src {
                    buf[i] = self.renameuse(r)
                }

                /* rename the definition */
                if ret != nil {
                    defs = append(defs, ret.Reg())
                    orig := ret.Reg()
                    *ret = ret.WithReg(self.newr())
                    self.pushr(orig, *ret)
                }

                /* replace the instruction */
                v.insn = v.insn.WithNewRegisters(ret, buf)
            }
        }
    }

    /* fill the Phi operands of all the successors */
    for _, s := range bb.Succs {
        for _, phi := range m.Blocks[s].Phis() {
            phi.addOperand(self.topr(rop.MakeReg(phi.orig, rop.Void)), bb.Index)
        }
    }
    return
}

func renameRegisters(m *Method, dt DominatorTree) {
    rr := newRenamer()
    st := lane.NewStack()

    /* walk the dominator tree without recursion */
    for st.Push(&_RenameFrame { bb: dt.Root }); !st.Empty(); {
        fr := st.Pop().(*_RenameFrame)

        /* leaving the subtree, pop the definitions */
        if fr.exit {
            for _, r := range fr.defs {
                rr.popr(r)
            }
            continue
        }

        /* rename the block */
        defs := rr.renameblock(m, m.Blocks[fr.bb])
        st.Push(&_RenameFrame { bb: fr.bb, exit: true, defs: defs })

        /* children are pushed in reverse to visit them in order */
        for i := len(dt.DominatorOf[fr.bb]) - 1; i >= 0; i-- {
            st.Push(&_RenameFrame { bb: dt.DominatorOf[fr.bb][i] })
        }
    }

    /* Phi operands follow the predecessor order */
    for _, bb := range m.Blocks {
        for _, phi := range bb.Phis() {
            sortPhiOperands(phi, bb.Preds)
        }
    }

    /* all the registers are new */
    m.RegCount = rr.next
}

func sortPhiOperands(phi *PhiInsn, preds []int) {
    sort.SliceStable(phi.ops, func(i int, j int) bool {
        return indexOfInt(preds, phi.ops[i].Pred) < indexOfInt(preds, phi.ops[j].Pred)
    })
}
