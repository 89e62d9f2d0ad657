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
    `sort`

    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/oleiade/lane`
)

type _PhiDesc struct {
    r int
    b []int
}

func insertPhiNodes(m *Method, dt DominatorTree) {
    orig := make([]map[int]bool, len(m.Blocks))
    defs := make(map[int][]int)

    /* find out all the definition sites */
    for _, bb := range m.Blocks {
        for _, ins := range bb.Insns {
            if r := ins.Result(); r != nil && !orig[bb.Index][r.Reg()] {
                if orig[bb.Index] == nil {
                    orig[bb.Index] = make(map[int]bool)
                }
                orig[bb.Index][r.Reg()] = true
                defs[r.Reg()] = append(defs[r.Reg()], bb.Index)
            }
        }
    }

    /* dump the descriptors */
    pd := make([]_PhiDesc, 0, len(defs))
    for r, b := range defs {
        pd = append(pd, _PhiDesc { r: r, b: b })
    }

    /* sort descriptors by register */
    sort.Slice(pd, func(i int, j int) bool {
        return pd[i].r < pd[j].r
    })

    /* insert Phi nodes at the iterated dominance frontier of every register */
    for _, p := range pd {
        q := lane.NewQueue()
        phi := make(map[int]bool)

        /* start with the definition sites */
        for _, b := range p.b {
            q.Enqueue(b)
        }

        /* walk the frontiers */
        for !q.Empty() {
            for _, y := range dt.DominanceFrontier[q.Dequeue().(int)] {
                if !phi[y] {
                    phi[y] = true
                    m.Blocks[y].addPhi(newPhiInsn(y, p.r))

                    /* the Phi node is a new definition */
                    if !orig[y][p.r] {
                        q.Enqueue(y)
                    }
                }
            }
        }
    }
}

func mergeTypes(a rop.Type, b rop.Type) (rop.Type, bool) {
    switch {
        case a == rop.Void                                 : return b, true
        case b == rop.Void                                 : return a, true
        case a == b                                        : return a, true
        case a.IsIntlike() && b.IsIntlike()                : return rop.Int, true
        case a == rop.KnownNull && b.IsReference()         : return b, true
        case b == rop.KnownNull && a.IsReference()         : return a, true
        case a.IsReference() && b.IsReference()            : return rop.Object, true
        default                                            : return rop.Void, false
    }
}

// resolvePhiTypes works out the result type of every Phi node from the
// types of its operands. A Phi node merging incompatible types ends up as
// void, and so does every Phi node that depends on it.
func resolvePhiTypes(m *Method) {
    var phis []*PhiInsn
    types := make(map[int]rop.TypeBearer)
    conflict := make(map[int]bool)

    /* the types of all the normal definitions */
    for _, bb := range m.Blocks {
        for _, ins := range bb.Insns {
            if phi, ok := ins.(*PhiInsn); ok {
                phis = append(phis, phi)
                types[phi.result.Reg()] = rop.Void
            } else if r := ins.Result(); r != nil {
                types[r.Reg()] = r.TypeBearer()
            }
        }
    }

    /* registers without any definition keep the type they were used with */
    for _, phi := range phis {
        for _, v := range phi.ops {
            if _, ok := types[v.Reg.Reg()]; !ok {
                types[v.Reg.Reg()] = v.Reg.TypeBearer()
            }
        }
    }

    /* iterate until nothing changes */
    for changed := true; changed; {
        changed = false
        for _, phi := range phis {
            r := phi.result.Reg()
            t := rop.Void

            /* already conflicting */
            if conflict[r] {
                continue
            }

            /* merge all the operands */
            for _, v := range phi.ops {
                if conflict[v.Reg.Reg()] {
                    conflict[r] = true
                    break
                } else if nt, ok := mergeTypes(t, types[v.Reg.Reg()].Type()); !ok {
                    conflict[r] = true
                    break
                } else {
                    t = nt
                }
            }

            /* conflicts turn void */
            if conflict[r] {
                t = rop.Void
                changed = true
            }

            /* update the type */
            if t != types[r].Type() {
                types[r] = t
                changed = true
            }
        }
    }

    /* update the results and operands */
    for _, phi := range phis {
        phi.result = phi.result.WithType(types[phi.result.Reg()])
        for i, v := range phi.ops {
            phi.ops[i].Reg = v.Reg.WithType(types[v.Reg.Reg()])
        }
    }
}

func checkPhiOperands(m *Method) {
    for _, bb := range m.Blocks {
        for _, phi := range bb.Phis() {
            if len(phi.ops) != len(bb.Preds) {
                panic(fmt.Sprintf("Phi node in block %d has %d operands but %d predecessors: %s", bb.Index, len(phi.ops), len(bb.Preds), phi))
            }
        }
    }
}
