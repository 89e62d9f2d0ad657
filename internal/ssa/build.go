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

    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/tliron/commonlog`
)

var log = commonlog.GetLogger("dexssa.ssa")

var (
    _GotoRop = rop.MustRopFor(rop.OP_goto, nil, nil, nil)
)

// Build converts a rop method into SSA form.
func Build(rm *rop.Method, paramWidth int, static bool) *Method {
    m := convertBlocks(rm)
    m.IsStatic = static
    m.ParamWidth = paramWidth

    /* normalize the graph */
    pruneUnreachable(m)
    insertEntryBlock(m)
    splitCriticalEdges(m)

    /* SSA construction */
    dt := BuildDominatorTree(m)
    insertPhiNodes(m, dt)
    renameRegisters(m, dt)
    resolvePhiTypes(m)
    checkPhiOperands(m)
    m.buildDefUse()

    /* dump the result */
    log.Debugf("converted to SSA: %d blocks, %d registers", len(m.Blocks), m.RegCount)
    return m
}

func convertBlocks(rm *rop.Method) *Method {
    nb := len(rm.Blocks)
    ret := &Method { Blocks: make([]*BasicBlock, nb), Entry: rm.Blocks.IndexOfLabel(rm.FirstLabel) }

    /* the first label must exist */
    if ret.Entry < 0 {
        panic(fmt.Sprintf("entry label L%d does not exist", rm.FirstLabel))
    }

    /* create the blocks */
    for i, rb := range rm.Blocks {
        bb := &BasicBlock {
            Index   : i,
            Label   : rb.Label,
            Primary : -1,
            Insns   : make([]Insn, 0, len(rb.Insns)),
        }

        /* wrap the instructions */
        for _, ins := range rb.Insns {
            bb.Insns = append(bb.Insns, newNormalInsn(i, ins))
        }

        /* the primary successor goes first */
        if rb.Primary >= 0 {
            bb.Primary = rm.Blocks.IndexOfLabel(rb.Primary)
            bb.Succs = append(bb.Succs, bb.Primary)
        }

        /* then the others */
        for j, s := range rb.Successors {
            if s != rb.Primary || j != indexOfInt(rb.Successors, rb.Primary) {
                if idx := rm.Blocks.IndexOfLabel(s); idx < 0 {
                    panic(fmt.Sprintf("L%d branches to the missing label L%d", rb.Label, s))
                } else {
                    bb.Succs = append(bb.Succs, idx)
                }
            }
        }

        /* add to block list */
        ret.Blocks[i] = bb
    }

    /* count the registers */
    ret.RegCount = rm.Blocks.RegCount()
    return ret
}

func indexOfInt(v []int, x int) int {
    for i, y := range v {
        if x == y {
            return i
        }
    }
    return -1
}

func computePreds(m *Method) {
    for _, bb := range m.Blocks {
        bb.Preds = bb.Preds[:0]
    }
    for _, bb := range m.Blocks {
        for _, s := range bb.Succs {
            m.Blocks[s].Preds = append(m.Blocks[s].Preds, bb.Index)
        }
    }
}

func renumberBlocks(m *Method, keep []bool) {
    idx := make([]int, len(m.Blocks))
    buf := make([]*BasicBlock, 0, len(m.Blocks))

    /* assign the new indices */
    for i, bb := range m.Blocks {
        if !keep[i] {
            idx[i] = -1
        } else {
            idx[i] = len(buf)
            buf = append(buf, bb)
        }
    }

    /* remap all the references */
    for _, bb := range buf {
        bb.Index = idx[bb.Index]
        for i, s := range bb.Succs {
            bb.Succs[i] = idx[s]
        }
        if bb.Primary >= 0 {
            bb.Primary = idx[bb.Primary]
        }
        for _, ins := range bb.Insns {
            if n, ok := ins.(*NormalInsn); ok {
                n.block = bb.Index
            }
        }
    }

    /* update the method */
    m.Entry = idx[m.Entry]
    m.Blocks = buf
    computePreds(m)
}

func pruneUnreachable(m *Method) {
    keep := reachableFrom(m.Blocks, m.Entry)
    renumberBlocks(m, keep)
}

func newGotoBlock(m *Method, succ int) *BasicBlock {
    bb := &BasicBlock {
        Index   : len(m.Blocks),
        Label   : -1,
        Succs   : []int { succ },
        Primary : succ,
    }

    /* a single goto instruction */
    bb.Insns = []Insn { newNormalInsn(bb.Index, rop.NewPlainInsn(_GotoRop, nil, nil)) }
    m.Blocks = append(m.Blocks, bb)
    return bb
}

// insertEntryBlock makes sure nothing branches back to the entry block.
func insertEntryBlock(m *Method) {
    if entry := m.Blocks[m.Entry]; len(entry.Preds) != 0 {
        bb := newGotoBlock(m, m.Entry)
        m.Entry = bb.Index
        entry.Preds = append(entry.Preds, bb.Index)
    }
}

// splitCriticalEdges inserts a goto block on every edge that leaves a block
// with many successors and enters a block with many predecessors. Every
// occurrence of a duplicated edge is split on its own.
func splitCriticalEdges(m *Method) {
    for _, bb := range m.Blocks {
        if len(bb.Succs) > 1 {
            for i, s := range bb.Succs {
                if len(m.Blocks[s].Preds) > 1 {
                    p := newGotoBlock(m, s)
                    m.Blocks[s].replacePred(bb.Index, p.Index)

                    /* redirect the edge */
                    p.Preds = []int { bb.Index }
                    bb.Succs[i] = p.Index

                    /* primary is always the first successor */
                    if i == 0 && bb.Primary == s {
                        bb.Primary = p.Index
                    }
                }
            }
        }
    }

    /* rebuild in block order */
    computePreds(m)
}
