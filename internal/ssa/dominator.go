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

    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/traverse`
)

// DominatorTree is the dominator tree of a method, with the dominance
// frontier of every block. Blocks are referred to by index.
type DominatorTree struct {
    Root              int
    DominatedBy       []int
    DominatorOf       [][]int
    DominanceFrontier [][]int
}

func blockGraph(blocks []*BasicBlock) *simple.DirectedGraph {
    g := simple.NewDirectedGraph()
    for _, bb := range blocks {
        g.AddNode(simple.Node(bb.Index))
    }

    /* self loops do not take part in dominance */
    for _, bb := range blocks {
        for _, s := range bb.Succs {
            if s != bb.Index {
                g.SetEdge(simple.Edge { F: simple.Node(bb.Index), T: simple.Node(s) })
            }
        }
    }
    return g
}

// reachableFrom returns the set of blocks reachable from the entry block.
func reachableFrom(blocks []*BasicBlock, entry int) []bool {
    dfs := new(traverse.DepthFirst)
    ret := make([]bool, len(blocks))

    /* mark all the visited blocks */
    dfs.Walk(blockGraph(blocks), simple.Node(entry), nil)
    for i := range ret {
        ret[i] = dfs.Visited(simple.Node(i))
    }
    return ret
}

func nodeIds(nodes []graph.Node) []int {
    ret := make([]int, 0, len(nodes))
    for _, p := range nodes {
        ret = append(ret, int(p.ID()))
    }
    sort.Ints(ret)
    return ret
}

// BuildDominatorTree computes the dominator tree and the dominance frontiers.
// Every block must be reachable from the entry block.
func BuildDominatorTree(m *Method) DominatorTree {
    nb := len(m.Blocks)
    dt := flow.Dominators(simple.Node(m.Entry), blockGraph(m.Blocks))

    /* create the tree */
    ret := DominatorTree {
        Root              : m.Entry,
        DominatedBy       : make([]int, nb),
        DominatorOf       : make([][]int, nb),
        DominanceFrontier : make([][]int, nb),
    }

    /* convert the immediate dominators */
    for i := 0; i < nb; i++ {
        if p := dt.DominatorOf(int64(i)); p == nil {
            ret.DominatedBy[i] = -1
        } else {
            ret.DominatedBy[i] = int(p.ID())
        }
    }

    /* and the children, sorted by ID */
    for i := 0; i < nb; i++ {
        ret.DominatorOf[i] = nodeIds(dt.DominatedBy(int64(i)))
    }

    /* dominance frontiers, only join points contribute */
    for _, bb := range m.Blocks {
        if len(bb.Preds) >= 2 {
            idom := ret.DominatedBy[bb.Index]
            for _, p := range bb.Preds {
                for r := p; r != idom && r >= 0; r = ret.DominatedBy[r] {
                    ret.DominanceFrontier[r] = appendUnique(ret.DominanceFrontier[r], bb.Index)
                }
            }
        }
    }

    /* keep the frontiers ordered */
    for _, df := range ret.DominanceFrontier {
        sort.Ints(df)
    }
    return ret
}

// Dominates reports whether block a dominates block b.
func (self DominatorTree) Dominates(a int, b int) bool {
    for b >= 0 && b != a {
        b = self.DominatedBy[b]
    }
    return b == a
}

func appendUnique(v []int, x int) []int {
    for _, y := range v {
        if x == y {
            return v
        }
    }
    return append(v, x)
}
