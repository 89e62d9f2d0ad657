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
    `testing`

    `github.com/cloudwego/dexssa/internal/code`
    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

func newStaticCode(ret func(u *code.Unit) *code.TypeId, params ...func(u *code.Unit) *code.TypeId) (*code.Unit, *code.Code) {
    u := code.NewUnit()
    pt := make([]*code.TypeId, 0, len(params))
    for _, p := range params {
        pt = append(pt, p(u))
    }
    return u, code.NewCode(u, u.Method(u.Type("LTest;"), ret(u), "run", pt...), true)
}

func intType(u *code.Unit) *code.TypeId  { return u.Int }
func voidType(u *code.Unit) *code.TypeId { return u.Void }
func objType(u *code.Unit) *code.TypeId  { return u.Object }

func toSSA(t *testing.T, c *code.Code) *Method {
    m := Build(c.ToBasicBlocks(), c.ParamWidth(), c.IsStatic())
    t.Log("SSA graph:\n" + m.String())
    return m
}

func findInsn(m *Method, opc rop.RegOp) *NormalInsn {
    for _, bb := range m.Blocks {
        for _, ins := range bb.Insns {
            if v, ok := ins.(*NormalInsn); ok && v.Opcode().Opcode == opc {
                return v
            }
        }
    }
    return nil
}

func findPhiBlock(m *Method) *BasicBlock {
    for _, bb := range m.Blocks {
        if len(bb.Phis()) != 0 {
            return bb
        }
    }
    return nil
}

func requireSingleDefinitions(t *testing.T, m *Method) {
    seen := make(map[int]bool)
    for _, bb := range m.Blocks {
        for _, ins := range bb.Insns {
            require.Equal(t, bb.Index, ins.Block())
            if r := ins.Result(); r != nil {
                require.Falsef(t, seen[r.Reg()], "register v%d defined twice", r.Reg())
                require.True(t, ins == m.DefinitionOf(r.Reg()))
                seen[r.Reg()] = true
            }
        }
    }
}

func TestBuild_StraightLine(t *testing.T) {
    u, c := newStaticCode(intType)
    a := c.NewLocal(u.Int)
    b := c.NewLocal(u.Int)
    r := c.NewLocal(u.Int)
    c.LoadConstant(a, 3)
    c.LoadConstant(b, 4)
    c.Op(code.OpAdd, r, a, b)
    c.ReturnValue(r)
    m := toSSA(t, c)
    require.Len(t, m.Blocks, 1)
    require.Equal(t, 3, m.RegCount)
    requireSingleDefinitions(t, m)

    /* constants flow into their uses */
    add := findInsn(m, rop.OP_add)
    require.NotNil(t, add)
    require.Equal(t, rop.CstInteger(3), add.Sources()[0].TypeBearer())
    require.Equal(t, rop.CstInteger(4), add.Sources()[1].TypeBearer())
    require.Len(t, m.UsesOf(add.Result().Reg()), 1)
}

func TestBuild_DiamondPhi(t *testing.T) {
    u, c := newStaticCode(intType, intType)
    x := c.Parameter(0, u.Int)
    r := c.NewLocal(u.Int)
    join := c.NewLabel()
    alt := c.NewLabel()
    c.CompareZ(code.CmpEq, alt, x)
    c.LoadConstant(r, 1)
    c.Jump(join)
    c.Mark(alt)
    c.LoadConstant(r, 2)
    c.Mark(join)
    c.ReturnValue(r)
    m := toSSA(t, c)
    requireSingleDefinitions(t, m)

    /* the Phi node is at the join point */
    bb := findPhiBlock(m)
    require.NotNil(t, bb)
    phis := bb.Phis()
    require.Len(t, phis, 1)
    require.Len(t, phis[0].Operands(), 2)
    require.Equal(t, rop.Int, phis[0].Result().Type())
    require.Equal(t, r.Reg(), phis[0].OriginalReg())

    /* every operand comes from its predecessor */
    for i, op := range phis[0].Operands() {
        require.Equal(t, bb.Preds[i], op.Pred)
        require.Equal(t, op.Pred, m.DefinitionOf(op.Reg.Reg()).Block())
    }

    /* the return reads the Phi node */
    ret := findInsn(m, rop.OP_return)
    require.Equal(t, bb.Index, ret.Block())
    require.Equal(t, phis[0].Result().Reg(), ret.Sources()[0].Reg())
}

func TestBuild_LoopPhi(t *testing.T) {
    u, c := newStaticCode(intType, intType)
    n := c.Parameter(0, u.Int)
    i := c.NewLocal(u.Int)
    one := c.NewLocal(u.Int)
    head := c.NewLabel()
    done := c.NewLabel()
    c.LoadConstant(i, 0)
    c.LoadConstant(one, 1)
    c.Mark(head)
    c.Compare(code.CmpGe, done, i, n)
    c.Op(code.OpAdd, i, i, one)
    c.Jump(head)
    c.Mark(done)
    c.ReturnValue(i)
    m := toSSA(t, c)
    require.Len(t, m.Blocks, 4)
    requireSingleDefinitions(t, m)

    /* only the induction variable needs a Phi node */
    bb := findPhiBlock(m)
    require.NotNil(t, bb)
    require.Len(t, bb.Phis(), 1)
    require.Len(t, bb.Preds, 2)
    phi := bb.Phis()[0]
    require.Equal(t, i.Reg(), phi.OriginalReg())
    require.Equal(t, rop.Int, phi.Result().Type())

    /* the loop body feeds the Phi node back */
    add := findInsn(m, rop.OP_add)
    require.Equal(t, phi.Result().Reg(), add.Sources()[0].Reg())
    require.Equal(t, add.Result().Reg(), phi.Operands()[1].Reg.Reg())
    require.Contains(t, m.UsesOf(phi.Result().Reg()), Insn(add))

    /* the dominator tree of the loop */
    dt := BuildDominatorTree(m)
    t.Log(spew.Sdump(dt))
    require.Equal(t, -1, dt.DominatedBy[m.Entry])
    require.True(t, dt.Dominates(bb.Index, add.Block()))
    require.Equal(t, []int { bb.Index }, dt.DominanceFrontier[add.Block()])
}

func gotoInsn() rop.Insn {
    return rop.NewPlainInsn(rop.MustRopFor(rop.OP_goto, nil, nil, nil), nil, nil)
}

func paramAndIf(a rop.RegisterSpec) []rop.Insn {
    mp := rop.NewPlainCstInsn(rop.MustRopFor(rop.OP_move_param, rop.Int, nil, nil), &a, rop.EmptyList, rop.CstInteger(0))
    br := rop.NewPlainInsn(rop.MustRopFor(rop.OP_if_eq, nil, rop.TypeList { rop.Int }, nil), nil, rop.MakeList(a))
    return []rop.Insn { mp, br }
}

func returnVoid() rop.Insn {
    return rop.NewPlainInsn(rop.MustRopFor(rop.OP_return, nil, nil, nil), nil, nil)
}

func TestBuild_SplitDuplicateEdges(t *testing.T) {
    a := rop.MakeReg(0, rop.Int)
    rm := &rop.Method {
        FirstLabel: 0,
        Blocks: rop.BasicBlockList {
            rop.NewBasicBlock(0, paramAndIf(a), []int { 1, 1 }, 1),
            rop.NewBasicBlock(1, []rop.Insn { returnVoid() }, nil, -1),
        },
    }

    /* both edges get their own block */
    m := Build(rm, 1, true)
    t.Log("SSA graph:\n" + m.String())
    require.Len(t, m.Blocks, 4)
    require.Equal(t, []int { 2, 3 }, m.Blocks[0].Succs)
    require.Equal(t, 2, m.Blocks[0].Primary)
    require.Equal(t, []int { 2, 3 }, m.Blocks[1].Preds)
    require.Equal(t, []int { 1 }, m.Blocks[2].Succs)
    require.Equal(t, []int { 1 }, m.Blocks[3].Succs)
    require.Equal(t, rop.OP_goto, m.Blocks[2].LastInsn().(*NormalInsn).Opcode().Opcode)
}

func TestBuild_EntryWithPredecessors(t *testing.T) {
    a := rop.MakeReg(0, rop.Int)
    rm := &rop.Method {
        FirstLabel: 0,
        Blocks: rop.BasicBlockList {
            rop.NewBasicBlock(0, paramAndIf(a), []int { 1, 0 }, 1),
            rop.NewBasicBlock(1, []rop.Insn { returnVoid() }, nil, -1),
        },
    }

    /* a new entry block, and the back edge is critical */
    m := Build(rm, 1, true)
    t.Log("SSA graph:\n" + m.String())
    require.Len(t, m.Blocks, 4)
    require.Equal(t, 2, m.Entry)
    require.Empty(t, m.Blocks[2].Preds)
    require.Equal(t, []int { 1, 3 }, m.Blocks[0].Succs)
    require.Equal(t, []int { 2, 3 }, m.Blocks[0].Preds)
    require.Equal(t, []int { 0 }, m.Blocks[3].Succs)

    /* the loop header merges an undefined value with the parameter */
    phis := m.Blocks[0].Phis()
    require.Len(t, phis, 1)
    ops := phis[0].Operands()
    require.Len(t, ops, 2)
    require.Equal(t, 2, ops[0].Pred)
    require.Nil(t, m.DefinitionOf(ops[0].Reg.Reg()))
    require.Equal(t, 3, ops[1].Pred)
    require.Equal(t, rop.OP_move_param, m.DefinitionOf(ops[1].Reg.Reg()).(*NormalInsn).Opcode().Opcode)
    require.Equal(t, rop.Int, phis[0].Result().Type())
}

func TestBuild_PrunesUnreachable(t *testing.T) {
    rm := &rop.Method {
        FirstLabel: 5,
        Blocks: rop.BasicBlockList {
            rop.NewBasicBlock(3, []rop.Insn { returnVoid() }, nil, -1),
            rop.NewBasicBlock(5, []rop.Insn { gotoInsn() }, []int { 7 }, 7),
            rop.NewBasicBlock(7, []rop.Insn { returnVoid() }, nil, -1),
        },
    }
    m := Build(rm, 0, true)
    require.Len(t, m.Blocks, 2)
    require.Equal(t, 0, m.Entry)
    require.Equal(t, 5, m.Blocks[0].Label)
    require.Equal(t, 7, m.Blocks[1].Label)
    require.Equal(t, []int { 1 }, m.Blocks[0].Succs)
    require.Equal(t, []int { 0 }, m.Blocks[1].Preds)
}

func TestBuild_PhiTypes(t *testing.T) {
    _, c := newStaticCode(objType, intType)
    u := c.Unit()
    x := c.Parameter(0, u.Int)
    r := c.NewLocal(u.Object)
    join := c.NewLabel()
    alt := c.NewLabel()
    c.CompareZ(code.CmpEq, alt, x)
    c.LoadConstant(r, nil)
    c.Jump(join)
    c.Mark(alt)
    c.LoadConstant(r, "hello")
    c.Mark(join)
    c.ReturnValue(r)
    m := toSSA(t, c)

    /* null merges into the other reference type */
    phi := findPhiBlock(m).Phis()[0]
    require.Equal(t, rop.Object, phi.Result().Type())
    for _, op := range phi.Operands() {
        require.True(t, op.Reg.Type().IsReference())
    }
}

func TestMergeTypes(t *testing.T) {
    tests := []struct {
        a, b rop.Type
        r    rop.Type
        ok   bool
    } {
        { rop.Void      , rop.Int       , rop.Int    , true  },
        { rop.Boolean   , rop.Char      , rop.Int    , true  },
        { rop.Long      , rop.Long      , rop.Long   , true  },
        { rop.KnownNull , rop.String    , rop.String , true  },
        { rop.String    , rop.Class     , rop.Object , true  },
        { rop.Int       , rop.Long      , rop.Void   , false },
        { rop.Int       , rop.Object    , rop.Void   , false },
    }
    for _, v := range tests {
        r, ok := mergeTypes(v.a, v.b)
        require.Equal(t, v.ok, ok, "%s + %s", v.a, v.b)
        require.Equal(t, v.r, r, "%s + %s", v.a, v.b)
    }
}

func TestPhiInsn_ToRopInsnPanics(t *testing.T) {
    phi := newPhiInsn(0, 1)
    require.Panics(t, func() { phi.ToRopInsn() })
}
