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
    `math`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/dexssa/internal/code`
    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

func returnOperand(t *testing.T, m *Method) rop.RegisterSpec {
    ret := findInsn(m, rop.OP_return)
    require.NotNil(t, ret)
    require.Len(t, ret.Sources(), 1)
    return ret.Sources()[0]
}

func buildBinary(op code.BinaryOp, x int32, y int32) *Method {
    u, c := newStaticCode(intType)
    a := c.NewLocal(u.Int)
    b := c.NewLocal(u.Int)
    r := c.NewLocal(u.Int)
    c.LoadConstant(a, x)
    c.LoadConstant(b, y)
    c.Op(op, r, a, b)
    c.ReturnValue(r)
    return Build(c.ToBasicBlocks(), c.ParamWidth(), c.IsStatic())
}

func buildDiamond(x int32, y int32) *Method {
    u, c := newStaticCode(intType, intType)
    p := c.Parameter(0, u.Int)
    r := c.NewLocal(u.Int)
    join := c.NewLabel()
    alt := c.NewLabel()
    c.CompareZ(code.CmpEq, alt, p)
    c.LoadConstant(r, x)
    c.Jump(join)
    c.Mark(alt)
    c.LoadConstant(r, y)
    c.Mark(join)
    c.ReturnValue(r)
    return Build(c.ToBasicBlocks(), c.ParamWidth(), c.IsStatic())
}

func buildCountingLoop() *Method {
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
    return Build(c.ToBasicBlocks(), c.ParamWidth(), c.IsStatic())
}

func TestSCCP_StraightLine(t *testing.T) {
    m := buildBinary(code.OpAdd, 3, 4)
    SCCP{}.Apply(m)
    t.Log("After SCCP:\n" + m.String())

    /* the sum is known */
    add := findInsn(m, rop.OP_add)
    require.Equal(t, rop.CstInteger(7), add.Result().TypeBearer())
    require.Equal(t, rop.CstInteger(7), returnOperand(t, m).TypeBearer())
}

func TestSCCP_DiamondSameConstant(t *testing.T) {
    m := buildDiamond(5, 5)
    SCCP{}.Apply(m)
    t.Log("After SCCP:\n" + m.String())

    /* both paths agree */
    phi := findPhiBlock(m).Phis()[0]
    require.Equal(t, rop.CstInteger(5), phi.Result().TypeBearer())
    require.Equal(t, rop.CstInteger(5), returnOperand(t, m).TypeBearer())
    require.Equal(t, phi.Result().Reg(), returnOperand(t, m).Reg())
}

func TestSCCP_DiamondDifferentConstants(t *testing.T) {
    m := buildDiamond(1, 2)
    s := newSccp(m)
    s.run()
    s.replaceConstants()

    /* the paths disagree */
    phi := findPhiBlock(m).Phis()[0]
    v, c := s.valueOf(phi.Result().Reg())
    require.Equal(t, VARYING, v)
    require.Nil(t, c)
    require.Equal(t, rop.Int, phi.Result().TypeBearer())
    require.Equal(t, rop.Int, returnOperand(t, m).TypeBearer())
}

func TestSCCP_Loop(t *testing.T) {
    m := buildCountingLoop()
    s := newSccp(m)
    s.run()
    s.replaceConstants()
    t.Log("After SCCP:\n" + m.String())

    /* the induction variable changes on every iteration */
    phi := findPhiBlock(m).Phis()[0]
    v, _ := s.valueOf(phi.Result().Reg())
    require.Equal(t, VARYING, v)
    add := findInsn(m, rop.OP_add)
    v, _ = s.valueOf(add.Result().Reg())
    require.Equal(t, VARYING, v)
    require.False(t, returnOperand(t, m).TypeBearer().IsConstant())

    /* the step is still a constant */
    require.Equal(t, rop.CstInteger(1), add.Sources()[1].TypeBearer())

    /* every block was reached */
    for _, bb := range m.Blocks {
        require.True(t, s.exec.has(bb.Index), "block %d", bb.Index)
    }
}

func TestSCCP_PhiMeet(t *testing.T) {
    u, c := newStaticCode(intType, intType)
    x := c.Parameter(0, u.Int)
    r := c.NewLocal(u.Int)
    join := c.NewLabel()
    neg := c.NewLabel()
    zero := c.NewLabel()
    c.CompareZ(code.CmpEq, zero, x)
    c.CompareZ(code.CmpLt, neg, x)
    c.LoadConstant(r, 7)
    c.Jump(join)
    c.Mark(zero)
    c.LoadConstant(r, 5)
    c.Jump(join)
    c.Mark(neg)
    c.LoadConstant(r, 5)
    c.Mark(join)
    c.ReturnValue(r)
    m := toSSA(t, c)

    /* one Phi node with three operands */
    bb := findPhiBlock(m)
    require.Len(t, bb.Preds, 3)
    phi := bb.Phis()[0]
    reg := phi.Result().Reg()
    s := newSccp(m)

    /* nothing is known yet */
    for _, p := range bb.Preds {
        s.exec.set(p)
    }
    s.simulatePhi(phi)
    v, _ := s.valueOf(reg)
    require.Equal(t, TOP, v)

    /* evaluate the operand definitions */
    seven := -1
    for _, p := range bb.Preds {
        s.exec.clear(p)
    }
    for _, op := range phi.Operands() {
        def := m.DefinitionOf(op.Reg.Reg()).(*NormalInsn)
        s.simulateStmt(def)
        if cst, _ := def.Constant(); cst == rop.CstInteger(7) {
            seven = op.Pred
        } else {
            s.exec.set(op.Pred)
        }
    }

    /* only the fives are reachable */
    require.NotEqual(t, -1, seven)
    s.simulatePhi(phi)
    v, cst := s.valueOf(reg)
    require.Equal(t, CONSTANT, v)
    require.Equal(t, rop.CstInteger(5), cst)

    /* the seven joins in */
    s.exec.set(seven)
    s.simulatePhi(phi)
    v, _ = s.valueOf(reg)
    require.Equal(t, VARYING, v)

    /* and VARYING is final */
    s.exec.clear(seven)
    s.simulatePhi(phi)
    v, _ = s.valueOf(reg)
    require.Equal(t, VARYING, v)
}

func TestSCCP_Monotonic(t *testing.T) {
    for _, m := range []*Method { buildCountingLoop(), buildDiamond(1, 2), buildDiamond(3, 3), buildBinary(code.OpMul, 6, 7) } {
        seq := make(map[int][]LatticeValue)
        s := newSccp(m)
        s.observe = func(reg int, v LatticeValue, _ rop.Constant) {
            seq[reg] = append(seq[reg], v)
        }

        /* values never move backwards */
        s.run()
        for reg, vals := range seq {
            for i := 1; i < len(vals); i++ {
                require.True(t, vals[i] > vals[i - 1], "v%d: %v", reg, vals)
            }
        }
    }
}

func foldInt(op code.BinaryOp, a int32, b int32) (int32, bool) {
    x, y := int64(a), int64(b)
    s := uint(b & 0x1f)
    switch op {
        case code.OpAdd  : return int32(x + y), true
        case code.OpSub  : return int32(x - y), true
        case code.OpMul  : return int32(x * y), true
        case code.OpAnd  : return a & b, true
        case code.OpOr   : return a | b, true
        case code.OpXor  : return a ^ b, true
        case code.OpShl  : return int32(x << s), true
        case code.OpShr  : return a >> s, true
        case code.OpUshr : return int32(uint32(a) >> s), true
        case code.OpDiv  : if b == 0 { return 0, false } else { return int32(x / y), true }
        case code.OpRem  : if b == 0 { return 0, false } else { return int32(x % y), true }
        default          : panic("unreachable")
    }
}

func TestSCCP_FoldArithmetic(t *testing.T) {
    type pair struct {
        a, b int32
    }

    /* interesting operands */
    ops := []code.BinaryOp { code.OpAdd, code.OpSub, code.OpMul, code.OpDiv, code.OpRem, code.OpAnd, code.OpOr, code.OpXor, code.OpShl, code.OpShr, code.OpUshr }
    vals := []pair { { 1, 0 }, { math.MinInt32, -1 }, { math.MaxInt32, 1 }, { -7, 33 }, { 12, -3 } }

    /* and some random ones */
    fake := gofakeit.New(20221013)
    for i := 0; i < 32; i++ {
        vals = append(vals, pair { fake.Int32(), int32(fake.Number(-40, 40)) })
    }

    /* fold everything */
    for _, op := range ops {
        for _, v := range vals {
            m := buildBinary(op, v.a, v.b)
            SCCP{}.Apply(m)
            tb := returnOperand(t, m).TypeBearer()

            /* division by zero is never folded */
            if want, ok := foldInt(op, v.a, v.b); ok {
                require.Equal(t, rop.CstInteger(want), tb, "%d %s %d", v.a, op, v.b)
            } else {
                require.False(t, tb.IsConstant(), "%d %s %d", v.a, op, v.b)
            }
        }
    }
}

func TestSCCP_OneSourceMath(t *testing.T) {
    a := rop.MakeReg(0, rop.CstInteger(7))
    r1 := rop.MakeReg(1, rop.Int)
    r2 := rop.MakeReg(2, rop.Int)

    /* reverse subtraction and addition of a literal */
    c7 := rop.NewPlainCstInsn(rop.MustRopFor(rop.OP_const, rop.Int, nil, rop.CstInteger(7)), &a, rop.EmptyList, rop.CstInteger(7))
    rsub := rop.NewPlainCstInsn(rop.MustRopFor(rop.OP_sub, rop.Int, rop.TypeList { rop.Int }, nil), &r1, rop.MakeList(a), rop.CstInteger(0))
    addc := rop.NewPlainCstInsn(rop.MustRopFor(rop.OP_add, rop.Int, rop.TypeList { rop.Int }, nil), &r2, rop.MakeList(a), rop.CstInteger(8))
    ret := rop.NewPlainInsn(rop.MustRopFor(rop.OP_return, nil, nil, nil), nil, nil)

    /* a single block */
    m := Build(&rop.Method {
        FirstLabel: 0,
        Blocks: rop.BasicBlockList { rop.NewBasicBlock(0, []rop.Insn { c7, rsub, addc, ret }, nil, -1) },
    }, 0, true)

    /* run the analysis */
    s := newSccp(m)
    s.run()
    spew.Config.SortKeys = true
    spew.Dump(s.values)

    /* check the results */
    v, c := s.valueOf(findInsn(m, rop.OP_sub).Result().Reg())
    require.Equal(t, CONSTANT, v)
    require.Equal(t, rop.CstInteger(-7), c)
    v, c = s.valueOf(findInsn(m, rop.OP_add).Result().Reg())
    require.Equal(t, CONSTANT, v)
    require.Equal(t, rop.CstInteger(15), c)
}

func TestSCCP_Parameters(t *testing.T) {
    m := buildDiamond(4, 4)
    s := newSccp(m)

    /* nothing executed, so nothing is known */
    for reg := 0; reg < m.RegCount; reg++ {
        v, _ := s.valueOf(reg)
        require.Equal(t, TOP, v)
    }

    /* the parameter is never a constant */
    s.run()
    for _, ins := range m.Blocks[m.Entry].Insns {
        if n, ok := ins.(*NormalInsn); ok && n.Opcode().Opcode == rop.OP_move_param {
            v, _ := s.valueOf(n.Result().Reg())
            require.Equal(t, VARYING, v)
        }
    }
}
