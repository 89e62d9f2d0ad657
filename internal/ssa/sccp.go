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
    `sync/atomic`

    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/oleiade/lane`
)

// LatticeValue is what is statically known about the value of a register.
// Values only ever move forward, TOP < CONSTANT < VARYING.
type LatticeValue uint8

const (
    TOP LatticeValue = iota
    CONSTANT
    VARYING
)

func (self LatticeValue) String() string {
    switch self {
        case TOP      : return "top"
        case CONSTANT : return "constant"
        case VARYING  : return "varying"
        default       : return fmt.Sprintf("lattice-%d", uint8(self))
    }
}

type _BitSet []uint64

func newBitSet(n int) _BitSet {
    return make(_BitSet, (n + 63) / 64)
}

func (self _BitSet) has(i int) bool {
    return self[i / 64] & (1 << (i % 64)) != 0
}

func (self _BitSet) set(i int) {
    self[i / 64] |= 1 << (i % 64)
}

func (self _BitSet) clear(i int) {
    self[i / 64] &^= 1 << (i % 64)
}

// SCCP is the sparse conditional constant propagation pass.
type SCCP struct{}

func (SCCP) Apply(m *Method) {
    s := newSccp(m)
    s.run()
    s.replaceConstants()
}

type _Sccp struct {
    m       *Method
    exec    _BitSet
    values  []LatticeValue
    consts  []rop.Constant
    cfg     *lane.Stack
    cfgPhi  *lane.Stack
    varying *lane.Stack
    ssa     *lane.Stack
    observe func(reg int, v LatticeValue, c rop.Constant)
}

func newSccp(m *Method) *_Sccp {
    return &_Sccp {
        m       : m,
        exec    : newBitSet(len(m.Blocks)),
        values  : make([]LatticeValue, m.RegCount),
        consts  : make([]rop.Constant, m.RegCount),
        cfg     : lane.NewStack(),
        cfgPhi  : lane.NewStack(),
        varying : lane.NewStack(),
        ssa     : lane.NewStack(),
    }
}

func (self *_Sccp) addBlock(bb int) {
    if !self.exec.has(bb) {
        self.exec.set(bb)
        self.cfg.Push(bb)
    } else {
        self.cfgPhi.Push(bb)
    }
}

func (self *_Sccp) addUsers(reg int, v LatticeValue) {
    for _, ins := range self.m.uses[reg] {
        if v == VARYING {
            self.varying.Push(ins)
        } else {
            self.ssa.Push(ins)
        }
    }
}

// setLatticeValue moves reg forward in the lattice. Two different constants
// meet at VARYING.
func (self *_Sccp) setLatticeValue(reg int, v LatticeValue, c rop.Constant) bool {
    old := self.values[reg]

    /* never move backwards */
    if v < old {
        return false
    }

    /* constants must agree */
    if v == CONSTANT && old == CONSTANT {
        if self.consts[reg] == c {
            return false
        } else {
            v, c = VARYING, nil
        }
    }

    /* nothing changed */
    if v == old && v != CONSTANT {
        return false
    }

    /* update the value */
    self.values[reg] = v
    self.consts[reg] = c

    /* notify the observer if any */
    if self.observe != nil {
        self.observe(reg, v, c)
    }

    /* the users need to be simulated again */
    self.addUsers(reg, v)
    return true
}

func (self *_Sccp) run() {
    self.addBlock(self.m.Entry)

    /* iterate until all the worklists are empty */
    for !self.cfg.Empty() || !self.cfgPhi.Empty() || !self.varying.Empty() || !self.ssa.Empty() {
        for !self.cfg.Empty() {
            self.simulateBlock(self.m.Blocks[self.cfg.Pop().(int)])
        }

        /* a new edge into an executable block only affects its Phi nodes */
        for !self.cfgPhi.Empty() {
            for _, phi := range self.m.Blocks[self.cfgPhi.Pop().(int)].Phis() {
                self.simulatePhi(phi)
            }
        }

        /* VARYING is final, drain it first */
        for !self.varying.Empty() {
            self.simulateInsn(self.varying.Pop().(Insn))
        }

        /* then the constants */
        for !self.ssa.Empty() {
            self.simulateInsn(self.ssa.Pop().(Insn))
        }
    }
}

func (self *_Sccp) simulateBlock(bb *BasicBlock) {
    for _, ins := range bb.Insns {
        self.simulateInsn(ins)
    }
}

func (self *_Sccp) simulateInsn(ins Insn) {
    if !self.exec.has(ins.Block()) {
        return
    }

    /* Phi nodes are simulated differently */
    switch v := ins.(type) {
        case *PhiInsn    : self.simulatePhi(v)
        case *NormalInsn : self.simulateStmt(v)
        default          : panic(fmt.Sprintf("unknown instruction type: %T", ins))
    }
}

// simulatePhi takes the meet over the operands coming from executable
// predecessors. TOP operands carry no information yet.
func (self *_Sccp) simulatePhi(phi *PhiInsn) {
    var c rop.Constant
    var v LatticeValue

    /* no need to simulate VARYING nodes */
    reg := phi.result.Reg()
    if self.values[reg] == VARYING {
        return
    }

    /* meet all the operands */
    for _, op := range phi.ops {
        if self.exec.has(op.Pred) {
            r := op.Reg.Reg()
            switch self.values[r] {
                case TOP: {
                    continue
                }
                case CONSTANT: {
                    if v == TOP {
                        v, c = CONSTANT, self.consts[r]
                    } else if c != self.consts[r] {
                        v, c = VARYING, nil
                    }
                }
                case VARYING: {
                    v, c = VARYING, nil
                }
            }
        }

        /* VARYING is final */
        if v == VARYING {
            break
        }
    }

    /* update the result */
    self.setLatticeValue(reg, v, c)
}

func (self *_Sccp) simulateBranch(ins *NormalInsn) {
    for _, s := range self.m.Blocks[ins.Block()].Succs {
        self.addBlock(s)
    }
}

func (self *_Sccp) simulateStmt(ins *NormalInsn) {
    op := ins.Opcode()
    rs := ins.Result()

    /* control transfers make all the successors executable */
    if op.Branch != rop.BRANCH_none || op.CallLike {
        self.simulateBranch(ins)
    }

    /* throwing div and rem put their results into the following move-result-pseudo */
    if rs == nil {
        if op.Opcode != rop.OP_div && op.Opcode != rop.OP_rem {
            return
        } else if rs = self.pseudoResultOf(ins); rs == nil {
            return
        }
    }

    /* the value of the result */
    c := rop.Constant(nil)
    v := VARYING
    reg := rs.Reg()

    /* simulate the operation */
    switch op.Opcode {
        case rop.OP_const: {
            c, _ = ins.Constant()
            v = CONSTANT
        }

        /* moves copy whatever the source has, even TOP */
        case rop.OP_move: {
            if src := ins.Sources(); len(src) == 1 {
                v, c = self.values[src[0].Reg()], self.consts[src[0].Reg()]
            }
        }

        /* integer arithmetics */
        case rop.OP_add, rop.OP_sub, rop.OP_mul, rop.OP_div, rop.OP_rem, rop.OP_and, rop.OP_or, rop.OP_xor, rop.OP_shl, rop.OP_shr, rop.OP_ushr: {
            if op.Result.Basic() == rop.BT_int {
                if c = self.simulateMath(ins); c != nil {
                    v = CONSTANT
                }
            }
        }

        /* keep what the throwing instruction gave */
        case rop.OP_move_result_pseudo: {
            if self.values[reg] == CONSTANT {
                v, c = CONSTANT, self.consts[reg]
            }
        }
    }

    /* update the result */
    self.setLatticeValue(reg, v, c)
}

func (self *_Sccp) pseudoResultOf(ins *NormalInsn) *rop.RegisterSpec {
    bb := self.m.Blocks[ins.Block()]
    if bb.Primary < 0 {
        return nil
    }

    /* the primary successor must start with a move-result-pseudo */
    next := self.m.Blocks[bb.Primary]
    if len(next.Insns) == 0 {
        return nil
    } else if p, ok := next.Insns[0].(*NormalInsn); !ok || p.Opcode().Opcode != rop.OP_move_result_pseudo {
        return nil
    } else {
        return p.Result()
    }
}

func intOf(c rop.Constant) (int32, bool) {
    if lit, ok := c.(rop.LiteralBits); !ok || !c.Type().IsIntlike() {
        return 0, false
    } else {
        return lit.IntBits(), true
    }
}

func (self *_Sccp) constOf(reg int) (int32, bool) {
    if self.values[reg] != CONSTANT {
        return 0, false
    } else {
        return intOf(self.consts[reg])
    }
}

// simulateMath folds an int operation over two constant operands. The
// literal of a one-source instruction is the second operand.
func (self *_Sccp) simulateMath(ins *NormalInsn) rop.Constant {
    var ok bool
    var a, b int32

    /* the first operand */
    src := ins.Sources()
    if a, ok = self.constOf(src[0].Reg()); !ok {
        return nil
    }

    /* the second operand */
    if len(src) == 2 {
        if b, ok = self.constOf(src[1].Reg()); !ok {
            return nil
        }
    } else if c, isc := ins.Constant(); !isc {
        return nil
    } else if b, ok = intOf(c); !ok {
        return nil
    }

    /* fold the operation */
    switch op := ins.Opcode().Opcode; op {
        case rop.OP_add  : return rop.CstInteger(a + b)
        case rop.OP_mul  : return rop.CstInteger(a * b)
        case rop.OP_and  : return rop.CstInteger(a & b)
        case rop.OP_or   : return rop.CstInteger(a | b)
        case rop.OP_xor  : return rop.CstInteger(a ^ b)
        case rop.OP_shl  : return rop.CstInteger(a << (b & 0x1f))
        case rop.OP_shr  : return rop.CstInteger(a >> (b & 0x1f))
        case rop.OP_ushr : return rop.CstInteger(int32(uint32(a) >> (b & 0x1f)))
        case rop.OP_div  : if b == 0 { return nil } else { return rop.CstInteger(a / b) }
        case rop.OP_rem  : if b == 0 { return nil } else { return rop.CstInteger(a % b) }
        case rop.OP_sub  : if len(src) == 1 { return rop.CstInteger(b - a) } else { return rop.CstInteger(a - b) }
        default          : panic("unexpected math operation: " + op.String())
    }
}

func (self *_Sccp) valueOf(reg int) (LatticeValue, rop.Constant) {
    return self.values[reg], self.consts[reg]
}

// replaceConstants attaches the discovered constants to the definitions,
// and to every use that is not a move or a Phi node.
func (self *_Sccp) replaceConstants() {
    for reg := 0; reg < len(self.values); reg++ {
        if self.values[reg] != CONSTANT {
            continue
        }

        /* definitions that already carry the constant are trivial */
        cst := self.consts[reg]
        def := self.m.DefinitionOf(reg)
        if def == nil || def.Result().TypeBearer().IsConstant() {
            continue
        }

        /* update the definition */
        self.m.SetResult(def, def.Result().WithType(cst))
        atomic.AddUint64(&ConstantCount, 1)
        log.Debugf("register v%d is constant: %s", reg, cst)

        /* update the uses, each instruction only once */
        seen := make(map[Insn]bool)
        for _, ins := range self.m.uses[reg] {
            if !ins.IsPhiOrMove() && !seen[ins] {
                seen[ins] = true
                for i, r := range ins.Sources() {
                    if r.Reg() == reg {
                        self.m.ChangeOneSource(ins, i, r.WithType(cst))
                        atomic.AddUint64(&RewriteCount, 1)
                    }
                }
            }
        }
    }
}
