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
    `github.com/cloudwego/dexssa/internal/rop`
)

type BinaryOp uint8

const (
    OpAdd BinaryOp = iota
    OpSub
    OpMul
    OpDiv
    OpRem
    OpAnd
    OpOr
    OpXor
    OpShl
    OpShr
    OpUshr
)

var _BinaryOps = [...]rop.RegOp {
    OpAdd  : rop.OP_add,
    OpSub  : rop.OP_sub,
    OpMul  : rop.OP_mul,
    OpDiv  : rop.OP_div,
    OpRem  : rop.OP_rem,
    OpAnd  : rop.OP_and,
    OpOr   : rop.OP_or,
    OpXor  : rop.OP_xor,
    OpShl  : rop.OP_shl,
    OpShr  : rop.OP_shr,
    OpUshr : rop.OP_ushr,
}

func (self BinaryOp) Opcode() rop.RegOp {
    return _BinaryOps[self]
}

func (self BinaryOp) String() string {
    return _BinaryOps[self].String()
}

type UnaryOp uint8

const (
    OpNot UnaryOp = iota
    OpNeg
)

func (self UnaryOp) Opcode() rop.RegOp {
    switch self {
        case OpNot : return rop.OP_not
        case OpNeg : return rop.OP_neg
        default    : panic("invalid unary operator")
    }
}

func (self UnaryOp) String() string {
    return self.Opcode().String()
}

type Comparison uint8

const (
    CmpLt Comparison = iota
    CmpLe
    CmpEq
    CmpGe
    CmpGt
    CmpNe
)

func (self Comparison) Opcode() rop.RegOp {
    switch self {
        case CmpLt : return rop.OP_if_lt
        case CmpLe : return rop.OP_if_le
        case CmpEq : return rop.OP_if_eq
        case CmpGe : return rop.OP_if_ge
        case CmpGt : return rop.OP_if_gt
        case CmpNe : return rop.OP_if_ne
        default    : panic("invalid comparison")
    }
}

func (self Comparison) String() string {
    return self.Opcode().String()
}
