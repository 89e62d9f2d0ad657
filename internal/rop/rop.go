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
)

type Branchingness uint8

const (
    BRANCH_none Branchingness = iota
    BRANCH_return
    BRANCH_goto
    BRANCH_if
    BRANCH_switch
    BRANCH_throw
)

func (self Branchingness) String() string {
    switch self {
        case BRANCH_none   : return "none"
        case BRANCH_return : return "return"
        case BRANCH_goto   : return "goto"
        case BRANCH_if     : return "if"
        case BRANCH_switch : return "switch"
        case BRANCH_throw  : return "throw"
        default            : return fmt.Sprintf("branch-%d", uint8(self))
    }
}

// Rop describes one concrete operation of the target instruction set, that
// is an opcode specialized for a particular combination of operand types.
type Rop struct {
    Opcode   RegOp
    Result   Type
    Sources  TypeList
    Branch   Branchingness
    CallLike bool
    Variadic bool
    Nickname string
}

func (self *Rop) CanThrow() bool {
    return self.Branch == BRANCH_throw
}

func (self *Rop) IsCommutative() bool {
    return self.Opcode.IsCommutative()
}

func (self *Rop) String() string {
    return self.Nickname
}

type _RopKey struct {
    op  RegOp
    ret BasicType
    src string
}

const (
    _SRC_variadic = "*"
)

var (
    _RopTab      = make(map[_RopKey]*Rop)
    _ConstObject *Rop
)

func keyOf(rop *Rop) _RopKey {
    if rop.Variadic {
        return _RopKey { rop.Opcode, rop.Result.basic.Frame(), _SRC_variadic }
    } else {
        return _RopKey { rop.Opcode, rop.Result.basic.Frame(), rop.Sources.signature() }
    }
}

// resultKind works out which result kind an opcode produces. Arithmetic
// opcodes produce the type of their first operand, so they can be looked
// up even for throwing variants that carry no result register.
func resultKind(op RegOp, dest TypeBearer, sources TypeList) BasicType {
    switch op {
        case OP_add, OP_sub, OP_mul, OP_div, OP_rem, OP_and, OP_or, OP_xor, OP_shl, OP_shr, OP_ushr, OP_neg, OP_not: {
            if len(sources) == 0 {
                return BT_void
            } else {
                return sources[0].basic.Frame()
            }
        }
    }

    /* fixed result kinds */
    switch op {
        case OP_cmpl, OP_cmpg, OP_instance_of, OP_array_length                        : return BT_int
        case OP_new_instance, OP_new_array, OP_check_cast, OP_filled_new_array        : return BT_object
        case OP_nop, OP_goto, OP_return, OP_throw, OP_put_field, OP_put_static        : return BT_void
        case OP_aput, OP_monitor_enter, OP_monitor_exit, OP_switch, OP_fill_array_data : return BT_void
        case OP_invoke_static, OP_invoke_virtual, OP_invoke_super                     : return BT_void
        case OP_invoke_direct, OP_invoke_interface                                    : return BT_void
    }

    /* everything else produces the type of the destination */
    if op.IsIf() || dest == nil {
        return BT_void
    } else {
        return dest.FrameType().Basic()
    }
}

// RopFor resolves the operation descriptor of an opcode applied to the given
// destination and source types. A one-source arithmetic opcode resolves to
// the literal form, where the constant is the second operand.
func RopFor(op RegOp, dest TypeBearer, sources TypeList, cst Constant) (*Rop, bool) {
    ret := resultKind(op, dest, sources)
    key := _RopKey { op, ret, sources.signature() }

    /* constant objects other than null may throw while resolving */
    if op == OP_const && ret == BT_object {
        if _, ok := cst.(CstKnownNull); !ok && cst != nil {
            return _ConstObject, len(sources) == 0
        }
    }

    /* exact match first */
    if rop, ok := _RopTab[key]; ok {
        return rop, true
    }

    /* then the variadic forms */
    key.src = _SRC_variadic
    rop, ok := _RopTab[key]
    return rop, ok
}

// MustRopFor is like RopFor, but panics if no such operation exists.
func MustRopFor(op RegOp, dest TypeBearer, sources TypeList, cst Constant) *Rop {
    if rop, ok := RopFor(op, dest, sources, cst); ok {
        return rop
    } else {
        panic(fmt.Sprintf("no operation for %s %s", op, sources))
    }
}
