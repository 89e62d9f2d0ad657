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

type _FrameKind struct {
    t Type
    s string
}

var (
    _IntKind    = _FrameKind { Int, "int" }
    _LongKind   = _FrameKind { Long, "long" }
    _FloatKind  = _FrameKind { Float, "float" }
    _DoubleKind = _FrameKind { Double, "double" }
    _ObjectKind = _FrameKind { Object, "object" }
)

var (
    _AllKinds     = []_FrameKind { _IntKind, _LongKind, _FloatKind, _DoubleKind, _ObjectKind }
    _NumericKinds = []_FrameKind { _IntKind, _LongKind, _FloatKind, _DoubleKind }
    _IntegerKinds = []_FrameKind { _IntKind, _LongKind }
)

type _ArithDesc struct {
    op    RegOp
    name  string
    kinds []_FrameKind
    throw bool
}

var _ArithOps = [...]_ArithDesc {
    { op: OP_add , name: "add" , kinds: _NumericKinds },
    { op: OP_sub , name: "sub" , kinds: _NumericKinds },
    { op: OP_mul , name: "mul" , kinds: _NumericKinds },
    { op: OP_div , name: "div" , kinds: _NumericKinds, throw: true },
    { op: OP_rem , name: "rem" , kinds: _NumericKinds, throw: true },
    { op: OP_and , name: "and" , kinds: _IntegerKinds },
    { op: OP_or  , name: "or"  , kinds: _IntegerKinds },
    { op: OP_xor , name: "xor" , kinds: _IntegerKinds },
}

var _ShiftOps = [...]_ArithDesc {
    { op: OP_shl  , name: "shl" },
    { op: OP_shr  , name: "shr" },
    { op: OP_ushr , name: "ushr" },
}

var _IfOps = [...]struct {
    op   RegOp
    name string
    obj  bool
} {
    { OP_if_eq, "eq", true },
    { OP_if_ne, "ne", true },
    { OP_if_lt, "lt", false },
    { OP_if_ge, "ge", false },
    { OP_if_le, "le", false },
    { OP_if_gt, "gt", false },
}

var _InvokeOps = [...]RegOp {
    OP_invoke_static,
    OP_invoke_virtual,
    OP_invoke_super,
    OP_invoke_direct,
    OP_invoke_interface,
}

func defrop(op RegOp, ret Type, src TypeList, br Branchingness, name string) *Rop {
    rop := &Rop {
        Opcode   : op,
        Result   : ret,
        Sources  : src,
        Branch   : br,
        Nickname : name,
    }

    /* check for duplications */
    if _, ok := _RopTab[keyOf(rop)]; ok {
        panic("duplicated operation: " + name)
    }

    /* add to the table */
    _RopTab[keyOf(rop)] = rop
    return rop
}

func throwsIf(v bool) Branchingness {
    if v {
        return BRANCH_throw
    } else {
        return BRANCH_none
    }
}

func init() {
    defrop(OP_nop, Void, nil, BRANCH_none, "nop")
    defrop(OP_goto, Void, nil, BRANCH_goto, "goto")
    defrop(OP_return, Void, nil, BRANCH_return, "return-void")
    defrop(OP_throw, Void, TypeList { Object }, BRANCH_throw, "throw")

    /* moves and returns exist for every frame kind */
    for _, k := range _AllKinds {
        defrop(OP_move, k.t, TypeList { k.t }, BRANCH_none, "move-" + k.s)
        defrop(OP_move_param, k.t, nil, BRANCH_none, "move-param-" + k.s)
        defrop(OP_move_result, k.t, nil, BRANCH_none, "move-result-" + k.s)
        defrop(OP_move_result_pseudo, k.t, nil, BRANCH_none, "move-result-pseudo-" + k.s)
        defrop(OP_return, Void, TypeList { k.t }, BRANCH_return, "return-" + k.s)
    }

    /* constants, objects other than null go through a throwing load */
    for _, k := range _NumericKinds {
        defrop(OP_const, k.t, nil, BRANCH_none, "const-" + k.s)
    }

    /* null never throws, and the throwing version is picked by RopFor explicitly */
    defrop(OP_const, Object, nil, BRANCH_none, "const-object-nothrow")
    _ConstObject = &Rop { Opcode: OP_const, Result: Object, Branch: BRANCH_throw, Nickname: "const-object" }

    /* comparisons against another register or against zero */
    for _, v := range _IfOps {
        defrop(v.op, Void, TypeList { Int, Int }, BRANCH_if, fmt.Sprintf("if-%s-int", v.name))
        defrop(v.op, Void, TypeList { Int }, BRANCH_if, fmt.Sprintf("if-%sz-int", v.name))

        /* references only have equality */
        if v.obj {
            defrop(v.op, Void, TypeList { Object, Object }, BRANCH_if, fmt.Sprintf("if-%s-object", v.name))
            defrop(v.op, Void, TypeList { Object }, BRANCH_if, fmt.Sprintf("if-%sz-object", v.name))
        }
    }

    /* binary arithmetic, the one-source forms take the constant as the second operand */
    for _, v := range _ArithOps {
        for _, k := range v.kinds {
            fp := k.t == Float || k.t == Double
            br := throwsIf(v.throw && !fp)
            defrop(v.op, k.t, TypeList { k.t, k.t }, br, fmt.Sprintf("%s-%s", v.name, k.s))
            defrop(v.op, k.t, TypeList { k.t }, br, fmt.Sprintf("%s-const-%s", v.name, k.s))
        }
    }

    /* shift counts are always ints */
    for _, v := range _ShiftOps {
        defrop(v.op, Int, TypeList { Int, Int }, BRANCH_none, v.name + "-int")
        defrop(v.op, Int, TypeList { Int }, BRANCH_none, v.name + "-const-int")
        defrop(v.op, Long, TypeList { Long, Int }, BRANCH_none, v.name + "-long")
        defrop(v.op, Long, TypeList { Long }, BRANCH_none, v.name + "-const-long")
    }

    /* unary arithmetic */
    for _, k := range _NumericKinds {
        defrop(OP_neg, k.t, TypeList { k.t }, BRANCH_none, "neg-" + k.s)
    }
    for _, k := range _IntegerKinds {
        defrop(OP_not, k.t, TypeList { k.t }, BRANCH_none, "not-" + k.s)
    }

    /* three-way comparisons */
    defrop(OP_cmpl, Int, TypeList { Long, Long }, BRANCH_none, "cmp-long")
    defrop(OP_cmpl, Int, TypeList { Float, Float }, BRANCH_none, "cmpl-float")
    defrop(OP_cmpl, Int, TypeList { Double, Double }, BRANCH_none, "cmpl-double")
    defrop(OP_cmpg, Int, TypeList { Float, Float }, BRANCH_none, "cmpg-float")
    defrop(OP_cmpg, Int, TypeList { Double, Double }, BRANCH_none, "cmpg-double")

    /* primitive conversions */
    for _, dst := range _NumericKinds {
        for _, src := range _NumericKinds {
            if dst != src {
                defrop(OP_conv, dst.t, TypeList { src.t }, BRANCH_none, fmt.Sprintf("conv-%s-to-%s", src.s, dst.s))
            }
        }
    }

    /* int narrowing */
    defrop(OP_to_byte, Int, TypeList { Int }, BRANCH_none, "to-byte")
    defrop(OP_to_char, Int, TypeList { Int }, BRANCH_none, "to-char")
    defrop(OP_to_short, Int, TypeList { Int }, BRANCH_none, "to-short")

    /* objects and arrays */
    defrop(OP_new_instance, Object, nil, BRANCH_throw, "new-instance")
    defrop(OP_new_array, Object, TypeList { Int }, BRANCH_throw, "new-array")
    defrop(OP_check_cast, Object, TypeList { Object }, BRANCH_throw, "check-cast")
    defrop(OP_instance_of, Int, TypeList { Object }, BRANCH_throw, "instance-of")
    defrop(OP_array_length, Int, TypeList { Object }, BRANCH_throw, "array-length")

    /* element and field accesses */
    for _, k := range _AllKinds {
        defrop(OP_aget, k.t, TypeList { Object, Int }, BRANCH_throw, "aget-" + k.s)
        defrop(OP_aput, Void, TypeList { k.t, Object, Int }, BRANCH_throw, "aput-" + k.s)
        defrop(OP_get_field, k.t, TypeList { Object }, BRANCH_throw, "get-field-" + k.s)
        defrop(OP_get_static, k.t, nil, BRANCH_throw, "get-static-" + k.s)
        defrop(OP_put_field, Void, TypeList { k.t, Object }, BRANCH_throw, "put-field-" + k.s)
        defrop(OP_put_static, Void, TypeList { k.t }, BRANCH_throw, "put-static-" + k.s)
    }

    /* invokes take any argument list */
    for _, op := range _InvokeOps {
        rop := &Rop {
            Opcode   : op,
            Result   : Void,
            Branch   : BRANCH_throw,
            CallLike : true,
            Variadic : true,
            Nickname : op.String(),
        }
        _RopTab[keyOf(rop)] = rop
    }
}
