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

type RegOp uint8

const (
    OP_nop RegOp = iota + 1
    OP_move
    OP_move_param
    OP_move_exception
    OP_const
    OP_goto
    OP_if_eq
    OP_if_ne
    OP_if_lt
    OP_if_ge
    OP_if_le
    OP_if_gt
    OP_switch
    OP_add
    OP_sub
    OP_mul
    OP_div
    OP_rem
    OP_neg
    OP_and
    OP_or
    OP_xor
    OP_shl
    OP_shr
    OP_ushr
    OP_not
    OP_cmpl
    OP_cmpg
    OP_conv
    OP_to_byte
    OP_to_char
    OP_to_short
    OP_return
    OP_array_length
    OP_throw
    OP_monitor_enter
    OP_monitor_exit
    OP_aget
    OP_aput
    OP_new_instance
    OP_new_array
    OP_filled_new_array
    OP_check_cast
    OP_instance_of
    OP_get_field
    OP_get_static
    OP_put_field
    OP_put_static
    OP_invoke_static
    OP_invoke_virtual
    OP_invoke_super
    OP_invoke_direct
    OP_invoke_interface
    OP_mark_local
    OP_move_result
    OP_move_result_pseudo
    OP_fill_array_data
)

var _OpNames = [...]string {
    OP_nop                : "nop",
    OP_move               : "move",
    OP_move_param         : "move-param",
    OP_move_exception     : "move-exception",
    OP_const              : "const",
    OP_goto               : "goto",
    OP_if_eq              : "if-eq",
    OP_if_ne              : "if-ne",
    OP_if_lt              : "if-lt",
    OP_if_ge              : "if-ge",
    OP_if_le              : "if-le",
    OP_if_gt              : "if-gt",
    OP_switch             : "switch",
    OP_add                : "add",
    OP_sub                : "sub",
    OP_mul                : "mul",
    OP_div                : "div",
    OP_rem                : "rem",
    OP_neg                : "neg",
    OP_and                : "and",
    OP_or                 : "or",
    OP_xor                : "xor",
    OP_shl                : "shl",
    OP_shr                : "shr",
    OP_ushr               : "ushr",
    OP_not                : "not",
    OP_cmpl               : "cmpl",
    OP_cmpg               : "cmpg",
    OP_conv               : "conv",
    OP_to_byte            : "to-byte",
    OP_to_char            : "to-char",
    OP_to_short           : "to-short",
    OP_return             : "return",
    OP_array_length       : "array-length",
    OP_throw              : "throw",
    OP_monitor_enter      : "monitor-enter",
    OP_monitor_exit       : "monitor-exit",
    OP_aget               : "aget",
    OP_aput               : "aput",
    OP_new_instance       : "new-instance",
    OP_new_array          : "new-array",
    OP_filled_new_array   : "filled-new-array",
    OP_check_cast         : "check-cast",
    OP_instance_of        : "instance-of",
    OP_get_field          : "get-field",
    OP_get_static         : "get-static",
    OP_put_field          : "put-field",
    OP_put_static         : "put-static",
    OP_invoke_static      : "invoke-static",
    OP_invoke_virtual     : "invoke-virtual",
    OP_invoke_super       : "invoke-super",
    OP_invoke_direct      : "invoke-direct",
    OP_invoke_interface   : "invoke-interface",
    OP_mark_local         : "mark-local",
    OP_move_result        : "move-result",
    OP_move_result_pseudo : "move-result-pseudo",
    OP_fill_array_data    : "fill-array-data",
}

func (self RegOp) String() string {
    if int(self) < len(_OpNames) && _OpNames[self] != "" {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("op-%d", self)
    }
}

// IsIf reports whether the opcode is one of the two-way comparison branches.
func (self RegOp) IsIf() bool {
    return self >= OP_if_eq && self <= OP_if_gt
}

// IsCommutative reports whether the operands of the opcode may be exchanged.
func (self RegOp) IsCommutative() bool {
    switch self {
        case OP_add, OP_mul, OP_and, OP_or, OP_xor : return true
        default                                    : return false
    }
}

// FlippedIfOpcode returns the comparison that gives the same answer when
// the two operands swap sides.
func FlippedIfOpcode(op RegOp) RegOp {
    switch op {
        case OP_if_eq : return OP_if_eq
        case OP_if_ne : return OP_if_ne
        case OP_if_lt : return OP_if_gt
        case OP_if_ge : return OP_if_le
        case OP_if_le : return OP_if_ge
        case OP_if_gt : return OP_if_lt
        default       : panic("not an if opcode: " + op.String())
    }
}
