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
    `fmt`

    `github.com/cloudwego/dexssa/internal/rop`
)

// ConstantOf converts a Go value into a constant operand.
func ConstantOf(value interface{}) rop.Constant {
    switch v := value.(type) {
        case nil          : return rop.CstKnownNull{}
        case rop.Constant : return v
        case bool         : return rop.CstBoolean(v)
        case int8         : return rop.CstByte(v)
        case int16        : return rop.CstShort(v)
        case uint16       : return rop.CstChar(v)
        case int32        : return rop.CstInteger(v)
        case int64        : return rop.CstLong(v)
        case float32      : return rop.MakeFloat(v)
        case float64      : return rop.MakeDouble(v)
        case string       : return rop.CstString(v)
        case *TypeId      : return v.Constant()
    }

    /* plain ints become longs only when they do not fit */
    if v, ok := value.(int); !ok {
        panic(fmt.Sprintf("not a constant: %T", value))
    } else if int(int32(v)) == v {
        return rop.CstInteger(int32(v))
    } else {
        return rop.CstLong(int64(v))
    }
}

// coerceConstant adjusts a constant to the register type it is loaded
// into. All int-like values are loaded as ints.
func coerceConstant(t rop.Type, cst rop.Constant) rop.Constant {
    lit, islit := cst.(rop.LiteralBits)
    intlike := cst.Type().IsIntlike()

    /* convert numeric literals */
    switch t.Basic() {
        case rop.BT_boolean, rop.BT_byte, rop.BT_char, rop.BT_short, rop.BT_int: {
            if islit && intlike {
                return rop.CstInteger(lit.IntBits())
            }
        }

        /* widen ints to longs */
        case rop.BT_long: {
            if islit && intlike {
                return rop.CstLong(lit.LongBits())
            }
        }

        /* floats may come from any number */
        case rop.BT_float: {
            switch v := cst.(type) {
                case rop.CstDouble : return rop.MakeFloat(float32(v.Value()))
                case rop.CstLong   : return rop.MakeFloat(float32(v))
                default            : if islit && intlike { return rop.MakeFloat(float32(lit.IntBits())) }
            }
        }

        /* so may doubles */
        case rop.BT_double: {
            switch v := cst.(type) {
                case rop.CstFloat : return rop.MakeDouble(float64(v.Value()))
                case rop.CstLong  : return rop.MakeDouble(float64(v))
                default           : if islit && intlike { return rop.MakeDouble(float64(lit.IntBits())) }
            }
        }
    }

    /* anything else must already agree */
    return cst
}

func checkConstant(t rop.Type, cst rop.Constant) {
    if t.IsReference() {
        if !cst.Type().IsReference() {
            panic(fmt.Sprintf("cannot load %s into %s", cst, t))
        }
    } else {
        if cst.FrameType() != t.FrameType() {
            panic(fmt.Sprintf("cannot load %s into %s", cst, t))
        }
    }
}
