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
    `math`
    `strconv`
)

// Constant is a literal or reference value that can be embedded into an
// instruction. All constants are comparable with ==.
type Constant interface {
    TypeBearer
    fmt.Stringer
    cst()
}

// LiteralBits is a constant that has a plain bit pattern.
type LiteralBits interface {
    Constant
    IntBits() int32
    LongBits() int64
    FitsInInt() bool
}

type (
    CstInteger   int32
    CstLong      int64
    CstBoolean   bool
    CstByte      int8
    CstChar      uint16
    CstShort     int16
    CstString    string
    CstKnownNull struct{}
)

type CstFloat struct {
    bits uint32
}

type CstDouble struct {
    bits uint64
}

type CstType struct {
    Value Type
}

type CstFieldRef struct {
    Owner Type
    Name  string
    Field Type
}

type CstMethodRef struct {
    Owner  Type
    Name   string
    Proto  string
    Return Type
    Params int
}

func MakeFloat(v float32) CstFloat {
    return CstFloat { math.Float32bits(v) }
}

func MakeDouble(v float64) CstDouble {
    return CstDouble { math.Float64bits(v) }
}

func (CstInteger)   cst() {}
func (CstLong)      cst() {}
func (CstFloat)     cst() {}
func (CstDouble)    cst() {}
func (CstBoolean)   cst() {}
func (CstByte)      cst() {}
func (CstChar)      cst() {}
func (CstShort)     cst() {}
func (CstString)    cst() {}
func (CstKnownNull) cst() {}
func (CstType)      cst() {}
func (CstFieldRef)  cst() {}
func (CstMethodRef) cst() {}

/** Type Bearer Implementations **/

func (self CstInteger)   Type() Type { return Int }
func (self CstLong)      Type() Type { return Long }
func (self CstFloat)     Type() Type { return Float }
func (self CstDouble)    Type() Type { return Double }
func (self CstBoolean)   Type() Type { return Boolean }
func (self CstByte)      Type() Type { return Byte }
func (self CstChar)      Type() Type { return Char }
func (self CstShort)     Type() Type { return Short }
func (self CstString)    Type() Type { return String }
func (self CstKnownNull) Type() Type { return KnownNull }
func (self CstType)      Type() Type { return Class }
func (self CstFieldRef)  Type() Type { return self.Field }
func (self CstMethodRef) Type() Type { return self.Return }

func (self CstInteger)   FrameType() Type { return Int }
func (self CstLong)      FrameType() Type { return Long }
func (self CstFloat)     FrameType() Type { return Float }
func (self CstDouble)    FrameType() Type { return Double }
func (self CstBoolean)   FrameType() Type { return Int }
func (self CstByte)      FrameType() Type { return Int }
func (self CstChar)      FrameType() Type { return Int }
func (self CstShort)     FrameType() Type { return Int }
func (self CstString)    FrameType() Type { return String }
func (self CstKnownNull) FrameType() Type { return KnownNull }
func (self CstType)      FrameType() Type { return Class }
func (self CstFieldRef)  FrameType() Type { return self.Field.FrameType() }
func (self CstMethodRef) FrameType() Type { return self.Return.FrameType() }

func (self CstInteger)   Basic() BasicType { return BT_int }
func (self CstLong)      Basic() BasicType { return BT_long }
func (self CstFloat)     Basic() BasicType { return BT_float }
func (self CstDouble)    Basic() BasicType { return BT_double }
func (self CstBoolean)   Basic() BasicType { return BT_boolean }
func (self CstByte)      Basic() BasicType { return BT_byte }
func (self CstChar)      Basic() BasicType { return BT_char }
func (self CstShort)     Basic() BasicType { return BT_short }
func (self CstString)    Basic() BasicType { return BT_object }
func (self CstKnownNull) Basic() BasicType { return BT_object }
func (self CstType)      Basic() BasicType { return BT_object }
func (self CstFieldRef)  Basic() BasicType { return self.Field.Basic() }
func (self CstMethodRef) Basic() BasicType { return self.Return.Basic() }

func (self CstInteger)   IsConstant() bool { return true }
func (self CstLong)      IsConstant() bool { return true }
func (self CstFloat)     IsConstant() bool { return true }
func (self CstDouble)    IsConstant() bool { return true }
func (self CstBoolean)   IsConstant() bool { return true }
func (self CstByte)      IsConstant() bool { return true }
func (self CstChar)      IsConstant() bool { return true }
func (self CstShort)     IsConstant() bool { return true }
func (self CstString)    IsConstant() bool { return true }
func (self CstKnownNull) IsConstant() bool { return true }
func (self CstType)      IsConstant() bool { return true }
func (self CstFieldRef)  IsConstant() bool { return true }
func (self CstMethodRef) IsConstant() bool { return true }

/** Literal Bits **/

func (self CstInteger)   IntBits() int32 { return int32(self) }
func (self CstLong)      IntBits() int32 { return int32(self) }
func (self CstFloat)     IntBits() int32 { return int32(self.bits) }
func (self CstDouble)    IntBits() int32 { return int32(self.bits) }
func (self CstByte)      IntBits() int32 { return int32(self) }
func (self CstChar)      IntBits() int32 { return int32(self) }
func (self CstShort)     IntBits() int32 { return int32(self) }
func (self CstKnownNull) IntBits() int32 { return 0 }

func (self CstInteger)   LongBits() int64 { return int64(self) }
func (self CstLong)      LongBits() int64 { return int64(self) }
func (self CstFloat)     LongBits() int64 { return int64(int32(self.bits)) }
func (self CstDouble)    LongBits() int64 { return int64(self.bits) }
func (self CstByte)      LongBits() int64 { return int64(self) }
func (self CstChar)      LongBits() int64 { return int64(self) }
func (self CstShort)     LongBits() int64 { return int64(self) }
func (self CstKnownNull) LongBits() int64 { return 0 }

func (self CstInteger)   FitsInInt() bool { return true }
func (self CstLong)      FitsInInt() bool { return int64(int32(self)) == int64(self) }
func (self CstFloat)     FitsInInt() bool { return true }
func (self CstDouble)    FitsInInt() bool { return int64(int32(self.bits)) == int64(self.bits) }
func (self CstByte)      FitsInInt() bool { return true }
func (self CstChar)      FitsInInt() bool { return true }
func (self CstShort)     FitsInInt() bool { return true }
func (self CstKnownNull) FitsInInt() bool { return true }

func (self CstBoolean) IntBits() int32 {
    if self {
        return 1
    } else {
        return 0
    }
}

func (self CstBoolean) LongBits() int64 {
    return int64(self.IntBits())
}

func (self CstBoolean) FitsInInt() bool {
    return true
}

func (self CstInteger) FitsIn16Bits() bool {
    return int32(int16(self)) == int32(self)
}

func (self CstInteger) FitsIn8Bits() bool {
    return int32(int8(self)) == int32(self)
}

func (self CstFloat) Value() float32 {
    return math.Float32frombits(self.bits)
}

func (self CstDouble) Value() float64 {
    return math.Float64frombits(self.bits)
}

/** Stringers **/

func (self CstInteger) String() string {
    return fmt.Sprintf("int{0x%08x // %d}", uint32(self), int32(self))
}

func (self CstLong) String() string {
    return fmt.Sprintf("long{0x%016x // %d}", uint64(self), int64(self))
}

func (self CstFloat) String() string {
    return fmt.Sprintf("float{0x%08x // %s}", self.bits, strconv.FormatFloat(float64(self.Value()), 'g', -1, 32))
}

func (self CstDouble) String() string {
    return fmt.Sprintf("double{0x%016x // %s}", self.bits, strconv.FormatFloat(self.Value(), 'g', -1, 64))
}

func (self CstBoolean) String() string {
    return fmt.Sprintf("boolean{%t}", bool(self))
}

func (self CstByte) String() string {
    return fmt.Sprintf("byte{0x%02x // %d}", uint8(self), int8(self))
}

func (self CstChar) String() string {
    return fmt.Sprintf("char{0x%04x // %q}", uint16(self), rune(self))
}

func (self CstShort) String() string {
    return fmt.Sprintf("short{0x%04x // %d}", uint16(self), int16(self))
}

func (self CstString) String() string {
    return "string{" + strconv.Quote(string(self)) + "}"
}

func (self CstKnownNull) String() string {
    return "known-null"
}

func (self CstType) String() string {
    return "type{" + self.Value.String() + "}"
}

func (self CstFieldRef) String() string {
    return fmt.Sprintf("field{%s.%s:%s}", self.Owner, self.Name, self.Field)
}

func (self CstMethodRef) String() string {
    return fmt.Sprintf("method{%s.%s:%s}", self.Owner, self.Name, self.Proto)
}
