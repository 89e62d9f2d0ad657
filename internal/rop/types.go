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
    `strings`
)

type BasicType uint8

const (
    BT_void BasicType = iota
    BT_boolean
    BT_byte
    BT_char
    BT_short
    BT_int
    BT_long
    BT_float
    BT_double
    BT_object
)

func (self BasicType) Char() byte {
    switch self {
        case BT_void    : return 'V'
        case BT_boolean : return 'Z'
        case BT_byte    : return 'B'
        case BT_char    : return 'C'
        case BT_short   : return 'S'
        case BT_int     : return 'I'
        case BT_long    : return 'J'
        case BT_float   : return 'F'
        case BT_double  : return 'D'
        case BT_object  : return 'L'
        default         : panic("invalid basic type")
    }
}

// Frame widens the int-like kinds to int, the way the VM stores them in registers.
func (self BasicType) Frame() BasicType {
    switch self {
        case BT_boolean, BT_byte, BT_char, BT_short : return BT_int
        default                                     : return self
    }
}

// TypeBearer is anything that can describe the type of a register value.
// Constants are type bearers too, which is how discovered constants are
// attached to register operands.
type TypeBearer interface {
    Type() Type
    FrameType() Type
    Basic() BasicType
    IsConstant() bool
}

// Type is a VM value type, identified by its descriptor.
type Type struct {
    desc  string
    basic BasicType
}

var (
    Void      = Type { "V", BT_void }
    Boolean   = Type { "Z", BT_boolean }
    Byte      = Type { "B", BT_byte }
    Char      = Type { "C", BT_char }
    Short     = Type { "S", BT_short }
    Int       = Type { "I", BT_int }
    Long      = Type { "J", BT_long }
    Float     = Type { "F", BT_float }
    Double    = Type { "D", BT_double }
    Object    = Type { "Ljava/lang/Object;", BT_object }
    String    = Type { "Ljava/lang/String;", BT_object }
    Class     = Type { "Ljava/lang/Class;", BT_object }
    KnownNull = Type { "<null>", BT_object }
)

// TypeOf parses a type descriptor.
func TypeOf(desc string) Type {
    switch desc {
        case "V" : return Void
        case "Z" : return Boolean
        case "B" : return Byte
        case "C" : return Char
        case "S" : return Short
        case "I" : return Int
        case "J" : return Long
        case "F" : return Float
        case "D" : return Double
    }

    /* references and arrays */
    if (strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") && len(desc) > 2) || (strings.HasPrefix(desc, "[") && len(desc) > 1) {
        return Type { desc, BT_object }
    } else {
        panic("invalid type descriptor: " + desc)
    }
}

func (self Type) Type() Type {
    return self
}

func (self Type) FrameType() Type {
    if self.basic.Frame() == BT_int {
        return Int
    } else {
        return self
    }
}

func (self Type) Basic() BasicType {
    return self.basic
}

func (self Type) IsConstant() bool {
    return false
}

func (self Type) Descriptor() string {
    return self.desc
}

// Category is the number of register slots a value of this type occupies.
func (self Type) Category() int {
    switch self.basic {
        case BT_void             : return 0
        case BT_long, BT_double  : return 2
        default                  : return 1
    }
}

func (self Type) IsReference() bool {
    return self.basic == BT_object
}

func (self Type) IsIntlike() bool {
    return self.basic.Frame() == BT_int
}

func (self Type) IsArray() bool {
    return strings.HasPrefix(self.desc, "[")
}

// ComponentType returns the element type of an array type.
func (self Type) ComponentType() Type {
    if !self.IsArray() {
        panic("not an array type: " + self.desc)
    } else {
        return TypeOf(self.desc[1:])
    }
}

func (self Type) String() string {
    switch self.basic {
        case BT_void    : return "void"
        case BT_boolean : return "boolean"
        case BT_byte    : return "byte"
        case BT_char    : return "char"
        case BT_short   : return "short"
        case BT_int     : return "int"
        case BT_long    : return "long"
        case BT_float   : return "float"
        case BT_double  : return "double"
    }

    /* reference types */
    if self == KnownNull {
        return "<null>"
    } else if self.IsArray() {
        return self.ComponentType().String() + "[]"
    } else {
        return strings.ReplaceAll(self.desc[1:len(self.desc) - 1], "/", ".")
    }
}

// TypeList is an ordered list of types, usually the source types of an operation.
type TypeList []Type

// WordCount is the number of register slots needed to hold all of the types.
func (self TypeList) WordCount() (n int) {
    for _, t := range self {
        n += t.Category()
    }
    return
}

func (self TypeList) String() string {
    buf := make([]string, 0, len(self))
    for _, t := range self {
        buf = append(buf, t.String())
    }
    return "{" + strings.Join(buf, ", ") + "}"
}

// signature is the frame-type letters of every type in the list.
func (self TypeList) signature() string {
    buf := make([]byte, 0, len(self))
    for _, t := range self {
        buf = append(buf, t.basic.Frame().Char())
    }
    return string(buf)
}
