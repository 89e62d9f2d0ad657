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
    `strings`

    `github.com/cloudwego/dexssa/internal/rop`
)

// TypeId is the canonical handle of a type within a Unit.
type TypeId struct {
    Name string
    rt   rop.Type
}

func (self *TypeId) RopType() rop.Type {
    return self.rt
}

func (self *TypeId) Constant() rop.CstType {
    return rop.CstType { Value: self.rt }
}

func (self *TypeId) String() string {
    return self.Name
}

// FieldId is the canonical handle of a field within a Unit.
type FieldId struct {
    Owner *TypeId
    Type  *TypeId
    Name  string
}

func (self *FieldId) Constant() rop.CstFieldRef {
    return rop.CstFieldRef {
        Owner : self.Owner.rt,
        Name  : self.Name,
        Field : self.Type.rt,
    }
}

func (self *FieldId) String() string {
    return self.Owner.Name + "." + self.Name
}

// MethodId is the canonical handle of a method within a Unit.
type MethodId struct {
    Owner  *TypeId
    Return *TypeId
    Name   string
    Params []*TypeId
}

func (self *MethodId) IsConstructor() bool {
    return self.Name == "<init>"
}

// Descriptor is the prototype of the method in descriptor form, e.g. "(IJ)V".
func (self *MethodId) Descriptor() string {
    var sb strings.Builder
    sb.WriteByte('(')

    /* parameters */
    for _, p := range self.Params {
        sb.WriteString(p.Name)
    }

    /* return type */
    sb.WriteByte(')')
    sb.WriteString(self.Return.Name)
    return sb.String()
}

// ParamTypes lists the types the method expects in registers, including
// the receiver for non-static methods.
func (self *MethodId) ParamTypes(static bool) rop.TypeList {
    ret := make(rop.TypeList, 0, len(self.Params) + 1)
    if !static {
        ret = append(ret, self.Owner.rt)
    }
    for _, p := range self.Params {
        ret = append(ret, p.rt)
    }
    return ret
}

func (self *MethodId) Constant() rop.CstMethodRef {
    return rop.CstMethodRef {
        Owner  : self.Owner.rt,
        Name   : self.Name,
        Proto  : self.Descriptor(),
        Return : self.Return.rt,
        Params : len(self.Params),
    }
}

func (self *MethodId) String() string {
    return self.Owner.Name + "." + self.Name + self.Descriptor()
}

type _FieldKey struct {
    owner string
    name  string
    ftype string
}

type _MethodKey struct {
    owner string
    name  string
    proto string
}

// Unit interns the types, fields and methods of one compilation run, so
// that repeated lookups of the same entity return the same handle.
type Unit struct {
    types   map[string]*TypeId
    fields  map[_FieldKey]*FieldId
    methods map[_MethodKey]*MethodId

    Void    *TypeId
    Boolean *TypeId
    Byte    *TypeId
    Char    *TypeId
    Short   *TypeId
    Int     *TypeId
    Long    *TypeId
    Float   *TypeId
    Double  *TypeId
    Object  *TypeId
    String  *TypeId
}

func NewUnit() *Unit {
    ret := &Unit {
        types   : make(map[string]*TypeId),
        fields  : make(map[_FieldKey]*FieldId),
        methods : make(map[_MethodKey]*MethodId),
    }

    /* pre-intern the well-known types */
    ret.Void    = ret.Type("V")
    ret.Boolean = ret.Type("Z")
    ret.Byte    = ret.Type("B")
    ret.Char    = ret.Type("C")
    ret.Short   = ret.Type("S")
    ret.Int     = ret.Type("I")
    ret.Long    = ret.Type("J")
    ret.Float   = ret.Type("F")
    ret.Double  = ret.Type("D")
    ret.Object  = ret.Type("Ljava/lang/Object;")
    ret.String  = ret.Type("Ljava/lang/String;")
    return ret
}

// Type returns the handle of a type descriptor, e.g. "I" or "Ljava/lang/String;".
func (self *Unit) Type(desc string) *TypeId {
    if t, ok := self.types[desc]; ok {
        return t
    }

    /* intern a new one */
    t := &TypeId { Name: desc, rt: rop.TypeOf(desc) }
    self.types[desc] = t
    return t
}

// ArrayOf returns the handle of the array type of the given element type.
func (self *Unit) ArrayOf(elem *TypeId) *TypeId {
    return self.Type("[" + elem.Name)
}

func (self *Unit) Field(owner *TypeId, ftype *TypeId, name string) *FieldId {
    key := _FieldKey { owner.Name, name, ftype.Name }
    if f, ok := self.fields[key]; ok {
        return f
    }

    /* intern a new one */
    f := &FieldId { Owner: self.Type(owner.Name), Type: self.Type(ftype.Name), Name: name }
    self.fields[key] = f
    return f
}

func (self *Unit) Method(owner *TypeId, ret *TypeId, name string, params ...*TypeId) *MethodId {
    mt := &MethodId {
        Owner  : self.Type(owner.Name),
        Return : self.Type(ret.Name),
        Name   : name,
        Params : make([]*TypeId, 0, len(params)),
    }

    /* canonicalize all the parameters */
    for _, p := range params {
        mt.Params = append(mt.Params, self.Type(p.Name))
    }

    /* check for interned methods */
    key := _MethodKey { owner.Name, name, mt.Descriptor() }
    if m, ok := self.methods[key]; ok {
        return m
    }

    /* add to the table */
    self.methods[key] = mt
    return mt
}

func (self *Unit) Constructor(owner *TypeId, params ...*TypeId) *MethodId {
    return self.Method(owner, self.Void, "<init>", params...)
}
