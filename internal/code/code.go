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
    `github.com/tliron/commonlog`
)

var log = commonlog.GetLogger("dexssa.code")

// Code builds the body of one method. Calls must be made in program order,
// misuse panics immediately.
type Code struct {
    unit    *Unit
    method  *MethodId
    static  bool
    inited  bool
    done    bool
    this    *Local
    current *Label
    labels  []*Label
    params  []*Local
    locals  []*Local
}

func NewCode(unit *Unit, method *MethodId, static bool) *Code {
    ret := &Code {
        unit   : unit,
        method : method,
        static : static,
    }

    /* the receiver is the first parameter */
    if !static {
        ret.this = newLocal(ret, method.Owner, LocalThis)
        ret.params = append(ret.params, ret.this)
    }

    /* declared parameters */
    for _, p := range method.Params {
        ret.params = append(ret.params, newLocal(ret, p, LocalParam))
    }

    /* the entry label is open from the start */
    ret.current = ret.NewLabel()
    ret.current.marked = true
    return ret
}

func (self *Code) Unit() *Unit {
    return self.unit
}

func (self *Code) Method() *MethodId {
    return self.method
}

func (self *Code) IsStatic() bool {
    return self.static
}

// ParamWidth is the number of register slots taken by the parameters.
func (self *Code) ParamWidth() int {
    return self.method.ParamTypes(self.static).WordCount()
}

/** Locals **/

func (self *Code) NewLocal(t *TypeId) *Local {
    if self.inited {
        panic("Cannot allocate locals after adding instructions")
    }

    /* allocate a new local */
    ret := newLocal(self, t, LocalTemp)
    self.locals = append(self.locals, ret)
    return ret
}

func (self *Code) Parameter(index int, t *TypeId) *Local {
    if self.this != nil {
        index++
    }

    /* check the parameter index */
    if index < 0 || index >= len(self.params) {
        panic(fmt.Sprintf("parameter index out of range: %d", index))
    } else {
        return self.coerce(self.params[index], t)
    }
}

func (self *Code) This(t *TypeId) *Local {
    if self.this == nil {
        panic("static methods cannot access 'this'")
    } else {
        return self.coerce(self.this, t)
    }
}

func (self *Code) coerce(local *Local, t *TypeId) *Local {
    if local.typ != t {
        panic(fmt.Sprintf("requested %s but was %s", t.rt, local.typ.rt))
    } else {
        return local
    }
}

// initializeLocals assigns registers, locals first and parameters last, and
// prepends the instructions that receive the parameters.
func (self *Code) initializeLocals() {
    if self.inited {
        panic("locals already initialized")
    }

    /* locals get the lowest registers */
    reg := 0
    self.inited = true
    for _, v := range self.locals {
        reg += v.initialize(reg)
    }

    /* parameters get the highest registers */
    base := reg
    insns := make([]rop.Insn, 0, len(self.params))

    /* move every parameter into its register */
    for _, v := range self.params {
        idx := rop.CstInteger(reg - base)
        reg += v.initialize(reg)
        res := v.spec
        op := rop.MustRopFor(rop.OP_move_param, v.typ.rt, nil, nil)
        insns = append(insns, rop.NewPlainCstInsn(op, &res, rop.EmptyList, idx))
    }

    /* prepend to the entry label */
    entry := self.labels[0]
    entry.insns = append(insns, entry.insns...)
}

/** Labels **/

func (self *Code) NewLabel() *Label {
    ret := new(Label)
    self.adopt(ret)
    return ret
}

func (self *Code) adopt(label *Label) {
    if label.code == self {
        return
    } else if label.code != nil {
        panic("Cannot adopt label; it belongs to another Code")
    } else {
        label.code = self
        self.labels = append(self.labels, label)
    }
}

// Mark starts appending instructions to label. A block that is still open
// is closed with a jump to label.
func (self *Code) Mark(label *Label) {
    self.adopt(label)

    /* labels can only be marked once */
    if label.marked {
        panic("already marked")
    }

    /* blocks must end with a branch, return or throw */
    label.marked = true
    if self.current != nil {
        self.Jump(label)
    }

    /* switch to the new label */
    self.current = label
}

func (self *Code) Jump(target *Label) {
    self.adopt(target)
    self.addBranch(rop.NewPlainInsn(rop.MustRopFor(rop.OP_goto, nil, nil, nil), nil, rop.EmptyList), target)
}

/** Instruction Emission **/

func (self *Code) addInsn(insn rop.Insn) {
    self.addBranch(insn, nil)
}

func (self *Code) addBranch(insn rop.Insn, branch *Label) {
    if self.done {
        panic("code was already lowered to basic blocks")
    } else if self.current == nil || !self.current.marked {
        panic("no current label")
    }

    /* locals must be settled before any instruction */
    if !self.inited {
        self.initializeLocals()
    }

    /* add to the current label */
    cur := self.current
    cur.insns = append(cur.insns, insn)

    /* update the label graph by branching kind */
    switch insn.Opcode().Branch {
        case rop.BRANCH_none: {
            if branch != nil {
                panic(fmt.Sprintf("unexpected branch: %s", insn))
            }
        }

        /* returns close the block */
        case rop.BRANCH_return: {
            if branch != nil {
                panic(fmt.Sprintf("unexpected branch: %s", insn))
            } else {
                self.current = nil
            }
        }

        /* so do unconditional branches */
        case rop.BRANCH_goto: {
            if branch == nil {
                panic("branch == nil")
            } else {
                cur.primary = branch
                self.current = nil
            }
        }

        /* conditional branches continue in a new label */
        case rop.BRANCH_if: {
            if branch == nil {
                panic("branch == nil")
            } else {
                self.splitCurrentLabel(branch)
            }
        }

        /* so does every instruction that may throw */
        case rop.BRANCH_throw: {
            if branch != nil {
                panic(fmt.Sprintf("unexpected branch: %s", insn))
            } else {
                self.splitCurrentLabel(nil)
            }
        }

        /* no switches in this builder */
        default: {
            panic(fmt.Sprintf("unsupported branching instruction: %s", insn))
        }
    }
}

func (self *Code) splitCurrentLabel(alternate *Label) {
    next := self.NewLabel()
    next.marked = true
    self.current.primary = next
    self.current.alternate = alternate
    self.current = next
}

// moveResult receives the result of a throwing instruction. Results of
// invokes are real results, others are pseudo results.
func (self *Code) moveResult(target *Local, pseudo bool) {
    var op *rop.Rop
    var res rop.RegisterSpec

    /* select the opcode */
    if res = target.Spec(); pseudo {
        op = rop.MustRopFor(rop.OP_move_result_pseudo, target.typ.rt, nil, nil)
    } else {
        op = rop.MustRopFor(rop.OP_move_result, target.typ.rt, nil, nil)
    }

    /* add the instruction */
    self.addInsn(rop.NewPlainInsn(op, &res, rop.EmptyList))
}

// emit adds an instruction that may or may not throw, depending on the
// operation. Results of throwing operations come through a pseudo move.
func (self *Code) emit(op *rop.Rop, target *Local, sources rop.RegisterSpecList, cst rop.Constant) {
    if op.Branch == rop.BRANCH_none {
        var res *rop.RegisterSpec
        if target != nil {
            rs := target.Spec()
            res = &rs
        }
        if cst == nil {
            self.addInsn(rop.NewPlainInsn(op, res, sources))
        } else {
            self.addInsn(rop.NewPlainCstInsn(op, res, sources, cst))
        }
    } else {
        if cst == nil {
            self.addInsn(rop.NewThrowingInsn(op, sources))
        } else {
            self.addInsn(rop.NewThrowingCstInsn(op, sources, cst))
        }
        if target != nil {
            self.moveResult(target, true)
        }
    }
}

func specs(locals ...*Local) rop.RegisterSpecList {
    ret := make(rop.RegisterSpecList, 0, len(locals))
    for _, v := range locals {
        ret = append(ret, v.Spec())
    }
    return ret
}

// LoadConstant copies a constant into target. The value may be any Go
// scalar, a string, a *TypeId, a rop constant, or nil for null.
func (self *Code) LoadConstant(target *Local, value interface{}) {
    dst := target.typ.rt
    cst := coerceConstant(dst, ConstantOf(value))
    checkConstant(dst, cst)

    /* null has its own type */
    if _, ok := cst.(rop.CstKnownNull); ok {
        dst = rop.KnownNull
    }

    /* literal loads record the value in the result type */
    op := rop.MustRopFor(rop.OP_const, dst, nil, cst)
    if _, ok := cst.(rop.LiteralBits); !ok || op.Branch != rop.BRANCH_none {
        self.emit(op, target, rop.EmptyList, cst)
    } else {
        res := target.Spec().WithType(cst)
        self.addInsn(rop.NewPlainCstInsn(op, &res, rop.EmptyList, cst))
    }
}

func (self *Code) Move(target *Local, source *Local) {
    op := rop.MustRopFor(rop.OP_move, source.typ.rt, rop.TypeList { source.typ.rt }, nil)
    self.emit(op, target, specs(source), nil)
}

// Op computes target = a op b.
func (self *Code) Op(op BinaryOp, target *Local, a *Local, b *Local) {
    rt := rop.MustRopFor(op.Opcode(), target.typ.rt, rop.TypeList { a.typ.rt, b.typ.rt }, nil)
    self.emit(rt, target, specs(a, b), nil)
}

// Unary computes target = op source.
func (self *Code) Unary(op UnaryOp, target *Local, source *Local) {
    rt := rop.MustRopFor(op.Opcode(), target.typ.rt, rop.TypeList { source.typ.rt }, nil)
    self.emit(rt, target, specs(source), nil)
}

// Compare branches to trueLabel if a cmp b holds, and continues with the
// next instruction otherwise.
func (self *Code) Compare(cmp Comparison, trueLabel *Label, a *Local, b *Local) {
    self.adopt(trueLabel)
    op := rop.MustRopFor(cmp.Opcode(), nil, rop.TypeList { a.typ.rt, b.typ.rt }, nil)
    self.addBranch(rop.NewPlainInsn(op, nil, specs(a, b)), trueLabel)
}

// CompareZ branches to trueLabel if a cmp 0 (or null) holds.
func (self *Code) CompareZ(cmp Comparison, trueLabel *Label, a *Local) {
    self.adopt(trueLabel)
    op := rop.MustRopFor(cmp.Opcode(), nil, rop.TypeList { a.typ.rt }, nil)
    self.addBranch(rop.NewPlainInsn(op, nil, specs(a)), trueLabel)
}

// CompareLongs stores -1, 0 or 1 into target depending on how a compares to b.
func (self *Code) CompareLongs(target *Local, a *Local, b *Local) {
    op := rop.MustRopFor(rop.OP_cmpl, target.typ.rt, rop.TypeList { a.typ.rt, b.typ.rt }, nil)
    self.emit(op, target, specs(a, b), nil)
}

// CompareFloatingPoint is like CompareLongs, nanValue (1 or -1) is stored when
// either operand is NaN.
func (self *Code) CompareFloatingPoint(target *Local, a *Local, b *Local, nanValue int) {
    var opc rop.RegOp
    switch nanValue {
        case  1 : opc = rop.OP_cmpg
        case -1 : opc = rop.OP_cmpl
        default : panic(fmt.Sprintf("expected nan value to be 1 or -1 but was %d", nanValue))
    }

    /* add the instruction */
    op := rop.MustRopFor(opc, target.typ.rt, rop.TypeList { a.typ.rt, b.typ.rt }, nil)
    self.emit(op, target, specs(a, b), nil)
}

// Cast converts between primitive types, or checks a reference cast.
func (self *Code) Cast(target *Local, source *Local) {
    if source.typ.rt.IsReference() {
        op := rop.MustRopFor(rop.OP_check_cast, target.typ.rt, rop.TypeList { source.typ.rt }, nil)
        self.emit(op, target, specs(source), target.typ.Constant())
        return
    }

    /* int narrowing has dedicated opcodes */
    opc := rop.OP_conv
    if source.typ.rt.Basic() == rop.BT_int {
        switch target.typ.rt.Basic() {
            case rop.BT_byte  : opc = rop.OP_to_byte
            case rop.BT_char  : opc = rop.OP_to_char
            case rop.BT_short : opc = rop.OP_to_short
        }
    }

    /* add the instruction */
    op := rop.MustRopFor(opc, target.typ.rt, rop.TypeList { source.typ.rt }, nil)
    self.emit(op, target, specs(source), nil)
}

func (self *Code) InstanceOfType(target *Local, source *Local, t *TypeId) {
    op := rop.MustRopFor(rop.OP_instance_of, target.typ.rt, rop.TypeList { source.typ.rt }, nil)
    self.emit(op, target, specs(source), t.Constant())
}

/** Fields **/

func (self *Code) IGet(field *FieldId, target *Local, instance *Local) {
    op := rop.MustRopFor(rop.OP_get_field, target.typ.rt, rop.TypeList { instance.typ.rt }, nil)
    self.emit(op, target, specs(instance), field.Constant())
}

func (self *Code) IPut(field *FieldId, instance *Local, source *Local) {
    op := rop.MustRopFor(rop.OP_put_field, nil, rop.TypeList { source.typ.rt, instance.typ.rt }, nil)
    self.emit(op, nil, specs(source, instance), field.Constant())
}

func (self *Code) SGet(field *FieldId, target *Local) {
    op := rop.MustRopFor(rop.OP_get_static, target.typ.rt, nil, nil)
    self.emit(op, target, rop.EmptyList, field.Constant())
}

func (self *Code) SPut(field *FieldId, source *Local) {
    op := rop.MustRopFor(rop.OP_put_static, nil, rop.TypeList { source.typ.rt }, nil)
    self.emit(op, nil, specs(source), field.Constant())
}

/** Invokes **/

func (self *Code) NewInstance(target *Local, ctor *MethodId, args ...*Local) {
    if target == nil {
        panic("target == nil")
    }

    /* allocate, then run the constructor over the new instance */
    op := rop.MustRopFor(rop.OP_new_instance, ctor.Owner.rt, nil, nil)
    self.emit(op, target, rop.EmptyList, ctor.Owner.Constant())
    self.InvokeDirect(ctor, nil, target, args...)
}

func (self *Code) InvokeStatic(method *MethodId, target *Local, args ...*Local) {
    self.invoke(rop.OP_invoke_static, method, target, nil, args)
}

func (self *Code) InvokeVirtual(method *MethodId, target *Local, instance *Local, args ...*Local) {
    self.invoke(rop.OP_invoke_virtual, method, target, instance, args)
}

func (self *Code) InvokeDirect(method *MethodId, target *Local, instance *Local, args ...*Local) {
    self.invoke(rop.OP_invoke_direct, method, target, instance, args)
}

func (self *Code) InvokeSuper(method *MethodId, target *Local, instance *Local, args ...*Local) {
    self.invoke(rop.OP_invoke_super, method, target, instance, args)
}

func (self *Code) InvokeInterface(method *MethodId, target *Local, instance *Local, args ...*Local) {
    self.invoke(rop.OP_invoke_interface, method, target, instance, args)
}

func (self *Code) invoke(opc rop.RegOp, method *MethodId, target *Local, instance *Local, args []*Local) {
    if len(args) != len(method.Params) {
        panic(fmt.Sprintf("%s expects %d arguments but was %d", method, len(method.Params), len(args)))
    }

    /* the receiver goes first */
    srcs := args
    if instance != nil {
        srcs = append([]*Local { instance }, args...)
    }

    /* add the invoke, the result comes through a real move-result */
    sources := specs(srcs...)
    op := rop.MustRopFor(opc, nil, sources.Types(), nil)
    self.addInsn(rop.NewThrowingCstInsn(op, sources, method.Constant()))

    /* receive the result if needed */
    if target != nil {
        self.moveResult(target, false)
    }
}

/** Arrays **/

func (self *Code) NewArray(target *Local, length *Local) {
    op := rop.MustRopFor(rop.OP_new_array, target.typ.rt, rop.TypeList { length.typ.rt }, nil)
    self.emit(op, target, specs(length), target.typ.Constant())
}

func (self *Code) ArrayLength(target *Local, array *Local) {
    op := rop.MustRopFor(rop.OP_array_length, target.typ.rt, rop.TypeList { array.typ.rt }, nil)
    self.emit(op, target, specs(array), nil)
}

func (self *Code) AGet(target *Local, array *Local, index *Local) {
    op := rop.MustRopFor(rop.OP_aget, target.typ.rt, rop.TypeList { array.typ.rt, index.typ.rt }, nil)
    self.emit(op, target, specs(array, index), nil)
}

func (self *Code) APut(array *Local, index *Local, source *Local) {
    op := rop.MustRopFor(rop.OP_aput, nil, rop.TypeList { source.typ.rt, array.typ.rt, index.typ.rt }, nil)
    self.emit(op, nil, specs(source, array, index), nil)
}

/** Control Flow **/

func (self *Code) ThrowValue(value *Local) {
    op := rop.MustRopFor(rop.OP_throw, nil, rop.TypeList { value.typ.rt }, nil)
    self.addInsn(rop.NewThrowingInsn(op, specs(value)))
}

func (self *Code) ReturnVoid() {
    if self.method.Return != self.unit.Void {
        panic(fmt.Sprintf("declared %s but returned void", self.method.Return.rt))
    } else {
        self.addInsn(rop.NewPlainInsn(rop.MustRopFor(rop.OP_return, nil, nil, nil), nil, rop.EmptyList))
    }
}

func (self *Code) ReturnValue(result *Local) {
    if result.typ != self.method.Return {
        panic(fmt.Sprintf("declared %s but returned %s", self.method.Return.rt, result.typ.rt))
    } else {
        self.addInsn(rop.NewPlainInsn(rop.MustRopFor(rop.OP_return, nil, rop.TypeList { result.typ.rt }, nil), nil, specs(result)))
    }
}

/** Lowering **/

// ToBasicBlocks lowers the label graph into basic blocks. Labels without
// instructions are dropped, the others are numbered in allocation order.
func (self *Code) ToBasicBlocks() *rop.Method {
    if self.done {
        panic("code was already lowered to basic blocks")
    }

    /* make sure every local has a register */
    if !self.inited {
        self.initializeLocals()
    }

    /* no more instructions from now on */
    self.done = true
    self.cleanUpLabels()

    /* must have at least one block */
    if len(self.labels) == 0 {
        panic("method has no instructions: " + self.method.String())
    }

    /* convert every label */
    ret := make(rop.BasicBlockList, 0, len(self.labels))
    for _, v := range self.labels {
        ret = append(ret, v.toBasicBlock())
    }

    /* build the method */
    log.Debugf("lowered %s into %d blocks", self.method, len(ret))
    return &rop.Method { Blocks: ret, FirstLabel: self.labels[0].id }
}

func (self *Code) cleanUpLabels() {
    id := 0
    buf := self.labels[:0]

    /* remove all the empty labels */
    for _, v := range self.labels {
        if !v.isEmpty() {
            v.id = id
            buf = append(buf, v)
            id++
        }
    }

    /* compact and verify the remaining ones */
    self.labels = buf
    for _, v := range self.labels {
        v.compact()
        v.verify()
    }
}
