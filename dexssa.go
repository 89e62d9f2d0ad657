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

package dexssa

import (
    `fmt`

    `github.com/cloudwego/dexssa/internal/code`
    `github.com/cloudwego/dexssa/internal/opts`
    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/cloudwego/dexssa/internal/ssa`
    `github.com/pkg/errors`
    `github.com/tliron/commonlog`
    _ `github.com/tliron/commonlog/simple`
)

var log = commonlog.GetLogger("dexssa")

func init() {
    commonlog.Configure(opts.Verbosity, nil)
}

type (
    Unit     = code.Unit
    Code     = code.Code
    Local    = code.Local
    Label    = code.Label
    TypeId   = code.TypeId
    FieldId  = code.FieldId
    MethodId = code.MethodId
    Method   = ssa.Method
)

type (
    BinaryOp   = code.BinaryOp
    UnaryOp    = code.UnaryOp
    Comparison = code.Comparison
)

const (
    OpAdd  = code.OpAdd
    OpSub  = code.OpSub
    OpMul  = code.OpMul
    OpDiv  = code.OpDiv
    OpRem  = code.OpRem
    OpAnd  = code.OpAnd
    OpOr   = code.OpOr
    OpXor  = code.OpXor
    OpShl  = code.OpShl
    OpShr  = code.OpShr
    OpUshr = code.OpUshr
    OpNot  = code.OpNot
    OpNeg  = code.OpNeg
)

const (
    CmpLt = code.CmpLt
    CmpLe = code.CmpLe
    CmpEq = code.CmpEq
    CmpGe = code.CmpGe
    CmpGt = code.CmpGt
    CmpNe = code.CmpNe
)

// NewUnit creates an empty table of types, fields and methods.
func NewUnit() *Unit {
    return code.NewUnit()
}

// NewCode starts the body of method. Instance methods receive "this" as
// their first parameter.
func NewCode(unit *Unit, method *MethodId, static bool) *Code {
    return code.NewCode(unit, method, static)
}

// Compile lowers the body built with c into basic blocks, converts them
// into SSA form and runs the enabled optimizer passes. A body can only be
// compiled once.
//
// Anything that goes wrong in one of these steps is reported as a
// CompileError, which can be retrieved with errors.As.
func Compile(c *Code, options ...Option) (*Method, error) {
    o := opts.GetDefaultOptions()
    for _, fn := range options {
        fn(&o)
    }
    return compile(c, o)
}

func compile(c *Code, o opts.Options) (ret *Method, err error) {
    var rm *rop.Method
    name := c.Method().String()

    /* lower the labels into basic blocks */
    if err = guard(name, StageLower, func() { rm = c.ToBasicBlocks() }); err != nil {
        return nil, err
    }

    /* convert into SSA form */
    if err = guard(name, StageConvert, func() { ret = ssa.Build(rm, c.ParamWidth(), c.IsStatic()) }); err != nil {
        return nil, err
    }

    /* run the optimizer */
    if err = guard(name, StageOptimize, func() { o.Optimizer().Optimize(ret) }); err != nil {
        return nil, err
    }

    /* all done */
    log.Debugf("compiled %s into %d blocks with %d registers", name, len(ret.Blocks), ret.RegCount)
    return ret, nil
}

func guard(method string, stage string, fn func()) (err error) {
    defer func() {
        if v := recover(); v != nil {
            err = errors.WithStack(CompileError {
                Method : method,
                Stage  : stage,
                Reason : fmt.Sprint(v),
            })
            log.Errorf("%s", err)
        }
    }()
    fn()
    return
}

// SetVerbosity sets the log verbosity from now on, -4 disables logging and
// 2 or more enables debug records.
//
// This value can also be configured with the `DEXSSA_VERBOSITY` environment
// variable.
//
// Returns the old verbosity.
func SetVerbosity(verbosity int) int {
    verbosity, opts.Verbosity = opts.Verbosity, verbosity
    commonlog.Configure(opts.Verbosity, nil)
    return verbosity
}

// LoadConfig reads a TOML configuration file and makes its values the
// defaults from now on. Keys absent from the file keep their values.
func LoadConfig(path string) error {
    o, err := opts.LoadFile(path)
    if err != nil {
        return errors.WithMessage(err, "dexssa")
    }

    /* update the defaults */
    opts.SetDefaults(o)
    commonlog.Configure(o.Verbosity, nil)
    log.Infof("loaded configuration from %s: %s", path, o)
    return nil
}
