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
    `os`
    `path/filepath`
    `testing`

    `github.com/cloudwego/dexssa/internal/opts`
    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/cloudwego/dexssa/internal/ssa`
    `github.com/pkg/errors`
    `github.com/stretchr/testify/require`
)

func newSum(x int, y int) *Code {
    u := NewUnit()
    c := NewCode(u, u.Method(u.Type("LSum;"), u.Int, "sum"), true)
    a := c.NewLocal(u.Int)
    b := c.NewLocal(u.Int)
    r := c.NewLocal(u.Int)
    c.LoadConstant(a, x)
    c.LoadConstant(b, y)
    c.Op(OpAdd, r, a, b)
    c.ReturnValue(r)
    return c
}

func returnedBy(t *testing.T, m *Method) *ssa.NormalInsn {
    ret := m.Blocks[m.Entry].LastInsn()
    require.Len(t, ret.Sources(), 1)
    return m.DefinitionOf(ret.Sources()[0].Reg()).(*ssa.NormalInsn)
}

func TestCompile_ConstantFolding(t *testing.T) {
    m, err := Compile(newSum(3, 4))
    require.NoError(t, err)
    t.Log("Compiled:\n" + m.String())

    /* the sum is a constant load */
    def := returnedBy(t, m)
    cst, ok := def.Constant()
    require.True(t, ok)
    require.Equal(t, rop.OP_const, def.Opcode().Opcode)
    require.Equal(t, rop.CstInteger(7), cst)
}

func TestCompile_Steps(t *testing.T) {
    m, err := Compile(newSum(3, 4), WithSteps(StepNone))
    require.NoError(t, err)
    require.Equal(t, "add-int", returnedBy(t, m).Opcode().Nickname)

    /* literals only */
    m, err = Compile(newSum(3, 4), WithoutSteps(StepSCCP))
    require.NoError(t, err)
    require.Equal(t, "add-const-int", returnedBy(t, m).Opcode().Nickname)

    /* no literal forms at all */
    m, err = Compile(newSum(3, 4), WithoutSteps(StepSCCP), WithAdvice(NoLiteralsAdvice))
    require.NoError(t, err)
    require.Equal(t, "add-int", returnedBy(t, m).Opcode().Nickname)
}

func TestCompile_MaxOptimizeBlocks(t *testing.T) {
    u := NewUnit()
    c := NewCode(u, u.Method(u.Type("LAbs;"), u.Int, "abs", u.Int), true)
    x := c.Parameter(0, u.Int)
    r := c.NewLocal(u.Int)
    pos := c.NewLabel()
    c.Move(r, x)
    c.CompareZ(CmpGe, pos, x)
    c.Unary(OpNeg, r, x)
    c.Mark(pos)
    c.ReturnValue(r)

    /* the body has more than one block */
    m, err := Compile(c, WithMaxOptimizeBlocks(1))
    require.NoError(t, err)
    require.Greater(t, len(m.Blocks), 1)
}

func TestCompile_Errors(t *testing.T) {
    var ce CompileError
    u := NewUnit()

    /* nothing to compile */
    c := NewCode(u, u.Method(u.Type("LEmpty;"), u.Void, "nothing"), true)
    _, err := Compile(c)
    require.Error(t, err)
    require.True(t, errors.As(err, &ce))
    require.Equal(t, StageLower, ce.Stage)
    require.Contains(t, ce.Method, "nothing")
    require.IsType(t, CompileError{}, errors.Cause(err))

    /* compiling twice */
    c = newSum(1, 2)
    _, err = Compile(c)
    require.NoError(t, err)
    _, err = Compile(c)
    require.True(t, errors.As(err, &ce))
    require.Equal(t, StageLower, ce.Stage)
    require.Contains(t, err.Error(), "already lowered")
}

func TestOptions_Panics(t *testing.T) {
    require.Panics(t, func() { WithMaxOptimizeBlocks(-1) })
    require.Panics(t, func() { WithAdvice(nil) })
    require.Panics(t, func() { WithSteps(Steps(0x100)) })
    require.NotPanics(t, func() { WithSteps(StepAll) })
}

func TestSetDefaults(t *testing.T) {
    old := SetSteps(StepSCCP)
    defer SetSteps(old)
    oldBlocks := SetMaxOptimizeBlocks(10)
    defer SetMaxOptimizeBlocks(oldBlocks)

    /* new compilations follow the defaults */
    o := opts.GetDefaultOptions()
    require.Equal(t, StepSCCP, o.Steps)
    require.Equal(t, 10, o.MaxOptimizeBlocks)

    /* SCCP alone keeps the add */
    m, err := Compile(newSum(3, 4))
    require.NoError(t, err)
    def := returnedBy(t, m)
    require.Equal(t, "add-int", def.Opcode().Nickname)
    require.Equal(t, rop.CstInteger(7), def.Result().TypeBearer())
}

func TestSetVerbosity(t *testing.T) {
    old := SetVerbosity(2)
    require.Equal(t, 2, SetVerbosity(old))
}

func TestLoadConfig(t *testing.T) {
    old := opts.GetDefaultOptions()
    defer opts.SetDefaults(old)

    /* write the file */
    path := filepath.Join(t.TempDir(), "dexssa.toml")
    require.NoError(t, os.WriteFile(path, []byte("[optimizer]\nsteps = [\"literal-upgrade\"]\nmax-optimize-blocks = 64\n"), 0644))
    require.NoError(t, LoadConfig(path))

    /* the defaults changed */
    o := opts.GetDefaultOptions()
    require.Equal(t, StepLiteralUpgrade, o.Steps)
    require.Equal(t, 64, o.MaxOptimizeBlocks)

    /* broken files leave them alone */
    require.NoError(t, os.WriteFile(path, []byte("[optimizer]\nsteps = [\"dce\"]\n"), 0644))
    err := LoadConfig(path)
    require.Error(t, err)
    require.Contains(t, err.Error(), "dexssa")
    require.Equal(t, StepLiteralUpgrade, opts.GetDefaultOptions().Steps)
}
