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

package advice

import (
    `testing`

    `github.com/cloudwego/dexssa/internal/rop`
    `github.com/stretchr/testify/require`
)

func binop(op rop.RegOp) *rop.Rop {
    return rop.MustRopFor(op, rop.Int, rop.TypeList { rop.Int, rop.Int }, nil)
}

func TestVM_HasConstantOperation(t *testing.T) {
    adv := VM{}
    x := rop.MakeReg(0, rop.Int)
    k := func(v int32) rop.RegisterSpec { return rop.MakeReg(1, rop.CstInteger(v)) }
    require.True(t, adv.HasConstantOperation(binop(rop.OP_add), x, k(32767)))
    require.False(t, adv.HasConstantOperation(binop(rop.OP_add), x, k(32768)))
    require.True(t, adv.HasConstantOperation(binop(rop.OP_div), x, k(-32768)))
    require.True(t, adv.HasConstantOperation(binop(rop.OP_shl), x, k(127)))
    require.False(t, adv.HasConstantOperation(binop(rop.OP_shl), x, k(128)))
    require.True(t, adv.HasConstantOperation(binop(rop.OP_sub), x, k(32768)))
    require.False(t, adv.HasConstantOperation(binop(rop.OP_sub), x, k(-32768)))
    require.True(t, adv.HasConstantOperation(binop(rop.OP_sub), k(5), x))
    require.False(t, adv.HasConstantOperation(binop(rop.OP_add), k(5), x))
    require.False(t, adv.HasConstantOperation(binop(rop.OP_add), x, rop.MakeReg(1, rop.Int)))
    require.False(t, adv.HasConstantOperation(binop(rop.OP_add), rop.MakeReg(0, rop.Long), k(1)))
    require.False(t, adv.HasConstantOperation(rop.MustRopFor(rop.OP_cmpl, rop.Int, rop.TypeList { rop.Long, rop.Long }, nil), x, k(1)))
}

func TestVM_RequiresSourcesInOrder(t *testing.T) {
    adv := VM{}
    x := rop.MakeReg(0, rop.Int)
    y := rop.MakeReg(1, rop.Int)
    require.True(t, adv.RequiresSourcesInOrder(binop(rop.OP_sub), rop.MakeList(x, y)))
    require.False(t, adv.RequiresSourcesInOrder(binop(rop.OP_sub), rop.MakeList(x, y.WithType(rop.CstInteger(1)))))
    require.False(t, adv.RequiresSourcesInOrder(binop(rop.OP_add), rop.MakeList(x, y)))
    require.Equal(t, 16, adv.MaxOptimalRegisterCount())
}

func TestNoLiterals(t *testing.T) {
    adv := NoLiterals{}
    x := rop.MakeReg(0, rop.Int)
    require.False(t, adv.HasConstantOperation(binop(rop.OP_add), x, rop.MakeReg(1, rop.CstInteger(1))))
}
