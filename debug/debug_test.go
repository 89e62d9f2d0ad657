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

package debug

import (
	"sync/atomic"
	"testing"

	"github.com/cloudwego/dexssa/internal/ssa"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestGetStats(t *testing.T) {
	old := GetStats()
	atomic.AddUint64(&ssa.MethodCount, 2)
	atomic.AddUint64(&ssa.SkippedCount, 1)
	atomic.AddUint64(&ssa.UpgradeCount, 3)
	ret := GetStats()
	spew.Dump(ret)
	require.Equal(t, old.Optimizer.Methods+2, ret.Optimizer.Methods)
	require.Equal(t, old.Optimizer.Skipped+1, ret.Optimizer.Skipped)
	require.Equal(t, old.Folding.Upgrades+3, ret.Folding.Upgrades)
	require.Equal(t, old.Folding.Constants, ret.Folding.Constants)
}
