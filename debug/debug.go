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

	"github.com/cloudwego/dexssa/internal/ssa"
)

// A Stats records statistics about the optimizer.
type Stats struct {
	Optimizer OptimizerStats
	Folding   FoldingStats
}

// An OptimizerStats records how many methods went through the optimizer.
type OptimizerStats struct {
	Methods int
	Skipped int
}

// A FoldingStats records what the passes changed.
type FoldingStats struct {
	Constants int
	Rewrites  int
	Upgrades  int
}

// GetStats returns statistics of the optimizer.
func GetStats() Stats {
	return Stats{
		Optimizer: OptimizerStats{
			Methods: int(atomic.LoadUint64(&ssa.MethodCount)),
			Skipped: int(atomic.LoadUint64(&ssa.SkippedCount)),
		},
		Folding: FoldingStats{
			Constants: int(atomic.LoadUint64(&ssa.ConstantCount)),
			Rewrites:  int(atomic.LoadUint64(&ssa.RewriteCount)),
			Upgrades:  int(atomic.LoadUint64(&ssa.UpgradeCount)),
		},
	}
}
