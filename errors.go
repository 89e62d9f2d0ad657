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
)

const (
    StageLower    = "lower"
    StageConvert  = "convert"
    StageOptimize = "optimize"
)

// CompileError occures when a method body cannot be compiled. Stage is one
// of StageLower, StageConvert or StageOptimize.
type CompileError struct {
    Method string
    Stage  string
    Reason string
}

func (self CompileError) Error() string {
    if self.Method != "" {
        return fmt.Sprintf("CompileError(%s) at %s: %s", self.Method, self.Stage, self.Reason)
    } else {
        return fmt.Sprintf("CompileError at %s: %s", self.Stage, self.Reason)
    }
}
