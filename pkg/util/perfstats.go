// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package util

import (
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// PerfStats records the time and memory allocated by some phase of work (e.g.
// reading listings or applying a patch set), so that it can be logged at the
// end of that phase.
type PerfStats struct {
	phase string
	// Time the phase started
	start time.Time
	// Total allocation and gc events when the phase started
	alloc uint64
	gcs   uint32
}

// NewPerfStats starts recording a given phase.
func NewPerfStats(phase string) *PerfStats {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	return &PerfStats{phase, time.Now(), m.TotalAlloc, m.NumGC}
}

// Log reports the cost of this phase so far at debug level.
func (p *PerfStats) Log() {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	log.Debugf("%s took %0.3fs, allocating %dKb (%d GC events)", p.phase, time.Since(p.start).Seconds(),
		(m.TotalAlloc-p.alloc)/1024, m.NumGC-p.gcs)
}
