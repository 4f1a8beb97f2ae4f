// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// vecbench runs append/insert/erase workloads against a Vector and
// reports pool accounting, mostly useful to eyeball allocation
// behavior under different growth patterns.
package main

import (
	"flag"
	"time"

	"github.com/matrixorigin/rawvec/pkg/common/mpool"
	"github.com/matrixorigin/rawvec/pkg/container/vector"
	"github.com/matrixorigin/rawvec/pkg/logutil"
	"go.uber.org/zap"
)

var (
	appendN  = flag.Int("append", 1_000_000, "number of elements to append")
	insertN  = flag.Int("insert", 10_000, "number of mid-sequence inserts")
	eraseN   = flag.Int("erase", 10_000, "number of mid-sequence erases")
	poolCap  = flag.Int64("pool-cap", 0, "pool byte budget, 0 for unbounded")
	reserved = flag.Bool("reserve", false, "pre-reserve full capacity before appending")
)

func main() {
	flag.Parse()

	mp, err := mpool.New("vecbench", *poolCap)
	if err != nil {
		logutil.Fatal("create pool", zap.Error(err))
	}
	defer mpool.DeleteMPool(mp)

	v := vector.New[int64]()
	defer v.Free()

	start := time.Now()
	if *reserved {
		if err := v.Reserve(*appendN, mp); err != nil {
			logutil.Fatal("reserve", zap.Error(err))
		}
	}
	for i := 0; i < *appendN; i++ {
		if err := v.Append(int64(i), mp); err != nil {
			logutil.Fatal("append", zap.Error(err), zap.Int("i", i))
		}
	}
	logutil.Info("append done",
		zap.Int("n", *appendN),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("capacity", v.Capacity()),
		zap.Int64("allocs", mp.Stats().NumAlloc.Load()))

	start = time.Now()
	for i := 0; i < *insertN; i++ {
		if _, err := v.Insert(v.Length()/2, int64(i), mp); err != nil {
			logutil.Fatal("insert", zap.Error(err), zap.Int("i", i))
		}
	}
	logutil.Info("insert done",
		zap.Int("n", *insertN),
		zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	for i := 0; i < *eraseN && v.Length() > 0; i++ {
		if _, err := v.Erase(v.Length() / 2); err != nil {
			logutil.Fatal("erase", zap.Error(err), zap.Int("i", i))
		}
	}
	logutil.Info("erase done",
		zap.Int("n", *eraseN),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("length", v.Length()))

	logutil.Info("pool report", zap.String("usage", mpool.ReportMemUsage("vecbench")))
}
