// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import (
	"context"
	"testing"
)

func newTestIndex(t *testing.T, s *MemoryStore) {
	t.Helper()
	if err := s.Create(context.Background(), &Index{Name: "test", Dimension: 3}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestMemoryStoreSearchOrdering(t *testing.T) {
	s := NewMemoryStore()
	newTestIndex(t, s)
	ctx := context.Background()

	err := s.Add(ctx, "test", []*Vector{
		{ID: "a", Values: []float64{1, 0, 0}, Content: "正交"},
		{ID: "b", Values: []float64{0.9, 0.1, 0}, Content: "接近"},
		{ID: "c", Values: []float64{0, 1, 0}, Content: "无关"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := s.Search(ctx, "test", []float64{1, 0, 0}, &SearchOptions{TopK: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("结果数 = %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Fatalf("排序错误: %s, %s", results[0].ID, results[1].ID)
	}
}

func TestMemoryStoreMetadataFilter(t *testing.T) {
	s := NewMemoryStore()
	newTestIndex(t, s)
	ctx := context.Background()

	_ = s.Add(ctx, "test", []*Vector{
		{ID: "a", Values: []float64{1, 0, 0}, Metadata: map[string]string{"responder": "CEO"}},
		{ID: "b", Values: []float64{1, 0, 0}, Metadata: map[string]string{"responder": "CHRO"}},
	})

	results, err := s.Search(ctx, "test", []float64{1, 0, 0}, &SearchOptions{
		TopK:   10,
		Filter: map[string]string{"responder": "CEO"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("过滤结果错误: %+v", results)
	}
}

func TestMemoryStoreThreshold(t *testing.T) {
	s := NewMemoryStore()
	newTestIndex(t, s)
	ctx := context.Background()

	_ = s.Add(ctx, "test", []*Vector{
		{ID: "far", Values: []float64{0, 1, 0}},
	})

	results, err := s.Search(ctx, "test", []float64{1, 0, 0}, &SearchOptions{TopK: 10, Threshold: 0.5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("低于阈值的结果应被过滤: %+v", results)
	}
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	s := NewMemoryStore()
	newTestIndex(t, s)
	ctx := context.Background()

	if err := s.Add(ctx, "test", []*Vector{{ID: "x", Values: []float64{1, 0}}}); err == nil {
		t.Fatal("维度不匹配应报错")
	}
	if _, err := s.Search(ctx, "test", []float64{1, 0}, nil); err == nil {
		t.Fatal("查询维度不匹配应报错")
	}
}

func TestMemoryStoreCreateIdempotent(t *testing.T) {
	s := NewMemoryStore()
	newTestIndex(t, s)
	if err := s.Create(context.Background(), &Index{Name: "test", Dimension: 3}); err != nil {
		t.Fatalf("重复创建应幂等: %v", err)
	}
}
