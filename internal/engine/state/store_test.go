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

package state

import (
	"context"
	"testing"
)

func TestMemoryStoreLoadCreatesFresh(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	s, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ID != "s1" {
		t.Fatalf("ID = %q", s.ID)
	}
	if s.SentimentScore != 0.5 {
		t.Fatalf("新会话情绪应为中性 0.5，得到 %v", s.SentimentScore)
	}
	if s.TurnCount != 0 || len(s.Messages) != 0 {
		t.Fatal("新会话应为空")
	}
}

func TestMemoryStoreCommitRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s, _ := store.Load(ctx, "s1")
	s.Append(NewUserMessage("你好"))
	s.TurnCount = 1
	s.TaskProgress.MarkDone(TaskProblemStatement)
	s.Emotion("CEO").RelationshipScore = 0.7
	if err := store.Commit(ctx, s); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TurnCount != 1 || len(got.Messages) != 1 {
		t.Fatal("提交的状态未被加载回来")
	}
	if !got.TaskProgress.Done(TaskProblemStatement) {
		t.Fatal("任务进度未持久化")
	}
	if got.Emotion("CEO").RelationshipScore != 0.7 {
		t.Fatal("情绪记录未持久化")
	}
}

// 加载后立即提交不应改变可观察状态
func TestMemoryStoreLoadCommitIdempotent(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s, _ := store.Load(ctx, "s1")
	s.Append(NewUserMessage("hi"))
	s.TurnCount = 1
	_ = store.Commit(ctx, s)

	loaded, _ := store.Load(ctx, "s1")
	_ = store.Commit(ctx, loaded)

	again, _ := store.Load(ctx, "s1")
	if again.TurnCount != 1 || len(again.Messages) != 1 {
		t.Fatal("load→commit 不应改变状态")
	}
}

// 提交后修改本地副本不应污染存储
func TestMemoryStoreCommitIsolation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s, _ := store.Load(ctx, "s1")
	s.Append(NewUserMessage("第一条"))
	_ = store.Commit(ctx, s)

	s.Append(NewUserMessage("提交后追加"))
	s.TaskProgress.MarkDone(TaskKPITable)

	got, _ := store.Load(ctx, "s1")
	if len(got.Messages) != 1 {
		t.Fatalf("存储中消息数 = %d，期望 1", len(got.Messages))
	}
	if got.TaskProgress.Done(TaskKPITable) {
		t.Fatal("提交后的本地修改泄漏进了存储")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	s, _ := store.Load(ctx, "s1")
	s.TurnCount = 3
	_ = store.Commit(ctx, s)
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, _ := store.Load(ctx, "s1")
	if got.TurnCount != 0 {
		t.Fatal("删除后应得到全新会话")
	}
}
