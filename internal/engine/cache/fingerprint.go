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

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"coworker-engine/internal/engine/state"
)

// Normalize 缓存键文本归一化：小写、去首尾空白、压缩连续空白
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
}

// bucket 将 [0,1] 值离散到 5 档，粗粒度足以让小波动不撕裂缓存键
func bucket(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	b := int(v * 5)
	if b == 5 {
		b = 4
	}
	return b
}

// Fingerprint 会话状态指纹：任务进度位集 + 关系分档位 + 情绪档位。
// 作为缓存键的一部分，相关状态变化后旧条目自动不可达，无需显式失效
func Fingerprint(progress state.Progress, relationshipScore, sentimentScore float64) string {
	return fmt.Sprintf("%x-%d-%d", progress.Bitset(), bucket(relationshipScore), bucket(sentimentScore))
}

// hashKey 由 (角色, 归一化消息, 指纹) 生成 L1 缓存键
func hashKey(responder, message, fingerprint string) string {
	sum := sha256.Sum256([]byte(responder + ":" + Normalize(message) + ":" + fingerprint))
	return hex.EncodeToString(sum[:])[:16]
}
