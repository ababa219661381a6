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

package director

import "strings"

// negativeSignals 用户受挫的信号词
var negativeSignals = []string{
	"i don't know", "confused", "help", "stuck", "what do you mean",
	"i'm lost", "no idea", "unclear", "don't understand", "??",
}

// positiveSignals 用户自信推进的信号词
var positiveSignals = []string{
	"great", "thanks", "i think", "my plan is", "here's my proposal",
	"i propose", "let me try", "i'll create", "makes sense",
}

// DetectSentiment 基于信号词的启发式情绪分析。
// 负面信号多则下调 0.15，正面信号多则上调 0.1，结果落在 [0,1]
func DetectSentiment(current float64, userMessage string) float64 {
	msg := strings.ToLower(userMessage)

	negCount := 0
	for _, s := range negativeSignals {
		if strings.Contains(msg, s) {
			negCount++
		}
	}
	posCount := 0
	for _, s := range positiveSignals {
		if strings.Contains(msg, s) {
			posCount++
		}
	}

	switch {
	case negCount > posCount:
		if current-0.15 < 0 {
			return 0
		}
		return current - 0.15
	case posCount > negCount:
		if current+0.1 > 1 {
			return 1
		}
		return current + 0.1
	default:
		return current
	}
}
