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

// Package safety 在路由前对用户消息做安全门禁：
// 越狱检测、违禁内容、离题内容、角色一致性保护与会话级限流。
// 拦截是正常的终局而非错误，但必须记录触发原因供审计
package safety

import (
	"regexp"
	"strings"

	"coworker-engine/pkg/config"
	"coworker-engine/pkg/log"
	"coworker-engine/pkg/metrics"
)

// 拦截原因
const (
	ReasonJailbreak      = "jailbreak"
	ReasonBlockedContent = "blocked_content"
	ReasonOffTopic       = "off_topic"
	ReasonCharacterBreak = "character_break"
	ReasonTooLong        = "message_too_long"
	ReasonEmpty          = "empty_message"
	ReasonRateLimited    = "rate_limited"
)

var jailbreakPatterns = compileAll(
	`ignore (all )?(previous|prior|above) (instructions|prompts|rules)`,
	`disregard (your |the )?(system|initial) (prompt|instructions)`,
	`forget (everything|what|all)`,
	`you are (now|no longer)`,
	`pretend (to be|you are|you're)`,
	`roleplay as`,
	`(dan|developer|god|sudo) mode`,
	`jailbreak`,
	`do anything now`,
	`system prompt`,
	`what are your instructions`,
	`reveal your (prompt|instructions|rules|constraints)`,
	`bypass (your |the )?(safety|filter|guardrail|restriction)`,
	`disable (safety|filter|guardrail)`,
	`eval\(|exec\(`,
)

var blockedContentPatterns = compileAll(
	`\b(gambl(e|ing)|wager)\b`,
	`\b(violen(ce|t)|kill|murder|weapon|gun|bomb|terror)\b`,
	`\b(sex(ual)?|porn|nude|nsfw|explicit)\b`,
	`\b(hack|exploit|inject|xss|sql.injection|malware|virus)\b`,
	`\b(racist|sexist|homophobic|slur)\b`,
	`\b(suicide|self.harm|kill (myself|yourself))\b`,
)

var offTopicPatterns = compileAll(
	`\b(cryptocurrency|bitcoin|stocks|forex|trading)\b`,
	`\b(recipe|cooking|weather forecast)\b`,
	`\b(write (me )?(a |an )?(poem|song|story|novel|essay|code|script|program|function|algorithm))\b`,
	`\b(homework|math problem|calculus|physics)\b`,
	`\b(dating|relationship advice)\b`,
	`\b(political|election|vote for)\b`,
	`\b(sorting algorithm|binary search|linked list|fibonacci|factorial|bubble sort)\b`,
)

var characterBreakPatterns = compileAll(
	`stop (being|acting like) (the |a )?(ceo|chro|manager)`,
	`talk like a normal (chatbot|ai|assistant)`,
	`drop the (act|character|roleplay)`,
	`stop pretending`,
	`are you (chatgpt|gpt|claude|gemini|llama|anthropic)`,
	`what (model|ai|llm) are you`,
	`who (made|created|programmed|trained) you`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Verdict 门禁判定结果
type Verdict struct {
	Allow  bool
	Reason string // Allow 为假时的拦截原因
}

// Gate 安全门禁
type Gate struct {
	maxMessageLength int
	blockedTopics    []string
	limiter          *SessionLimiter
	logger           *log.Logger
}

// NewGate 创建安全门禁；阈值非法时回退默认（长度 2000）
func NewGate(cfg config.SafetyConfig, logger *log.Logger) *Gate {
	maxLen := cfg.MaxMessageLength
	if maxLen <= 0 {
		maxLen = 2000
	}
	topics := make([]string, len(cfg.BlockedTopics))
	for i, t := range cfg.BlockedTopics {
		topics[i] = strings.ToLower(t)
	}
	return &Gate{
		maxMessageLength: maxLen,
		blockedTopics:    topics,
		limiter:          NewSessionLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:           logger.WithComponent("safety"),
	}
}

// Classify 判定用户消息；拦截时记录原因
func (g *Gate) Classify(sessionID, message string) Verdict {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return g.block(sessionID, ReasonEmpty, message)
	}
	if len(message) > g.maxMessageLength {
		return g.block(sessionID, ReasonTooLong, message)
	}
	if !g.limiter.Allow(sessionID) {
		return g.block(sessionID, ReasonRateLimited, message)
	}

	if matchAny(jailbreakPatterns, message) {
		return g.block(sessionID, ReasonJailbreak, message)
	}
	if matchAny(blockedContentPatterns, message) {
		return g.block(sessionID, ReasonBlockedContent, message)
	}
	if matchAny(offTopicPatterns, message) {
		return g.block(sessionID, ReasonOffTopic, message)
	}
	if matchAny(characterBreakPatterns, message) {
		return g.block(sessionID, ReasonCharacterBreak, message)
	}

	lower := strings.ToLower(message)
	for _, topic := range g.blockedTopics {
		if topic != "" && strings.Contains(lower, topic) {
			return g.block(sessionID, ReasonBlockedContent, message)
		}
	}

	return Verdict{Allow: true}
}

func (g *Gate) block(sessionID, reason, message string) Verdict {
	preview := message
	if len(preview) > 50 {
		preview = preview[:50]
	}
	g.logger.Warn("安全门禁拦截", "session_id", sessionID, "reason", reason, "preview", preview)
	metrics.SafetyBlockTotal.WithLabelValues(reason).Inc()
	return Verdict{Allow: false, Reason: reason}
}

func matchAny(patterns []*regexp.Regexp, message string) bool {
	for _, p := range patterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}
