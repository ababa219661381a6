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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("coworker cli 0.1.0")
	case "chat":
		runChat(args)
	case "progress":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: coworker progress <session_id>\n")
			os.Exit(1)
		}
		runProgress(args[0])
	case "responders":
		runResponders()
	case "reset":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: coworker reset <session_id>\n")
			os.Exit(1)
		}
		runReset(args[0])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: coworker <command> [args]")
	fmt.Println("  version              - 显示版本")
	fmt.Println("  chat [session_id]    - 交互式对话（缺省自动生成会话；@CEO 消息 可指定角色）")
	fmt.Println("  progress <session_id> - 查看任务进展")
	fmt.Println("  responders           - 列出可对话角色")
	fmt.Println("  reset <session_id>   - 删除会话，重新开始训练")
}

func runChat(args []string) {
	sessionID := os.Getenv("COWORKER_SESSION_ID")
	if len(args) > 0 {
		sessionID = args[0]
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
		fmt.Printf("会话: %s\n", sessionID)
	}
	fmt.Println("输入消息开始对话；@CEO / @CHRO / @RegionalManager 前缀指定角色；exit 退出")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}
		if msg == "exit" || msg == "quit" {
			break
		}

		target, msg := splitTarget(msg)
		result, err := postChat(sessionID, msg, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "发送失败: %v\n", err)
			continue
		}
		fmt.Printf("\n[%s] %s\n", result.Responder, result.Response)
		if result.HintTriggered {
			fmt.Println("(导师介入)")
		}
		if result.Outcome == "degraded" {
			fmt.Println("(临时故障，本回合未计入)")
		}
		fmt.Printf("  回合 %d | 情绪 %.2f", result.TurnCount, result.SentimentScore)
		if result.CacheTier != "" {
			fmt.Printf(" | 缓存 %s", result.CacheTier)
		}
		fmt.Println()
		fmt.Println()
	}
}

// splitTarget 解析 "@角色 消息" 前缀，返回 (角色, 剩余消息)
func splitTarget(msg string) (string, string) {
	if !strings.HasPrefix(msg, "@") {
		return "", msg
	}
	parts := strings.SplitN(msg[1:], " ", 2)
	if len(parts) < 2 {
		return "", msg
	}
	return parts[0], strings.TrimSpace(parts[1])
}

func runProgress(sessionID string) {
	out, err := getProgress(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询进展失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runResponders() {
	out, err := listResponders()
	if err != nil {
		fmt.Fprintf(os.Stderr, "列出角色失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runReset(sessionID string) {
	if err := deleteSession(sessionID); err != nil {
		fmt.Fprintf(os.Stderr, "删除会话失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("已删除:", sessionID)
}
