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
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("COWORKER_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
}

// turnResult /api/chat 响应
type turnResult struct {
	SessionID      string  `json:"session_id"`
	Response       string  `json:"response"`
	Responder      string  `json:"responder"`
	SentimentScore float64 `json:"sentiment_score"`
	TurnCount      int     `json:"turn_count"`
	Outcome        string  `json:"outcome"`
	CacheTier      string  `json:"cache_tier"`
	HintTriggered  bool    `json:"hint_triggered"`
}

func postChat(sessionID, message, target string) (*turnResult, error) {
	body := map[string]string{
		"session_id": sessionID,
		"message":    message,
	}
	if target != "" {
		body["target"] = target
	}
	var out turnResult
	resp, err := newClient().R().
		SetBody(body).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/chat: %s", resp.String())
	}
	return &out, nil
}

func getProgress(sessionID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/sessions/" + sessionID + "/progress")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET progress: %s", resp.String())
	}
	return out, nil
}

func listResponders() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/responders")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET responders: %s", resp.String())
	}
	return out, nil
}

func deleteSession(sessionID string) error {
	resp, err := newClient().R().
		Delete("/api/sessions/" + sessionID)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("DELETE session: %s", resp.String())
	}
	return nil
}

func prettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
