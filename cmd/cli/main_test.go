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

import "testing"

func TestSplitTarget(t *testing.T) {
	cases := []struct {
		in         string
		wantTarget string
		wantMsg    string
	}{
		{"@CEO what about the budget", "CEO", "what about the budget"},
		{"@CHRO   competency themes", "CHRO", "competency themes"},
		{"no prefix message", "", "no prefix message"},
		{"@CEO", "", "@CEO"},
		{"email me at a@b.com", "", "email me at a@b.com"},
	}
	for _, c := range cases {
		target, msg := splitTarget(c.in)
		if target != c.wantTarget || msg != c.wantMsg {
			t.Errorf("splitTarget(%q) = (%q, %q), want (%q, %q)", c.in, target, msg, c.wantTarget, c.wantMsg)
		}
	}
}
