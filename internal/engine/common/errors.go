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

// Package common 定义回合编排的错误分类。
// 纯函数组件（Supervisor/Director/情绪更新）对合法输入不产生错误，
// 所有失败源自外部协作方边界。
package common

import (
	"errors"
	"fmt"
)

// 哨兵错误
var (
	// ErrSessionNotFound 会话从未落盘或已被清除；读端点视为不存在，回合处理视为"从新开始"
	ErrSessionNotFound = errors.New("会话不存在")
	// ErrStateConflict 同一会话检测到并发回合；可重试，绝不静默合并
	ErrStateConflict = errors.New("会话回合冲突")
	// ErrTransient 外部调用瞬时失败（超时/传输），可在退避后重试
	ErrTransient = errors.New("瞬时调用失败")
	// ErrFatalInvocation 外部调用致命失败，放弃本回合且不提交状态
	ErrFatalInvocation = errors.New("调用致命失败")
)

// ValidationError 输入验证错误（消息为空、未知指定角色等），立即返回，不改状态
type ValidationError struct {
	Field   string
	Message string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("验证错误: %s: %s", e.Field, e.Message)
}

// NewValidationError 创建新的验证错误
func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsTransient 检查是否为瞬时调用失败
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsStateConflict 检查是否为并发回合冲突
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}

// Transient 将底层错误标记为瞬时失败
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// Fatal 将底层错误标记为致命失败
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrFatalInvocation, err)
}
