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

// Package grpc 提供 gRPC 健康检查服务，供容器编排探活
package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// serviceName 健康检查注册的服务名
const serviceName = "coworker.engine"

// HealthServer gRPC 健康检查服务
type HealthServer struct {
	srv    *grpc.Server
	lis    net.Listener
	health *health.Server
}

// Start 在指定端口启动健康检查服务
func Start(port int) (*HealthServer, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("监听 gRPC 端口failed: %w", err)
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		_ = srv.Serve(lis)
	}()
	return &HealthServer{srv: srv, lis: lis, health: hs}, nil
}

// SetNotServing 将服务标记为不可用（优雅关闭前调用）
func (h *HealthServer) SetNotServing() {
	h.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
}

// GracefulStop 优雅停止
func (h *HealthServer) GracefulStop() {
	if h.lis != nil {
		_ = h.lis.Close()
	}
	if h.srv != nil {
		h.srv.GracefulStop()
	}
}
