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

package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
)

// Router HTTP 路由器
type Router struct {
	handler *Handler
}

// NewRouter 创建 HTTP 路由器
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// Build 创建 Hertz 服务并注册全部路由，addr 如 ":8080"
func (r *Router) Build(addr string, opts ...hertzconfig.Option) *server.Hertz {
	options := append([]hertzconfig.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(options...)
	r.register(h)
	return h
}

func (r *Router) register(h *server.Hertz) {
	api := h.Group("/api")

	api.POST("/chat", r.handler.Chat)
	api.GET("/health", r.handler.HealthCheck)
	api.GET("/responders", r.handler.ListResponders)

	sessions := api.Group("/sessions")
	{
		sessions.GET("/:id", r.handler.GetSession)
		sessions.GET("/:id/progress", r.handler.GetProgress)
		sessions.DELETE("/:id", r.handler.DeleteSession)
	}

	system := api.Group("/system")
	{
		system.GET("/cache", r.handler.CacheStats)
	}

	h.GET("/metrics", r.handler.Metrics)
}
