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

// Package api API 应用：装配 Hertz 服务、路由与可观测性
package api

import (
	"context"
	"log/slog"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	apigrpc "coworker-engine/internal/api/grpc"
	apihttp "coworker-engine/internal/api/http"
	"coworker-engine/internal/app"
)

// otelProviderShutdown 优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用
type App struct {
	bootstrap    *app.Bootstrap
	router       *apihttp.Router
	hertz        *server.Hertz
	grpcHealth   *apigrpc.HealthServer
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	handler := apihttp.NewHandler(bootstrap.Pipeline, bootstrap.SessionStore, bootstrap.Registry)
	appObj := &App{
		bootstrap: bootstrap,
		router:    apihttp.NewRouter(handler),
	}

	cfg := bootstrap.Config
	if cfg.API.Grpc.Enable && cfg.API.Grpc.Port > 0 {
		gs, err := apigrpc.Start(cfg.API.Grpc.Port)
		if err != nil {
			bootstrap.Logger.Warn("gRPC 健康服务启动失败", "error", err)
		} else {
			appObj.grpcHealth = gs
			bootstrap.Logger.Info("gRPC 健康服务已启动", "port", cfg.API.Grpc.Port)
		}
	}
	return appObj, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// Hertz 日志走 slog 扩展，与 bootstrap 日志配置对齐
	cfg := a.bootstrap.Config
	output := os.Stdout
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}
	levelVar := &slog.LevelVar{}
	switch cfg.Log.Level {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))

	if cfg.Monitoring.Tracing.Enable {
		serviceName := cfg.Monitoring.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "coworker-engine"
		}
		exportEndpoint := cfg.Monitoring.Tracing.ExportEndpoint
		if exportEndpoint == "" {
			exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		if exportEndpoint != "" {
			opts := []provider.Option{
				provider.WithServiceName(serviceName),
				provider.WithExportEndpoint(exportEndpoint),
			}
			if cfg.Monitoring.Tracing.Insecure {
				opts = append(opts, provider.WithInsecure())
			}
			a.otelProvider = provider.NewOpenTelemetryProvider(opts...)
			tracerOpt, tcfg := hertztracing.NewServerTracer()
			a.hertz = a.router.Build(addr, tracerOpt)
			a.hertz.Use(hertztracing.ServerMiddleware(tcfg))
			a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
		}
	}
	if a.hertz == nil {
		a.hertz = a.router.Build(addr)
	}
	return a.hertz.Run()
}

// Shutdown 优雅关闭
func (a *App) Shutdown(ctx context.Context) error {
	if a.grpcHealth != nil {
		a.grpcHealth.SetNotServing()
		a.grpcHealth.GracefulStop()
	}
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	a.bootstrap.Close()
	return nil
}
