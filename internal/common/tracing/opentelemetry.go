// Package tracing 提供 OpenTelemetry 分布式追踪
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName 业务 span 使用的 tracer 名称
const InstrumentationName = "github.com/dumeirei/incentive-backend"

// Config 追踪配置
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // OTLP gRPC 地址，为空时输出到 stdout
	SampleRate     float64
	Enabled        bool
}

// Provider 追踪提供者，未启用时 Shutdown 为空操作
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Init 按配置注册全局 TracerProvider 与传播器
func Init(cfg *Config) (*Provider, error) {
	if cfg == nil || !cfg.Enabled {
		return &Provider{}, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("创建追踪资源失败: %w", err)
	}

	exporter, err := newExporter(context.Background(), cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}, nil
}

func newExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	if endpoint == "" {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("创建 stdout 导出器失败: %w", err)
		}
		return exp, nil
	}
	exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return nil, fmt.Errorf("创建 OTLP 导出器失败: %w", err)
	}
	return exp, nil
}

// sampler 按比例采样并遵从上游决定
func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Enabled 是否启用了导出
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Shutdown 刷新并关闭导出器
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// StartSpan 在全局 TracerProvider 上开始业务 span
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// SetError 在当前 span 上记录错误并标记失败
func SetError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// 业务属性键
const (
	AttrSellerID     = attribute.Key("incentive.seller_id")
	AttrCampaignID   = attribute.Key("incentive.campaign_id")
	AttrRedemptionID = attribute.Key("incentive.redemption_id")
	AttrOperation    = attribute.Key("incentive.operation")
)

// WithSellerID 销售员 ID
func WithSellerID(id int64) attribute.KeyValue {
	return AttrSellerID.Int64(id)
}

// WithCampaignID 活动 ID
func WithCampaignID(id int64) attribute.KeyValue {
	return AttrCampaignID.Int64(id)
}

// WithRedemptionID 兑换单 ID
func WithRedemptionID(id int64) attribute.KeyValue {
	return AttrRedemptionID.Int64(id)
}

// WithOperation 业务操作
func WithOperation(op string) attribute.KeyValue {
	return AttrOperation.String(op)
}
