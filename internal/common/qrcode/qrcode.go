// Package qrcode 生成与解析领奖凭证二维码
package qrcode

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// voucherScheme 凭证内容前缀
const voucherScheme = "REDEMPTION"

// Payload 凭证二维码承载的内容
type Payload struct {
	RedemptionNo string
	Code         string
}

// String 编码为 REDEMPTION:<兑换单号>:<凭证码>
func (p Payload) String() string {
	return fmt.Sprintf("%s:%s:%s", voucherScheme, p.RedemptionNo, p.Code)
}

// Parse 解析扫码得到的凭证内容
func Parse(content string) (Payload, error) {
	parts := strings.Split(strings.TrimSpace(content), ":")
	if len(parts) != 3 || parts[0] != voucherScheme || parts[1] == "" || parts[2] == "" {
		return Payload{}, fmt.Errorf("无效的凭证内容: %q", content)
	}
	return Payload{RedemptionNo: parts[1], Code: parts[2]}, nil
}

// Encoder 凭证二维码编码器
type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// Option 编码器选项
type Option func(*Encoder)

// WithSize 设置图片边长（像素）
func WithSize(size int) Option {
	return func(e *Encoder) {
		if size > 0 {
			e.size = size
		}
	}
}

// WithHighRecovery 使用 25% 纠错，打印后磨损的凭证仍可识别
func WithHighRecovery() Option {
	return func(e *Encoder) {
		e.level = qrcode.High
	}
}

// NewEncoder 创建编码器，默认 256 像素、15% 纠错
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{size: 256, level: qrcode.Medium}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PNG 生成凭证 PNG 图片
func (e *Encoder) PNG(p Payload) ([]byte, error) {
	data, err := qrcode.Encode(p.String(), e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return data, nil
}

// DataURL 生成可直接嵌入页面的 data URL
func (e *Encoder) DataURL(p Payload) (string, error) {
	data, err := e.PNG(p)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
