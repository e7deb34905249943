// Package utils 提供编号生成、分页等通用工具
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// voucherAlphabet 凭证码字符集，去掉了易混淆的 0 O I 1，长度 32
const voucherAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var serialSpace = big.NewInt(1_000_000)

// GenerateSerialNo 生成业务单号：前缀 + UTC 时间戳(秒) + 6 位随机数
func GenerateSerialNo(prefix string) string {
	n, err := rand.Int(rand.Reader, serialSpace)
	if err != nil {
		panic(fmt.Sprintf("utils: 读取随机数失败: %v", err))
	}
	return fmt.Sprintf("%s%s%06d", prefix, time.Now().UTC().Format("20060102150405"), n.Int64())
}

// GenerateVoucherCode 生成指定长度的兑换凭证码
func GenerateVoucherCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("utils: 读取随机数失败: %v", err))
	}
	for i, b := range buf {
		buf[i] = voucherAlphabet[int(b)%len(voucherAlphabet)]
	}
	return string(buf)
}

// Ptr 返回值的指针
func Ptr[T any](v T) *T {
	return &v
}

// Unique 去重并保持原有顺序
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, v := range items {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Pagination 分页参数
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize 页码从 1 开始，页大小限制在 [1, MaxPageSize]
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
}

// Offset 查询偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 查询条数
func (p Pagination) Limit() int {
	return p.PageSize
}
