// Package handler 按调用方划分 HTTP 接口：admin 为管理后台，seller 为销售员端，sales 为销售录入。
// 本包不含代码，仅供 swag init --dir ./internal/handler 扫描子包注解。
package handler
