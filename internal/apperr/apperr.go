// Package apperr 定义业务错误分类
// 三类错误对应不同的失败来源和 HTTP 状态码：
//   - Load        文档无法读取或解析
//   - Service     Embedding / LLM / 向量库等外部服务不可用
//   - Persistence 关系库写入失败
package apperr

import (
	"errors"
	"fmt"
)

// 错误哨兵，供 errors.Is 判断错误类别
var (
	ErrLoad        = errors.New("load error")
	ErrService     = errors.New("service error")
	ErrPersistence = errors.New("persistence error")
	ErrNotFound    = errors.New("not found")
)

// Load 包装文档读取/解析错误
func Load(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLoad, fmt.Sprintf(format, args...))
}

// Service 包装外部服务错误
func Service(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrService, fmt.Sprintf(format, args...))
}

// Persistence 包装关系库写入错误
func Persistence(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPersistence, fmt.Sprintf(format, args...))
}

// NotFound 包装资源不存在错误
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
