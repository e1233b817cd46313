// Package file 提供上传文件的存储服务
package file

import (
	"context"
	"io"
)

// SaveRequest 保存文件请求
type SaveRequest struct {
	KnowledgeBaseID string
	FileName        string
	Reader          io.Reader
}

// Storage 文件存储接口
type Storage interface {
	// Save 保存文件，返回可再次打开的本地路径
	Save(ctx context.Context, req *SaveRequest) (string, error)
	// Delete 删除文件
	Delete(ctx context.Context, path string) error
}
