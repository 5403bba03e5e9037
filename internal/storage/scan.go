package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示上传文件未通过病毒扫描。
var ErrInfected = errors.New("malicious file detected")

// Scanner 在文件落盘前扫描内容。
type Scanner interface {
	Scan(data []byte) error
}

// NopScanner 在未配置 clamd 时使用。
type NopScanner struct{}

func (NopScanner) Scan([]byte) error { return nil }

// ClamdScanner 通过 clamd 的 INSTREAM 命令扫描。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewScanner addr 为空时返回 NopScanner。
func NewScanner(addr string) Scanner {
	if addr == "" {
		return NopScanner{}
	}
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

// Scan 实现 Scanner。
func (s *ClamdScanner) Scan(data []byte) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(bytes.NewReader(data), abort)
	if err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	for result := range results {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("%w: %s", ErrInfected, result.Description)
		}
	}
	return nil
}
