package ai

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

const fenceJSON = "```json"

// ExtractJSON 从模型的自由文本回复中取出 JSON 并解码到 v。
// 优先取 ```json 围栏内的内容，否则取第一个 '{' 到最后一个 '}' 之间的子串。
func ExtractJSON(text string, v any) error {
	raw, err := jsonText(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errors.Wrap(err, "decode model json")
	}
	return nil
}

func jsonText(text string) (string, error) {
	if i := strings.Index(text, fenceJSON); i >= 0 {
		body := text[i+len(fenceJSON):]
		// 缺少结束围栏时取到末尾
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errors.New("no json object in model response")
	}
	return text[start : end+1], nil
}
