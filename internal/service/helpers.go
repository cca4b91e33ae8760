package service

import (
	"encoding/json"
	"strconv"
)

// ==================== 辅助函数 ====================

func getMapString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getMapFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		case int64:
			return float64(val)
		case json.Number:
			f, _ := val.Float64()
			return f
		}
	}
	return 0
}

func getMapInt64(m map[string]interface{}, key string) int64 {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case string:
			n, _ := strconv.ParseInt(val, 10, 64)
			return n
		case json.Number:
			n, _ := val.Int64()
			return n
		}
	}
	return int64(getMapFloat(m, key))
}

// getMapBool 兼容 bool / 0,1 / "true","1"
func getMapBool(m map[string]interface{}, key string) bool {
	switch val := m[key].(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	case nil:
		return false
	}
	return getMapFloat(m, key) != 0
}
