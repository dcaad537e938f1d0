package common

import "fmt"

// KeyType 定义记录主键类型，固定为 32 位整数
type KeyType int32

// ValueType 定义属性值类型
type ValueType int32

// Record 是索引与排序视图中的基本单元
type Record struct {
	Key   KeyType
	Value ValueType
}

// String 方便调试打印
func (r Record) String() string {
	return fmt.Sprintf("Record{Key: %d, Value: %d}", r.Key, r.Value)
}

// ScoredKey pairs a record id with its weighted score.
type ScoredKey struct {
	Key   KeyType
	Score float64
}

func (s ScoredKey) String() string {
	return fmt.Sprintf("%d:%g", s.Key, s.Score)
}
