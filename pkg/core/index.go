package core

import "rankdb/pkg/common"

// Index 抽象接口，单列有序索引（id 列或属性列）
type Index interface {
	Get(key common.KeyType) (common.ValueType, bool)
	Put(key common.KeyType, val common.ValueType)
	Ascend(fn func(key common.KeyType, val common.ValueType) bool)
	Size() int
	Height() int
}
