// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Field   FieldServiceConfig   // Field update config // 字段更新相关配置
	History HistoryServiceConfig // History config // 历史相关配置
}

// FieldServiceConfig field service configuration
// FieldServiceConfig 字段服务配置
type FieldServiceConfig struct {
	CompareAndSwap bool  // Check the stored version on save // 保存时校验存储版本
	MaxValueSize   int64 // Max bytes of a submitted value, 0 for no limit // 提交值的最大字节数，0 表示不限制
}

// HistoryServiceConfig history service configuration
// HistoryServiceConfig 历史服务配置
type HistoryServiceConfig struct {
	CacheSize int // Reconstructed value cache entries // 历史值缓存条目数
}
