package code

var (
	Success = NewSuss(200, lang{en: "Success", zh_cn: "成功"})

	ErrorServerInternal = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI    = NewError(404, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorInvalidParams  = NewError(400, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequest = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})

	ErrorDBQuery = NewError(1001, lang{en: "Database query failed", zh_cn: "数据库查询失败"})

	ErrorFieldUnknown   = NewError(2001, lang{en: "Unknown owner kind or field", zh_cn: "未知的记录类型或字段"})
	ErrorFieldTooLarge  = NewError(2002, lang{en: "Field value is too large", zh_cn: "字段内容过大"})
	ErrorFieldStale     = NewError(2003, lang{en: "Field was changed by another writer, reload and resubmit", zh_cn: "字段已被其他人修改，请刷新后重新提交"})
	ErrorFieldBusy      = NewError(2004, lang{en: "Field is busy, try again later", zh_cn: "字段正在被处理，请稍后再试"})
	ErrorMergeFailed    = NewError(2101, lang{en: "Text merge tool failed", zh_cn: "文本合并工具执行失败"})
	ErrorPatchConflict  = NewError(2102, lang{en: "Patch did not apply cleanly", zh_cn: "补丁无法干净地应用"})
	ErrorPatchNotFound  = NewError(2201, lang{en: "Patch not found", zh_cn: "补丁不存在"})
	ErrorHistoryIndex   = NewError(2202, lang{en: "History index out of range", zh_cn: "历史版本序号超出范围"})
	ErrorHistoryCorrupt = NewError(2203, lang{en: "Stored patch history is corrupted", zh_cn: "补丁历史已损坏"})
)
