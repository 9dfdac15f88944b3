package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldOwnerKind 记录类型字段 (project / schedule)
	FieldOwnerKind = "ownerKind"

	// FieldOwnerID 记录 ID 字段
	FieldOwnerID = "ownerId"

	// FieldField 字段名字段
	FieldField = "field"

	// FieldSeq 补丁序号字段
	FieldSeq = "seq"

	// FieldPatchID 补丁 ID 字段
	FieldPatchID = "patchId"

	// FieldOp 文本工具操作字段 (diff / patch / merge3)
	FieldOp = "op"

	// FieldTool 外部工具路径字段
	FieldTool = "tool"

	// FieldExitCode 进程退出码字段
	FieldExitCode = "exitCode"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldSize 内容大小字段
	FieldSize = "size"
)
